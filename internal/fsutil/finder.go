// Package fsutil provides file system utility functions.
package fsutil

import (
	"os"
	"path/filepath"
	"time"
)

// DirEntryInfo describes one immediate subdirectory of a scanned directory.
type DirEntryInfo struct {
	Name    string
	Path    string
	ModTime time.Time
}

// Subdirectories returns the immediate subdirectories of root along with
// their last-modified times. Non-directory entries are skipped. A missing
// root is not an error; it yields an empty result.
func Subdirectories(root string) ([]DirEntryInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirEntryInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// The entry may have been removed between ReadDir and Info.
			continue
		}
		dirs = append(dirs, DirEntryInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(root, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return dirs, nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
