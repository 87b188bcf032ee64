package runs

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/vk/chipflow/internal/fsutil"
)

// ErrNoRunsFound reports that resuming the last run was requested but the
// design has no run directories at all.
var ErrNoRunsFound = errors.New("no runs found")

// NewTag returns a fresh, timestamp-based run tag.
func NewTag() string {
	return time.Now().Format("RUN_2006.01.02_15.04.05")
}

// Resolve determines the run tag to hand to the flow engine. An explicit
// tag is returned unchanged with no existence check; the engine validates
// it at start time. With lastRun set, the immediate subdirectories of
// <designRoot>/runs are scanned and the most recently modified one wins
// (ties go to the first encountered). Neither set returns an empty tag,
// leaving the engine to assign a fresh one.
func Resolve(designRoot, tag string, lastRun bool) (string, error) {
	if tag != "" {
		return tag, nil
	}
	if !lastRun {
		return "", nil
	}

	dirs, err := fsutil.Subdirectories(filepath.Join(designRoot, "runs"))
	if err != nil {
		return "", fmt.Errorf("scanning runs directory: %w", err)
	}

	var latest *fsutil.DirEntryInfo
	for i := range dirs {
		if latest == nil || dirs[i].ModTime.After(latest.ModTime) {
			latest = &dirs[i]
		}
	}
	if latest == nil {
		return "", ErrNoRunsFound
	}
	return latest.Name, nil
}
