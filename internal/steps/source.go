package steps

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/vk/chipflow/internal/ctxlog"
	"github.com/vk/chipflow/internal/fsutil"
)

// SourceLoad resolves the design's source file list from the configuration
// and verifies every file exists. The resolved absolute paths are written
// to a manifest in the step directory and recorded in the state.
type SourceLoad struct{}

// ID implements the Step interface.
func (s *SourceLoad) ID() string { return "source.load" }

// Run implements the Step interface.
func (s *SourceLoad) Run(ctx context.Context, sc *StepContext) error {
	logger := ctxlog.FromContext(ctx)

	sources, ok := sc.Config.StringList("SOURCE_FILES")
	if !ok || len(sources) == 0 {
		return Deliberatef("SOURCE_FILES is missing or empty; nothing to load")
	}

	resolved := make([]string, 0, len(sources))
	var missing []string
	for _, src := range sources {
		path := src
		if !filepath.IsAbs(path) {
			path = filepath.Join(sc.DesignRoot, src)
		}
		if !fsutil.FileExists(path) {
			missing = append(missing, src)
			continue
		}
		resolved = append(resolved, path)
	}
	if len(missing) > 0 {
		return Deliberatef("missing source file(s): %s", strings.Join(missing, ", "))
	}

	manifest := filepath.Join(sc.StepDir, "sources.txt")
	content := strings.Join(resolved, "\n") + "\n"
	if err := os.WriteFile(manifest, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing source manifest: %w", err)
	}

	sc.State.Files["sources"] = &manifest
	sc.State.Metrics["source_count"] = len(resolved)
	logger.Info("Design sources resolved.", "count", len(resolved))
	return nil
}

// SourceChecksum fingerprints every file in the source manifest with
// BLAKE3 and records a combined digest in the state metrics, so later
// invocations can tell whether the inputs changed.
type SourceChecksum struct{}

// ID implements the Step interface.
func (s *SourceChecksum) ID() string { return "source.checksum" }

// Run implements the Step interface.
func (s *SourceChecksum) Run(ctx context.Context, sc *StepContext) error {
	logger := ctxlog.FromContext(ctx)

	manifestPath := sc.State.Files["sources"]
	if manifestPath == nil {
		return Deliberatef("no source manifest in state; run source.load first")
	}
	raw, err := os.ReadFile(*manifestPath)
	if err != nil {
		return fmt.Errorf("reading source manifest: %w", err)
	}

	combined := blake3.New()
	var lines []string
	for _, path := range strings.Fields(string(raw)) {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading source %s: %w", path, err)
		}
		sum := blake3.Sum256(content)
		digest := hex.EncodeToString(sum[:])
		lines = append(lines, digest+"  "+path)
		combined.Write(sum[:])
	}

	checksumFile := filepath.Join(sc.StepDir, "checksums.txt")
	if err := os.WriteFile(checksumFile, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return fmt.Errorf("writing checksum file: %w", err)
	}

	digest := hex.EncodeToString(combined.Sum(nil))
	sc.State.Files["checksums"] = &checksumFile
	sc.State.Metrics["source_digest"] = digest
	logger.Info("Design sources fingerprinted.", "digest", digest[:16])
	return nil
}
