package runs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_ExplicitTagPassesThrough(t *testing.T) {
	t.Parallel()

	// No existence check happens for explicit tags, so no fixture needed.
	tag, err := Resolve(t.TempDir(), "my-run", false)
	require.NoError(t, err)
	assert.Equal(t, "my-run", tag)
}

func TestResolve_NeitherSetReturnsEmpty(t *testing.T) {
	t.Parallel()

	tag, err := Resolve(t.TempDir(), "", false)
	require.NoError(t, err)
	assert.Empty(t, tag)
}

func TestResolve_LastRunPicksNewestMtime(t *testing.T) {
	t.Parallel()

	designRoot := t.TempDir()
	runsDir := filepath.Join(designRoot, "runs")
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"RUN_A", "RUN_C", "RUN_B"} {
		dir := filepath.Join(runsDir, name)
		require.NoError(t, os.MkdirAll(dir, 0755))
		// Distinct mtimes, deliberately not in lexical order.
		mtime := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(dir, mtime, mtime))
	}

	tag, err := Resolve(designRoot, "", true)
	require.NoError(t, err)
	assert.Equal(t, "RUN_B", tag)
}

func TestResolve_LastRunIgnoresPlainFiles(t *testing.T) {
	t.Parallel()

	designRoot := t.TempDir()
	runsDir := filepath.Join(designRoot, "runs")
	require.NoError(t, os.MkdirAll(filepath.Join(runsDir, "RUN_A"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(runsDir, "stray.log"), []byte("x"), 0644))

	// Make the stray file newer than the run directory.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(runsDir, "stray.log"), future, future))

	tag, err := Resolve(designRoot, "", true)
	require.NoError(t, err)
	assert.Equal(t, "RUN_A", tag)
}

func TestResolve_LastRunNoRuns(t *testing.T) {
	t.Parallel()

	// Empty runs/ directory and missing runs/ directory behave the same.
	withEmpty := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(withEmpty, "runs"), 0755))

	for _, designRoot := range []string{withEmpty, t.TempDir()} {
		_, err := Resolve(designRoot, "", true)
		require.ErrorIs(t, err, ErrNoRunsFound)
	}
}

func TestNewTag_Format(t *testing.T) {
	t.Parallel()

	tag := NewTag()
	assert.Regexp(t, `^RUN_\d{4}\.\d{2}\.\d{2}_\d{2}\.\d{2}\.\d{2}$`, tag)
}
