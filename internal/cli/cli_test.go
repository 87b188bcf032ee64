package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	opts, shouldExit, err := Parse([]string{"config.json"}, out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	assert.Equal(t, "config.json", opts.ConfigFile)
	assert.Equal(t, "sky130A", opts.PDK)
	assert.Empty(t, opts.SCL)
	assert.Empty(t, opts.FlowName)
	assert.False(t, opts.LastRun)
	assert.Equal(t, "text", opts.LogFormat)
	assert.Equal(t, "info", opts.LogLevel)
}

func TestParse_AllFlags(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	opts, _, err := Parse([]string{
		"-p", "gf180mcuD",
		"-s", "gf180mcu_fd_sc_mcu7t5v0",
		"-f", "Classic",
		"--pdk-root", "/opt/pdks",
		"--run-tag", "nightly",
		"-F", "source.load",
		"-T", "report.summary",
		"-I", "state_in.json",
		"-c", "CLOCK_PERIOD=12",
		"-c", `SOURCE_FILES=["a.v","b.v"]`,
		"config.yaml",
	}, out)
	require.NoError(t, err)

	assert.Equal(t, "gf180mcuD", opts.PDK)
	assert.Equal(t, "gf180mcu_fd_sc_mcu7t5v0", opts.SCL)
	assert.Equal(t, "Classic", opts.FlowName)
	assert.Equal(t, "/opt/pdks", opts.PDKRoot)
	assert.Equal(t, "nightly", opts.RunTag)
	assert.Equal(t, "source.load", opts.From)
	assert.Equal(t, "report.summary", opts.To)
	assert.Equal(t, "state_in.json", opts.InitialStatePath)
	// Overrides keep their command-line order.
	assert.Equal(t, []string{"CLOCK_PERIOD=12", `SOURCE_FILES=["a.v","b.v"]`}, opts.Overrides)
	assert.Equal(t, "config.yaml", opts.ConfigFile)
}

func TestParse_RunTagAndLastRunConflict(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"--run-tag", "x", "--last-run", "config.json"}, out)
	require.Error(t, err)

	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.Contains(t, exitErr.Message, "mutually exclusive")
}

func TestParse_MissingConfigFile(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"--last-run"}, out)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.Contains(t, exitErr.Message, "CONFIG_FILE")
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_TooManyArguments(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"a.json", "b.json"}, out)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, ExitFailure, exitErr.Code)
}

func TestParse_AllViolationsReported(t *testing.T) {
	t.Parallel()

	// Conflict plus a bad log level: the single validation pass must
	// report both, not stop at the first.
	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"--run-tag", "x", "--last-run", "--log-level", "loud", "config.json"}, out)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Contains(t, exitErr.Message, "mutually exclusive")
	assert.Contains(t, exitErr.Message, "log-level")
}

func TestParse_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, shouldExit, err := Parse([]string{"--help"}, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
}

func TestParse_UnknownFlag(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"--no-such-flag", "config.json"}, out)
	require.Error(t, err)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, ExitFailure, exitErr.Code)
}

func TestParse_InvalidLogFormat(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	_, _, err := Parse([]string{"--log-format", "xml", "config.json"}, out)
	exitErr, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Contains(t, exitErr.Message, "log-format")
}
