package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/chipflow/internal/cli"
	"github.com/vk/chipflow/internal/config"
	"github.com/vk/chipflow/internal/flows"
	"github.com/vk/chipflow/internal/state"
)

// writeDesign lays out a minimal design directory: a config file plus the
// source files it names.
func writeDesign(t *testing.T, configContent string, sources map[string]string) string {
	t.Helper()
	designRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(designRoot, "config.json"), []byte(configContent), 0644))
	for name, content := range sources {
		path := filepath.Join(designRoot, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return designRoot
}

func newTestApp(t *testing.T, opts *cli.Options) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return New(out, errOut, opts), out, errOut
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	exitErr, ok := err.(*cli.ExitError)
	require.True(t, ok, "expected an ExitError, got %T: %v", err, err)
	return exitErr.Code
}

func TestRun_ClassicFlowSucceeds(t *testing.T) {
	t.Parallel()

	designRoot := writeDesign(t, `{
		"DESIGN_NAME": "spm",
		"SOURCE_FILES": ["src/spm.v"]
	}`, map[string]string{"src/spm.v": "module spm; endmodule\n"})

	opts := &cli.Options{
		PDK:        "sky130A",
		FlowName:   "Classic",
		ConfigFile: filepath.Join(designRoot, "config.json"),
	}
	a, _, _ := newTestApp(t, opts)

	require.NoError(t, a.Run(context.Background(), opts))

	// Exactly one fresh run with a final checkpoint.
	entries, err := os.ReadDir(filepath.Join(designRoot, "runs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.FileExists(t, filepath.Join(designRoot, "runs", entries[0].Name(), "state_out.json"))
}

func TestRun_ExpectedPipelineFailureExits2(t *testing.T) {
	t.Parallel()

	// The config names a source file that does not exist, so source.load
	// reports a deliberate failure.
	designRoot := writeDesign(t, `{
		"DESIGN_NAME": "spm",
		"SOURCE_FILES": ["src/gone.v"]
	}`, nil)

	opts := &cli.Options{
		PDK:        "sky130A",
		FlowName:   "Classic",
		ConfigFile: filepath.Join(designRoot, "config.json"),
	}
	a, _, _ := newTestApp(t, opts)

	err := a.Run(context.Background(), opts)
	require.Equal(t, cli.ExitPipelineFailure, exitCode(t, err))
	assert.Contains(t, err.Error(), "src/gone.v", "the specific failure must be present in the diagnostic")
}

func TestRun_UnknownFlowExits1(t *testing.T) {
	t.Parallel()

	designRoot := writeDesign(t, `{"DESIGN_NAME": "spm"}`, nil)
	opts := &cli.Options{
		PDK:        "sky130A",
		FlowName:   "DoesNotExist",
		ConfigFile: filepath.Join(designRoot, "config.json"),
	}
	a, _, _ := newTestApp(t, opts)

	err := a.Run(context.Background(), opts)
	require.Equal(t, cli.ExitFailure, exitCode(t, err))
	assert.Contains(t, err.Error(), "DoesNotExist")
}

func TestRun_UnknownMetaFlowExits1(t *testing.T) {
	t.Parallel()

	designRoot := writeDesign(t, `{
		"DESIGN_NAME": "spm",
		"meta": {"flow": "Baroque"}
	}`, nil)
	opts := &cli.Options{PDK: "sky130A", ConfigFile: filepath.Join(designRoot, "config.json")}
	a, _, _ := newTestApp(t, opts)

	err := a.Run(context.Background(), opts)
	require.Equal(t, cli.ExitFailure, exitCode(t, err))
	assert.Contains(t, err.Error(), "Baroque")
}

func TestRun_MetaStepListRunsAdHocFlow(t *testing.T) {
	t.Parallel()

	// The meta flow is a step list; resolution must build a sequential
	// flow over exactly those steps, never a registry lookup.
	designRoot := writeDesign(t, `{
		"DESIGN_NAME": "spm",
		"SOURCE_FILES": ["src/spm.v"],
		"meta": {"flow": ["source.load", "report.summary"]}
	}`, map[string]string{"src/spm.v": "module spm; endmodule\n"})
	opts := &cli.Options{PDK: "sky130A", ConfigFile: filepath.Join(designRoot, "config.json")}
	a, _, _ := newTestApp(t, opts)

	require.NoError(t, a.Run(context.Background(), opts))

	entries, err := os.ReadDir(filepath.Join(designRoot, "runs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	runDir := filepath.Join(designRoot, "runs", entries[0].Name())
	assert.DirExists(t, filepath.Join(runDir, "01-source.load"))
	assert.DirExists(t, filepath.Join(runDir, "02-report.summary"))
	assert.NoDirExists(t, filepath.Join(runDir, "03-report.archive"))
}

func TestRun_InvalidConfigExits1AndSurfacesAllErrors(t *testing.T) {
	t.Parallel()

	designRoot := writeDesign(t, `{"clock_period": 10}`, nil)
	opts := &cli.Options{
		PDK:        "sky130A",
		ConfigFile: filepath.Join(designRoot, "config.json"),
		Overrides:  []string{"FOO=notjson"},
	}
	a, _, errOut := newTestApp(t, opts)

	err := a.Run(context.Background(), opts)
	require.Equal(t, cli.ExitFailure, exitCode(t, err))

	diag := errOut.String()
	assert.Contains(t, diag, "DESIGN_NAME")
	assert.Contains(t, diag, "FOO")
	// Warnings ride along with the errors from the same stage.
	assert.Contains(t, diag, "clock_period")
}

func TestRun_LastRunWithNoRunsExits1(t *testing.T) {
	t.Parallel()

	designRoot := writeDesign(t, `{"DESIGN_NAME": "spm"}`, nil)
	opts := &cli.Options{
		PDK:        "sky130A",
		FlowName:   "Classic",
		LastRun:    true,
		ConfigFile: filepath.Join(designRoot, "config.json"),
	}
	a, _, _ := newTestApp(t, opts)

	err := a.Run(context.Background(), opts)
	require.Equal(t, cli.ExitFailure, exitCode(t, err))
	assert.Contains(t, err.Error(), "no runs found")
}

func TestRun_MissingInitialStateExits1(t *testing.T) {
	t.Parallel()

	designRoot := writeDesign(t, `{"DESIGN_NAME": "spm"}`, nil)
	opts := &cli.Options{
		PDK:              "sky130A",
		FlowName:         "Classic",
		InitialStatePath: filepath.Join(designRoot, "nope.json"),
		ConfigFile:       filepath.Join(designRoot, "config.json"),
	}
	a, _, _ := newTestApp(t, opts)

	require.Equal(t, cli.ExitFailure, exitCode(t, a.Run(context.Background(), opts)))
}

func TestRun_MalformedInitialStateExits1(t *testing.T) {
	t.Parallel()

	designRoot := writeDesign(t, `{"DESIGN_NAME": "spm"}`, map[string]string{
		"bad_state.json": `{"nl": 42}`,
	})
	opts := &cli.Options{
		PDK:              "sky130A",
		FlowName:         "Classic",
		InitialStatePath: filepath.Join(designRoot, "bad_state.json"),
		ConfigFile:       filepath.Join(designRoot, "config.json"),
	}
	a, _, _ := newTestApp(t, opts)

	err := a.Run(context.Background(), opts)
	require.Equal(t, cli.ExitFailure, exitCode(t, err))
	assert.Contains(t, err.Error(), "invalid state")
}

// captureFlow records the options it was started with.
type captureFlow struct {
	started *flows.StartOptions
}

func (f *captureFlow) Start(ctx context.Context, opts flows.StartOptions) error {
	*f.started = opts
	return nil
}

func TestRun_InitialStateRoundTripsToFlow(t *testing.T) {
	t.Parallel()

	original := state.New()
	netlist := "runs/old/01-synthesis/spm.nl.v"
	original.Files["nl"] = &netlist
	original.Metrics["cell_count"] = 412.0
	raw, err := original.Dumps()
	require.NoError(t, err)

	designRoot := writeDesign(t, `{"DESIGN_NAME": "spm"}`, map[string]string{
		"state_in.json": string(raw),
	})
	opts := &cli.Options{
		PDK:              "sky130A",
		FlowName:         "Capture",
		RunTag:           "reused",
		InitialStatePath: filepath.Join(designRoot, "state_in.json"),
		ConfigFile:       filepath.Join(designRoot, "config.json"),
	}
	a, _, _ := newTestApp(t, opts)

	var started flows.StartOptions
	a.Flows().Register("Capture", func(cfg *config.Config, root string) flows.Flow {
		return &captureFlow{started: &started}
	})

	require.NoError(t, a.Run(context.Background(), opts))
	assert.Equal(t, "reused", started.Tag)
	require.NotNil(t, started.InitialState)
	assert.True(t, original.Equal(started.InitialState), "seed state must round-trip unchanged")
}
