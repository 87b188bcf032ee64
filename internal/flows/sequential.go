package flows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/chipflow/internal/config"
	"github.com/vk/chipflow/internal/ctxlog"
	"github.com/vk/chipflow/internal/fsutil"
	"github.com/vk/chipflow/internal/runs"
	"github.com/vk/chipflow/internal/state"
	"github.com/vk/chipflow/internal/steps"
)

// ClassicSteps is the step sequence of the builtin Classic flow.
var ClassicSteps = []string{
	"source.load",
	"source.checksum",
	"report.summary",
	"report.archive",
}

// SequentialFlow executes an ordered list of steps, checkpointing the
// pipeline state after each one.
type SequentialFlow struct {
	name       string
	stepIDs    []string
	stepReg    *steps.Registry
	cfg        *config.Config
	designRoot string
}

// Sequential returns a factory building a sequential flow with the given
// name over the given ordered step identifiers.
func Sequential(name string, stepIDs []string, stepReg *steps.Registry) Factory {
	return func(cfg *config.Config, designRoot string) Flow {
		return &SequentialFlow{
			name:       name,
			stepIDs:    stepIDs,
			stepReg:    stepReg,
			cfg:        cfg,
			designRoot: designRoot,
		}
	}
}

// Name returns the flow's display name.
func (f *SequentialFlow) Name() string { return f.name }

// StepIDs returns the flow's ordered step identifiers.
func (f *SequentialFlow) StepIDs() []string { return f.stepIDs }

// Start implements the Flow interface. It creates or resumes the run
// directory, seeds the state, and advances through the selected step range
// in order. The first failure terminates the run.
func (f *SequentialFlow) Start(ctx context.Context, opts StartOptions) error {
	logger := ctxlog.FromContext(ctx)

	impls, err := f.resolveSteps()
	if err != nil {
		return &EngineError{Flow: f.name, Err: err}
	}

	first, last, err := f.stepRange(opts.From, opts.To)
	if err != nil {
		return &EngineError{Flow: f.name, Err: err}
	}

	tag := opts.Tag
	if tag == "" {
		tag = runs.NewTag()
	}
	runDir := filepath.Join(f.designRoot, "runs", tag)
	resuming := false
	if info, err := os.Stat(runDir); err == nil && info.IsDir() {
		resuming = true
	}
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return &EngineError{Flow: f.name, Err: fmt.Errorf("creating run directory: %w", err)}
	}
	logger.Info("Starting flow.", "flow", f.name, "tag", tag, "resuming", resuming)

	current := opts.InitialState
	if current == nil {
		if resuming {
			current, err = latestCheckpoint(runDir)
			if err != nil {
				return &EngineError{Flow: f.name, Err: err}
			}
		}
		if current == nil {
			current = state.New()
		}
	}

	for i := first; i <= last; i++ {
		step := impls[i]
		stepDir := filepath.Join(runDir, fmt.Sprintf("%02d-%s", i+1, sanitizeID(step.ID())))
		if err := os.MkdirAll(stepDir, 0755); err != nil {
			return &EngineError{Flow: f.name, Err: fmt.Errorf("creating step directory: %w", err)}
		}

		logger.Info("Running step.", "flow", f.name, "step", step.ID(), "dir", stepDir)
		working := current.Copy()
		sc := &steps.StepContext{
			Config:     f.cfg,
			DesignRoot: f.designRoot,
			RunDir:     runDir,
			StepDir:    stepDir,
			State:      working,
		}
		if err := step.Run(ctx, sc); err != nil {
			var deliberate *steps.DeliberateError
			if errors.As(err, &deliberate) {
				return &FlowError{Flow: f.name, Step: step.ID(), Err: err}
			}
			return &EngineError{Flow: f.name, Err: fmt.Errorf("step %s: %w", step.ID(), err)}
		}
		current = working

		if err := writeCheckpoint(stepDir, current); err != nil {
			return &EngineError{Flow: f.name, Err: err}
		}
	}

	if err := writeCheckpoint(runDir, current); err != nil {
		return &EngineError{Flow: f.name, Err: err}
	}
	logger.Info("Flow finished.", "flow", f.name, "tag", tag)
	return nil
}

// resolveSteps instantiates every step in the flow's sequence up front, so
// a typo in an ad-hoc step list fails before any directory is touched.
func (f *SequentialFlow) resolveSteps() ([]steps.Step, error) {
	if len(f.stepIDs) == 0 {
		return nil, fmt.Errorf("flow has no steps")
	}
	impls := make([]steps.Step, 0, len(f.stepIDs))
	for _, id := range f.stepIDs {
		factory, ok := f.stepReg.Get(id)
		if !ok {
			return nil, fmt.Errorf("no step with id %q", id)
		}
		impls = append(impls, factory())
	}
	return impls, nil
}

// stepRange translates the from/to step identifiers into an inclusive
// index range over the flow's step sequence.
func (f *SequentialFlow) stepRange(from, to string) (int, int, error) {
	first, last := 0, len(f.stepIDs)-1
	if from != "" {
		idx := f.indexOf(from)
		if idx < 0 {
			return 0, 0, fmt.Errorf("no step with id %q to start from", from)
		}
		first = idx
	}
	if to != "" {
		idx := f.indexOf(to)
		if idx < 0 {
			return 0, 0, fmt.Errorf("no step with id %q to stop at", to)
		}
		last = idx
	}
	if first > last {
		return 0, 0, fmt.Errorf("step %q comes after %q; empty step range", from, to)
	}
	return first, last, nil
}

func (f *SequentialFlow) indexOf(id string) int {
	for i, stepID := range f.stepIDs {
		if strings.EqualFold(stepID, id) {
			return i
		}
	}
	return -1
}

// latestCheckpoint returns the most recent state recorded in a resumed run
// directory: the run-level checkpoint if present, otherwise the checkpoint
// of the highest-ordinal step directory. A run directory with no
// checkpoints yields nil.
func latestCheckpoint(runDir string) (*state.State, error) {
	candidates := []string{filepath.Join(runDir, "state_out.json")}

	dirs, err := fsutil.Subdirectories(runDir)
	if err != nil {
		return nil, fmt.Errorf("scanning run directory: %w", err)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name > dirs[j].Name })
	for _, dir := range dirs {
		candidates = append(candidates, filepath.Join(dir.Path, "state_out.json"))
	}

	for _, candidate := range candidates {
		raw, err := os.ReadFile(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading checkpoint %s: %w", candidate, err)
		}
		loaded, err := state.Loads(raw)
		if err != nil {
			return nil, fmt.Errorf("checkpoint %s: %w", candidate, err)
		}
		return loaded, nil
	}
	return nil, nil
}

// writeCheckpoint records the current state as state_out.json in dir.
func writeCheckpoint(dir string, s *state.State) error {
	raw, err := s.Dumps()
	if err != nil {
		return fmt.Errorf("serializing state: %w", err)
	}
	path := filepath.Join(dir, "state_out.json")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	return nil
}

// sanitizeID makes a step identifier safe to use as a directory name.
func sanitizeID(id string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(id)
}
