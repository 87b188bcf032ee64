package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vk/chipflow/internal/cli"
	"github.com/vk/chipflow/internal/config"
	"github.com/vk/chipflow/internal/ctxlog"
	"github.com/vk/chipflow/internal/flows"
	"github.com/vk/chipflow/internal/runs"
	"github.com/vk/chipflow/internal/state"
)

// Run executes one invocation end to end. Every failure is translated into
// a *cli.ExitError carrying the process outcome; there is no retrying and
// no partial continuation past a failed stage.
func (a *App) Run(ctx context.Context, opts *cli.Options) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	cfg, designRoot, warnings, err := a.builder.Load(ctx, opts.ConfigFile, config.LoadOptions{
		PDK:       opts.PDK,
		SCL:       opts.SCL,
		PDKRoot:   opts.PDKRoot,
		Overrides: opts.Overrides,
	})
	if err != nil {
		return a.configFailure(opts.ConfigFile, err)
	}
	for _, warning := range warnings {
		fmt.Fprintf(a.errW, "warning: %s\n", warning)
	}
	a.logger.Debug("Configuration resolved.", "design_root", designRoot)

	factory, err := flows.Resolve(a.flowReg, a.stepReg, opts.FlowName, cfg.Meta.Flow)
	if err != nil {
		var unknown *flows.UnknownFlowError
		if errors.As(err, &unknown) {
			return &cli.ExitError{
				Code:    cli.ExitFailure,
				Message: fmt.Sprintf("unknown flow %q; available flows: %v", unknown.Name, a.flowReg.List()),
			}
		}
		return &cli.ExitError{Code: cli.ExitFailure, Message: err.Error()}
	}
	a.logger.Debug("Flow resolved.")

	seed, err := a.loadInitialState(opts.InitialStatePath)
	if err != nil {
		return &cli.ExitError{Code: cli.ExitFailure, Message: err.Error()}
	}

	tag, err := runs.Resolve(designRoot, opts.RunTag, opts.LastRun)
	if err != nil {
		if errors.Is(err, runs.ErrNoRunsFound) {
			return &cli.ExitError{Code: cli.ExitFailure, Message: "--last-run specified, but no runs found"}
		}
		return &cli.ExitError{Code: cli.ExitFailure, Message: err.Error()}
	}
	a.logger.Debug("Run tag resolved.", "tag", tag)

	flow := factory(cfg, designRoot)
	if err := flow.Start(ctx, flows.StartOptions{
		Tag:          tag,
		From:         opts.From,
		To:           opts.To,
		InitialState: seed,
	}); err != nil {
		var flowErr *flows.FlowError
		if errors.As(err, &flowErr) {
			return &cli.ExitError{
				Code:    cli.ExitPipelineFailure,
				Message: fmt.Sprintf("the following error was encountered while running the flow: %v", err),
			}
		}
		return &cli.ExitError{
			Code:    cli.ExitFailure,
			Message: fmt.Sprintf("the flow has encountered an unexpected error: %v", err),
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// configFailure prints every configuration error and warning to the
// diagnostic stream and returns the terminal ExitError.
func (a *App) configFailure(file string, err error) error {
	var invalid *config.InvalidConfigError
	if !errors.As(err, &invalid) {
		return &cli.ExitError{Code: cli.ExitFailure, Message: err.Error()}
	}

	fmt.Fprintf(a.errW, "errors have occurred while loading %s:\n", invalid.Config)
	for _, loadErr := range invalid.Errors {
		fmt.Fprintf(a.errW, "  - %s\n", loadErr)
	}
	if len(invalid.Warnings) > 0 {
		fmt.Fprintln(a.errW, "the following warnings were also generated:")
		for _, warning := range invalid.Warnings {
			fmt.Fprintf(a.errW, "  - %s\n", warning)
		}
	}
	return &cli.ExitError{
		Code:    cli.ExitFailure,
		Message: fmt.Sprintf("configuration %s is invalid; please check the diagnostics above", file),
	}
}

// loadInitialState reads and deserializes the seed state, if one was
// requested. No default path is searched here; with no seed the engine
// falls back to its own resumption behavior.
func (a *App) loadInitialState(path string) (*state.State, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading initial state: %w", err)
	}
	seed, err := state.Loads(raw)
	if err != nil {
		return nil, fmt.Errorf("initial state %s: %w", path, err)
	}
	a.logger.Debug("Initial state loaded.", "path", path, "formats", seed.FormatKeys())
	return seed, nil
}
