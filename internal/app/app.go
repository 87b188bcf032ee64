package app

import (
	"io"
	"log/slog"

	"github.com/vk/chipflow/internal/builder"
	"github.com/vk/chipflow/internal/cli"
	"github.com/vk/chipflow/internal/config"
	"github.com/vk/chipflow/internal/flows"
	"github.com/vk/chipflow/internal/steps"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle. Progress logging goes to outW; diagnostics and warnings go to
// errW, keeping the two streams separable.
type App struct {
	outW    io.Writer
	errW    io.Writer
	logger  *slog.Logger
	builder config.Builder
	stepReg *steps.Registry
	flowReg *flows.Registry
}

// New is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and the builtin
// step and flow registries.
func New(outW, errW io.Writer, opts *cli.Options) *App {
	logger := newLogger(opts.LogLevel, opts.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	stepReg := steps.Builtin()
	flowReg := flows.Builtin(stepReg)
	logger.Debug("Registries populated.", "flows", flowReg.List(), "steps", stepReg.List())

	return &App{
		outW:    outW,
		errW:    errW,
		logger:  logger,
		builder: builder.New(),
		stepReg: stepReg,
		flowReg: flowReg,
	}
}

// Flows returns the application's flow registry. This is primarily for
// testing, where stub flows are registered alongside the builtins.
func (a *App) Flows() *flows.Registry {
	return a.flowReg
}
