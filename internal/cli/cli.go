package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Exit codes of the chipflow binary. Expected pipeline failures are kept
// distinguishable from every other failure mode: they indicate a design or
// input problem rather than a tooling defect.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitPipelineFailure = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Options is the validated set of command-line inputs. It is constructed
// once per invocation and never mutated afterward.
type Options struct {
	PDK              string
	SCL              string
	FlowName         string
	PDKRoot          string
	RunTag           string
	LastRun          bool
	From             string
	To               string
	InitialStatePath string
	Overrides        []string // raw KEY=VALUE strings, in flag order
	ConfigFile       string

	LogFormat string
	LogLevel  string
}

// Parse processes command-line arguments. It returns a populated Options,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	var opts Options

	flagSet := pflag.NewFlagSet("chipflow", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.SortFlags = false

	flagSet.Usage = func() {
		fmt.Fprint(output, `
chipflow - launch a design flow against a design configuration.

Usage:
  chipflow [options] CONFIG_FILE

Arguments:
  CONFIG_FILE
    Path to the design configuration (.json/.jsonc, .yaml/.yml or .hcl).

Options:
`)
		fmt.Fprintln(output, flagSet.FlagUsages())
	}

	flagSet.StringVarP(&opts.PDK, "pdk", "p", "sky130A", "The process design kit to use.")
	flagSet.StringVarP(&opts.SCL, "scl", "s", "", "The standard cell library to use. Varies by PDK if unset.")
	flagSet.StringVarP(&opts.FlowName, "flow", "f", "", "The built-in flow to use.")
	flagSet.StringVar(&opts.PDKRoot, "pdk-root", "", "Override the PDK root folder.")
	flagSet.StringVar(&opts.RunTag, "run-tag", "", "A name for this particular run. Mutually exclusive with --last-run.")
	flagSet.BoolVar(&opts.LastRun, "last-run", false, "Resume the most recent run. Mutually exclusive with --run-tag.")
	flagSet.StringVarP(&opts.From, "from", "F", "", "Start from the step with this id. Supported by sequential flows.")
	flagSet.StringVarP(&opts.To, "to", "T", "", "Stop at the step with this id. Supported by sequential flows.")
	flagSet.StringVarP(&opts.InitialStatePath, "with-initial-state", "I", "", "Use this state file as the initial state.")
	flagSet.StringArrayVarP(&opts.Overrides, "override-config", "c", nil, "Override a configuration variable for this run only, in KEY=VALUE form. Values must be valid JSON literals. Repeatable.")
	flagSet.StringVar(&opts.LogFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flagSet.StringVar(&opts.LogLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitFailure, Message: err.Error()}
	}

	// Everything below is pure validation; the first file system access
	// only ever happens after a fully valid option model exists.
	var violations []string

	switch flagSet.NArg() {
	case 0:
		flagSet.Usage()
		violations = append(violations, "missing required argument: CONFIG_FILE")
	case 1:
		opts.ConfigFile = flagSet.Arg(0)
	default:
		violations = append(violations, fmt.Sprintf("expected exactly one CONFIG_FILE argument, got %d", flagSet.NArg()))
	}

	if opts.RunTag != "" && opts.LastRun {
		violations = append(violations, "--run-tag and --last-run are mutually exclusive")
	}

	opts.LogFormat = strings.ToLower(opts.LogFormat)
	if opts.LogFormat != "text" && opts.LogFormat != "json" {
		violations = append(violations, "invalid log-format: must be 'text' or 'json'")
	}

	opts.LogLevel = strings.ToLower(opts.LogLevel)
	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		violations = append(violations, "invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	if len(violations) > 0 {
		return nil, false, &ExitError{Code: ExitFailure, Message: strings.Join(violations, "\n")}
	}

	return &opts, false, nil
}
