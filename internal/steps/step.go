package steps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/chipflow/internal/config"
	"github.com/vk/chipflow/internal/state"
)

// StepContext carries everything a step needs to run: the resolved
// configuration, the directory layout of the current run, and the working
// state the step is expected to mutate.
type StepContext struct {
	Config     *config.Config
	DesignRoot string
	RunDir     string
	StepDir    string
	State      *state.State
}

// Step is one unit of work within a flow.
type Step interface {
	// ID returns the step's stable identifier, e.g. "source.checksum".
	ID() string
	// Run performs the step's work. Mutating sc.State records outputs for
	// subsequent steps.
	Run(ctx context.Context, sc *StepContext) error
}

// DeliberateError reports an anticipated step failure, such as a design
// check that did not pass. The flow engine translates it into an expected
// pipeline failure rather than an internal error.
type DeliberateError struct {
	Msg string
}

// Error implements the error interface for DeliberateError.
func (e *DeliberateError) Error() string { return e.Msg }

// Deliberatef builds a DeliberateError with a formatted message.
func Deliberatef(format string, args ...any) *DeliberateError {
	return &DeliberateError{Msg: fmt.Sprintf(format, args...)}
}

// Factory constructs a fresh step instance.
type Factory func() Step

// Registry maps step identifiers to factories. Lookup is case-insensitive;
// registration preserves the canonical spelling for listings.
type Registry struct {
	factories map[string]Factory
	canonical map[string]string
}

// NewRegistry creates an empty step registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		canonical: make(map[string]string),
	}
}

// Register adds a step factory under the given identifier. Registering the
// same identifier twice is a programmer error and panics.
func (r *Registry) Register(id string, f Factory) {
	key := strings.ToLower(id)
	if _, exists := r.factories[key]; exists {
		panic(fmt.Sprintf("steps: duplicate registration of %q", id))
	}
	r.factories[key] = f
	r.canonical[key] = id
}

// Get returns the factory registered under id, matched case-insensitively.
func (r *Registry) Get(id string) (Factory, bool) {
	f, ok := r.factories[strings.ToLower(id)]
	return f, ok
}

// List returns the canonical identifiers of all registered steps, sorted.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.canonical))
	for _, id := range r.canonical {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Builtin returns a registry populated with the builtin steps.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("source.load", func() Step { return &SourceLoad{} })
	r.Register("source.checksum", func() Step { return &SourceChecksum{} })
	r.Register("report.summary", func() Step { return &ReportSummary{} })
	r.Register("report.archive", func() Step { return &ReportArchive{} })
	return r
}
