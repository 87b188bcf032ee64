package flows

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/chipflow/internal/config"
	"github.com/vk/chipflow/internal/state"
	"github.com/vk/chipflow/internal/steps"
)

// StartOptions carries the per-invocation inputs of a flow's Start call.
// The zero value requests a fresh run over every step with no seed state.
type StartOptions struct {
	// Tag identifies the run directory to create or resume. Empty means
	// the engine assigns a fresh tag.
	Tag string
	// From and To bound the step range by step identifier, inclusive.
	From string
	To   string
	// InitialState seeds the pipeline, bypassing the engine's own
	// resume-from-latest-checkpoint behavior.
	InitialState *state.State
}

// Flow is a runnable pipeline bound to a configuration and design root.
type Flow interface {
	Start(ctx context.Context, opts StartOptions) error
}

// Factory constructs a flow instance bound to the given resolved
// configuration and design root directory.
type Factory func(cfg *config.Config, designRoot string) Flow

// Registry maps flow names to factories. Lookup is case-insensitive;
// registration preserves the canonical spelling for listings.
type Registry struct {
	factories map[string]Factory
	canonical map[string]string
}

// NewRegistry creates an empty flow registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		canonical: make(map[string]string),
	}
}

// Register adds a flow factory under the given name. Registering the same
// name twice is a programmer error and panics.
func (r *Registry) Register(name string, f Factory) {
	key := strings.ToLower(name)
	if _, exists := r.factories[key]; exists {
		panic(fmt.Sprintf("flows: duplicate registration of %q", name))
	}
	r.factories[key] = f
	r.canonical[key] = name
}

// Get returns the factory registered under name, matched
// case-insensitively.
func (r *Registry) Get(name string) (Factory, bool) {
	f, ok := r.factories[strings.ToLower(name)]
	return f, ok
}

// List returns the canonical names of all registered flows, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.canonical))
	for _, name := range r.canonical {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a registry populated with the builtin flows, all backed
// by the given step registry.
func Builtin(stepReg *steps.Registry) *Registry {
	r := NewRegistry()
	r.Register("Classic", Sequential("Classic", ClassicSteps, stepReg))
	return r
}
