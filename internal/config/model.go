package config

import (
	"context"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Config is a resolved, merged design configuration. It is produced once
// per invocation by a Builder and never mutated afterward.
type Config struct {
	// Values holds every configuration variable keyed by name, in the
	// builder's unified value representation.
	Values map[string]cty.Value

	// Meta carries the configuration's own metadata block, most notably
	// the flow declaration used when no flow is named on the command line.
	Meta Meta
}

// Meta is the decoded "meta" object of a design configuration.
type Meta struct {
	Version int
	Flow    FlowSpec
}

// FlowSpec is a flow declaration: either the name of a registered flow or
// an ordered list of step identifiers describing an ad-hoc sequential flow.
// At most one of the two fields is set.
type FlowSpec struct {
	Name  string
	Steps []string
}

// IsSteps reports whether the declaration is a step-id list.
func (f FlowSpec) IsSteps() bool { return len(f.Steps) > 0 }

// IsZero reports whether no flow was declared at all.
func (f FlowSpec) IsZero() bool { return f.Name == "" && len(f.Steps) == 0 }

// LoadOptions carries the per-invocation inputs a Builder merges on top of
// the design configuration file.
type LoadOptions struct {
	PDK       string
	SCL       string
	PDKRoot   string
	Overrides []string // raw KEY=VALUE strings, applied in order
}

// Builder loads a design configuration file, merges process inputs and
// overrides into it, and infers the design root directory. Non-fatal
// warnings are returned alongside the config so the caller can surface
// them; fatal problems come back as an *InvalidConfigError aggregating
// every individual failure.
type Builder interface {
	Load(ctx context.Context, file string, opts LoadOptions) (cfg *Config, designRoot string, warnings []string, err error)
}

// String returns the string value of a variable, with ok reporting whether
// the variable exists and is a string.
func (c *Config) String(key string) (string, bool) {
	val, exists := c.Values[key]
	if !exists || val.IsNull() || val.Type() != cty.String {
		return "", false
	}
	return val.AsString(), true
}

// StringList returns the value of a variable as a list of strings. A bare
// string value is returned as a single-element list.
func (c *Config) StringList(key string) ([]string, bool) {
	val, exists := c.Values[key]
	if !exists || val.IsNull() {
		return nil, false
	}
	if val.Type() == cty.String {
		return []string{val.AsString()}, true
	}
	if !val.CanIterateElements() {
		return nil, false
	}
	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.IsNull() || elem.Type() != cty.String {
			return nil, false
		}
		out = append(out, elem.AsString())
	}
	return out, true
}

// Keys returns all variable names in sorted order, for stable logging.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.Values))
	for key := range c.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
