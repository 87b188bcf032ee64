package config

import (
	"fmt"
	"strings"
)

// InvalidConfigError reports that a design configuration failed to load or
// merge. It aggregates every individual validation error plus any warnings
// generated along the way; callers are expected to surface all of them, not
// just the first.
type InvalidConfigError struct {
	Config   string // path of the offending configuration file
	Errors   []error
	Warnings []string
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid configuration %s: %d error(s)", e.Config, len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}
