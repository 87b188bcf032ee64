package builder

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// OverrideSyntaxError reports an override string without a KEY=VALUE shape.
type OverrideSyntaxError struct {
	Raw string
}

// Error implements the error interface for OverrideSyntaxError.
func (e *OverrideSyntaxError) Error() string {
	return fmt.Sprintf("override %q is not in KEY=VALUE form", e.Raw)
}

// OverrideKeyError reports an override whose key is not a valid
// configuration variable name.
type OverrideKeyError struct {
	Key string
}

// Error implements the error interface for OverrideKeyError.
func (e *OverrideKeyError) Error() string {
	return fmt.Sprintf("override key %q is not a valid configuration variable name", e.Key)
}

// OverrideValueError reports an override whose value is not a valid JSON
// literal. It is deliberately distinct from OverrideKeyError so the two
// failure modes stay tellable apart in diagnostics.
type OverrideValueError struct {
	Key string
	Err error
}

// Error implements the error interface for OverrideValueError.
func (e *OverrideValueError) Error() string {
	return fmt.Sprintf("override value for %q is not a valid JSON literal: %v", e.Key, e.Err)
}

// Unwrap returns the underlying literal parse error.
func (e *OverrideValueError) Unwrap() error { return e.Err }

// parseOverride splits a KEY=VALUE override and parses VALUE as a JSON
// literal (numbers, strings, booleans, arrays, objects, null).
func parseOverride(raw string) (string, cty.Value, error) {
	key, rawVal, found := strings.Cut(raw, "=")
	if !found {
		return "", cty.NilVal, &OverrideSyntaxError{Raw: raw}
	}
	if !variableNamePattern.MatchString(key) {
		return "", cty.NilVal, &OverrideKeyError{Key: key}
	}
	val, err := jsonLiteral([]byte(rawVal))
	if err != nil {
		return "", cty.NilVal, &OverrideValueError{Key: key, Err: err}
	}
	return key, val, nil
}
