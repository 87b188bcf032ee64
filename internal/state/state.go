// Package state defines the serialized pipeline state passed between steps.
//
// A state is a flat mapping from design-format identifiers (e.g. "nl",
// "def", "gds") to artifact paths, plus a nested "metrics" object holding
// arbitrary scalar measurements. The JSON layout mirrors the on-disk
// `state_out.json` files written into each step directory.
package state

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// State is one snapshot of a flow's progress. Files maps design-format
// identifiers to artifact paths; a nil entry means the format has not been
// produced yet. Metrics holds measurements accumulated by steps.
type State struct {
	Files   map[string]*string
	Metrics map[string]any
}

// ParseError describes a state file whose content could not be decoded.
type ParseError struct {
	Reason string
	Err    error
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid state: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid state: %s", e.Reason)
}

// Unwrap returns the underlying decode error, if any.
func (e *ParseError) Unwrap() error { return e.Err }

// New returns an empty state with both maps allocated.
func New() *State {
	return &State{
		Files:   map[string]*string{},
		Metrics: map[string]any{},
	}
}

// Loads deserializes a state from its JSON representation. All top-level
// keys except "metrics" are treated as design-format entries and must be
// strings or null; "metrics" must be an object.
func Loads(raw []byte) (*State, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ParseError{Reason: "not a JSON object", Err: err}
	}

	s := New()
	for key, val := range doc {
		if key == "metrics" {
			if err := json.Unmarshal(val, &s.Metrics); err != nil {
				return nil, &ParseError{Reason: "'metrics' is not an object", Err: err}
			}
			continue
		}
		var path *string
		if err := json.Unmarshal(val, &path); err != nil {
			return nil, &ParseError{
				Reason: fmt.Sprintf("value for %q is neither a string nor null", key),
				Err:    err,
			}
		}
		s.Files[key] = path
	}
	return s, nil
}

// Dumps serializes the state to indented JSON with deterministic key order.
func (s *State) Dumps() ([]byte, error) {
	doc := map[string]any{}
	for key, val := range s.Files {
		doc[key] = val
	}
	doc["metrics"] = s.Metrics
	return json.MarshalIndent(doc, "", "    ")
}

// Equal reports whether two states carry the same files and metrics.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Files) != len(other.Files) {
		return false
	}
	for key, val := range s.Files {
		otherVal, ok := other.Files[key]
		if !ok {
			return false
		}
		if (val == nil) != (otherVal == nil) {
			return false
		}
		if val != nil && *val != *otherVal {
			return false
		}
	}
	return reflect.DeepEqual(s.Metrics, other.Metrics)
}

// Copy returns a deep copy of the state. Steps receive a copy so that a
// failing step cannot corrupt the snapshot recorded for its predecessor.
func (s *State) Copy() *State {
	out := New()
	for key, val := range s.Files {
		if val == nil {
			out.Files[key] = nil
			continue
		}
		path := *val
		out.Files[key] = &path
	}
	for key, val := range s.Metrics {
		out.Metrics[key] = val
	}
	return out
}

// FormatKeys returns the design-format identifiers present in the state,
// sorted for stable logging.
func (s *State) FormatKeys() []string {
	keys := make([]string, 0, len(s.Files))
	for key := range s.Files {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
