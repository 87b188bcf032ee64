package flows

import "fmt"

// UnknownFlowError reports a flow name with no registry entry.
type UnknownFlowError struct {
	Name string
}

// Error implements the error interface for UnknownFlowError.
func (e *UnknownFlowError) Error() string {
	return fmt.Sprintf("unknown flow %q", e.Name)
}

// FlowError reports an anticipated pipeline failure: a step's work or its
// checks failed in a way the engine knows how to describe. It signals a
// design or input problem rather than a tooling defect.
type FlowError struct {
	Flow string
	Step string
	Err  error
}

// Error implements the error interface for FlowError.
func (e *FlowError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s: step %s: %v", e.Flow, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Flow, e.Err)
}

// Unwrap returns the underlying step failure.
func (e *FlowError) Unwrap() error { return e.Err }

// EngineError reports an unexpected internal failure of the flow engine,
// anything from unusable run directories to a step implementation
// misbehaving. It signals a tooling defect rather than a design problem.
type EngineError struct {
	Flow string
	Err  error
}

// Error implements the error interface for EngineError.
func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Flow, e.Err)
}

// Unwrap returns the underlying failure.
func (e *EngineError) Unwrap() error { return e.Err }
