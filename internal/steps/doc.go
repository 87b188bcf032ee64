// Package steps defines the unit of work executed by a flow, the registry
// mapping step identifiers to implementations, and the builtin steps.
//
// A step receives the resolved configuration and the pipeline state left by
// its predecessor, performs its work inside a dedicated step directory, and
// mutates the state to record its outputs. Steps distinguish deliberate
// failures (a check that did not pass) from internal errors so the flow
// engine can classify them.
package steps
