// Package flows defines the flow abstraction, the registry of builtin
// flows, and the sequential flow engine.
//
// A flow is a named, multi-step pipeline bound to a resolved configuration
// and a design root. Starting a flow creates or resumes a run directory
// under <design_root>/runs/<tag> and advances through its steps in order,
// checkpointing the pipeline state after each one.
package flows
