// Package app wires the application together and drives one invocation
// end to end: configuration resolution, flow resolution, initial-state
// loading, run-tag resolution, and finally dispatching the flow.
//
// The progression is strictly linear with no retries; the first failure at
// any stage is translated into a terminal ExitError and the process ends.
package app
