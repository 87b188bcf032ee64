// Package runs resolves the run tag a flow should execute under.
//
// The scan behind --last-run is a point-in-time snapshot of the runs/
// directory with no locking; a concurrent invocation creating a run while
// the scan is in progress can race it. That is an accepted limitation of
// this layer, matching the engine's own advisory handling of run
// directories.
package runs
