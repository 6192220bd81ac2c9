// Package orchestrator coordinates the stateful workflows around the pure
// evaluation engine and conflict detectors: fetching inputs from the store,
// persisting results, stamping detection runs, and realizing per-organization
// simulated time.
package orchestrator
