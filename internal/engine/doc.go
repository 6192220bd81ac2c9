// Package engine implements the decision evaluation engine.
//
// Evaluate is a pure function: identical input always yields identical
// output. The engine reads no ambient time (the caller supplies the
// timestamp in Input), performs no I/O, and holds no shared mutable state,
// so independent decisions may be evaluated concurrently by callers.
//
// Health evaluation applies, in order: assumption penalties, constraint
// penalties, dependency propagation, and time decay, clamping the signal to
// [0,100] after every adjustment. The resulting signal drives the lifecycle
// state machine. INVALIDATED and RETIRED are terminal: evaluating a
// terminal decision always succeeds and reports no change.
package engine
