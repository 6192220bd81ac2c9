// Package harness runs YAML-defined evaluation scenarios against the real
// engine and compares results, including full factor traces, against golden
// files.
//
// A scenario materializes one engine input: the decision under evaluation,
// its assumptions, constraints, dependency snapshots, and the timestamp to
// evaluate at. Because the engine is pure, scenarios need no database and no
// clock; the whole run is a single function call, which keeps golden traces
// byte-stable.
package harness
