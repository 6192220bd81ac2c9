// Package conflict implements the two conflict detectors: assumption vs
// assumption and decision vs decision.
//
// Both detectors are pure functions over fully-materialized inputs. They
// share one category comparison table so the two subsystems cannot drift in
// scoring semantics, and both fall back to text heuristics when structured
// matching finds nothing. Detection is order-independent and idempotent:
// inputs are sorted by id before pairing, pairs are reported in canonical
// (min, max) id order, and no randomness enters scoring. Nothing below the
// 0.65 confidence floor is ever returned.
//
// The detectors never write to storage. Callers persisting results must
// keep the canonical pair order and perform an existence check before
// insert so repeated runs cannot create duplicate logical conflicts.
package conflict
