// Package model defines the domain records shared by the evaluation engine,
// the conflict detectors, and the orchestration layer.
//
// All types here are plain data. They carry no behavior beyond parsing,
// normalization, and small accessors, so the engine and detectors can stay
// pure functions over fully-materialized inputs.
package model
