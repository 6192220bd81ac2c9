package model

import "time"

// ConflictType classifies a detected contradiction.
type ConflictType string

const (
	ConflictContradictory        ConflictType = "CONTRADICTORY"
	ConflictResourceCompetition  ConflictType = "RESOURCE_COMPETITION"
	ConflictTimeline             ConflictType = "TIMELINE"
	ConflictObjectiveUndermining ConflictType = "OBJECTIVE_UNDERMINING"
	ConflictPremiseInvalidation  ConflictType = "PREMISE_INVALIDATION"
)

// ConflictKind distinguishes which entity type a conflict pair refers to.
type ConflictKind string

const (
	KindAssumption ConflictKind = "assumption"
	KindDecision   ConflictKind = "decision"
)

// Conflict is a detector's verdict on a single pair.
//
// Confidence is the detector's self-reported certainty in [0,1]. OlderID is
// set only for PREMISE_INVALIDATION, where directionality matters: it names
// the decision whose premise may have been invalidated by the newer one.
// The pair itself is always reported in canonical (min, max) id order, so
// direction must survive canonicalization through this field.
type Conflict struct {
	Type       ConflictType `json:"conflict_type"`
	Confidence float64      `json:"confidence_score"`
	Reason     string       `json:"reason"`
	OlderID    string       `json:"older_id,omitempty"`
}

// ConflictPair is a detected conflict between two entities, with ids in
// canonical order (IDA < IDB).
type ConflictPair struct {
	IDA      string   `json:"id_a"`
	IDB      string   `json:"id_b"`
	Conflict Conflict `json:"conflict"`
}

// CanonicalPair returns the two ids sorted so (a,b) and (b,a) always map to
// the same pair. At most one stored record may exist per canonical pair.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// ConflictRecord is a persisted conflict, owned by the orchestration layer.
// Detectors produce ConflictPairs; the orchestrator canonicalizes, stamps,
// and stores them. The engine never touches these.
type ConflictRecord struct {
	ID               string       `json:"id"`
	Kind             ConflictKind `json:"kind"`
	IDA              string       `json:"id_a"`
	IDB              string       `json:"id_b"`
	Type             ConflictType `json:"conflict_type"`
	Confidence       float64      `json:"confidence_score"`
	Reason           string       `json:"reason"`
	OlderID          string       `json:"older_id,omitempty"`
	RunToken         string       `json:"run_token"`
	DetectedAt       time.Time    `json:"detected_at"`
	ResolvedAt       *time.Time   `json:"resolved_at,omitempty"`
	ResolutionAction string       `json:"resolution_action,omitempty"`
}
