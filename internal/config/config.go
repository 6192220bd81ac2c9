// Package config loads evaluation engine tuning from CUE files.
//
// The numeric weights behind health evaluation are deployment policy, not
// engine logic, so they are configuration: an embedded CUE schema supplies
// defaults and bounds, and a deployment may override any subset of values.
// Config loading fails fast; evaluation never sees an invalid config.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// Config holds the engine's tuning values.
//
// Qualitative ordering is enforced by Validate: an immutable constraint
// violation must outweigh a broken assumption, which must outweigh
// staleness, which must outweigh a shaky assumption.
type Config struct {
	Penalties   Penalties   `json:"penalties"`
	Decay       Decay       `json:"decay"`
	Propagation Propagation `json:"propagation"`
	Thresholds  Thresholds  `json:"thresholds"`
}

// Penalties are the per-signal health adjustments.
type Penalties struct {
	BrokenAssumption   int `json:"broken_assumption"`
	ShakyAssumption    int `json:"shaky_assumption"`
	ValidRecovery      int `json:"valid_recovery"`
	ValidRecoveryCap   int `json:"valid_recovery_cap"`
	ImmutableViolation int `json:"immutable_violation"`
	MutableViolation   int `json:"mutable_violation"`
}

// DecayBand subtracts Penalty once a decision has gone unreviewed for more
// than AfterDays. Bands do not stack; the deepest matching band applies.
type DecayBand struct {
	AfterDays int `json:"after_days"`
	Penalty   int `json:"penalty"`
}

// Decay configures review staleness and expiry handling.
type Decay struct {
	Bands           []DecayBand `json:"bands"`
	ExpiryPenalty   int         `json:"expiry_penalty"`
	ExpiryGraceDays int         `json:"expiry_grace_days"`
}

// Propagation configures how upstream dependency health pulls a decision
// down. Mode selects min or mean upstream health; Damping scales the pull.
type Propagation struct {
	Mode    string  `json:"mode"`
	Damping float64 `json:"damping"`
}

// Thresholds are the lifecycle band boundaries: health >= Stable is STABLE,
// health >= Review is UNDER_REVIEW, anything below is AT_RISK.
type Thresholds struct {
	Stable int `json:"stable"`
	Review int `json:"review"`
}

// Default returns the built-in tuning, identical to the schema defaults.
func Default() Config {
	return Config{
		Penalties: Penalties{
			BrokenAssumption:   30,
			ShakyAssumption:    12,
			ValidRecovery:      2,
			ValidRecoveryCap:   6,
			ImmutableViolation: 40,
			MutableViolation:   18,
		},
		Decay: Decay{
			Bands: []DecayBand{
				{AfterDays: 30, Penalty: 5},
				{AfterDays: 60, Penalty: 12},
				{AfterDays: 90, Penalty: 20},
			},
			ExpiryPenalty:   30,
			ExpiryGraceDays: 14,
		},
		Propagation: Propagation{Mode: "min", Damping: 0.5},
		Thresholds:  Thresholds{Stable: 70, Review: 40},
	}
}

// Load reads a CUE config file, unifies it with the embedded schema, and
// decodes the result. Missing fields take schema defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse unifies raw CUE bytes with the embedded schema and decodes them.
func Parse(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile embedded schema: %w", err)
	}

	overlay := ctx.CompileBytes(data, cue.Filename(filename))
	if err := overlay.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config %s: %w", filename, err)
	}

	unified := schema.Unify(overlay)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fmt.Errorf("validate config %s: %w", filename, err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", filename, err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints the schema cannot express.
func (c Config) Validate() error {
	if c.Thresholds.Review >= c.Thresholds.Stable {
		return fmt.Errorf("thresholds: review (%d) must be below stable (%d)",
			c.Thresholds.Review, c.Thresholds.Stable)
	}
	if c.Penalties.ImmutableViolation <= c.Penalties.BrokenAssumption {
		return fmt.Errorf("penalties: immutable_violation (%d) must exceed broken_assumption (%d)",
			c.Penalties.ImmutableViolation, c.Penalties.BrokenAssumption)
	}
	if c.Penalties.BrokenAssumption <= c.Penalties.ShakyAssumption {
		return fmt.Errorf("penalties: broken_assumption (%d) must exceed shaky_assumption (%d)",
			c.Penalties.BrokenAssumption, c.Penalties.ShakyAssumption)
	}
	maxBand := 0
	lastAfter := 0
	for i, b := range c.Decay.Bands {
		if b.AfterDays <= lastAfter {
			return fmt.Errorf("decay: bands must have strictly increasing after_days (band %d)", i)
		}
		lastAfter = b.AfterDays
		if b.Penalty > maxBand {
			maxBand = b.Penalty
		}
	}
	if maxBand >= c.Penalties.BrokenAssumption {
		return fmt.Errorf("decay: deepest staleness band (%d) must stay below broken_assumption (%d)",
			maxBand, c.Penalties.BrokenAssumption)
	}
	if c.Propagation.Mode != "min" && c.Propagation.Mode != "mean" {
		return fmt.Errorf("propagation: unknown mode %q", c.Propagation.Mode)
	}
	if c.Propagation.Damping < 0 || c.Propagation.Damping > 1 {
		return fmt.Errorf("propagation: damping %v outside [0,1]", c.Propagation.Damping)
	}
	return nil
}
