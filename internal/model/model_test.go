package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLifecycle(t *testing.T) {
	for _, in := range []string{"STABLE", "stable", " Stable "} {
		lc, err := ParseLifecycle(in)
		require.NoError(t, err)
		assert.Equal(t, LifecycleStable, lc)
	}

	_, err := ParseLifecycle("ARCHIVED")
	assert.ErrorContains(t, err, "ARCHIVED")
}

func TestLifecycleTerminal(t *testing.T) {
	assert.True(t, LifecycleInvalidated.Terminal())
	assert.True(t, LifecycleRetired.Terminal())
	assert.False(t, LifecycleStable.Terminal())
	assert.False(t, LifecycleUnderReview.Terminal())
	assert.False(t, LifecycleAtRisk.Terminal())
}

func TestParseAssumptionStatus(t *testing.T) {
	cases := map[string]AssumptionStatus{
		"VALID":    AssumptionValid,
		"shaky":    AssumptionShaky,
		"Broken":   AssumptionBroken,
		"HOLDING":  AssumptionValid,
		"UNKNOWN":  AssumptionValid,
		"whatever": AssumptionValid,
		"":         AssumptionValid,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseAssumptionStatus(in), "status %q", in)
	}
}

func TestParametersString(t *testing.T) {
	p := Parameters{"region": "us-east", "count": 3}
	assert.Equal(t, "us-east", p.String("region"))
	assert.Equal(t, "", p.String("count"))
	assert.Equal(t, "", p.String("missing"))
	assert.Equal(t, "", Parameters(nil).String("region"))
}

func TestParametersNumber(t *testing.T) {
	p := Parameters{"f": 1.5, "i": 7, "s": "42", "bad": "seven", "list": []string{"x"}}

	f, ok := p.Number("f")
	require.True(t, ok)
	assert.Equal(t, 1.5, f)

	i, ok := p.Number("i")
	require.True(t, ok)
	assert.Equal(t, 7.0, i)

	// Numeric strings round-trip through JSON and YAML loaders.
	s, ok := p.Number("s")
	require.True(t, ok)
	assert.Equal(t, 42.0, s)

	_, ok = p.Number("bad")
	assert.False(t, ok)
	_, ok = p.Number("list")
	assert.False(t, ok)
	_, ok = p.Number("missing")
	assert.False(t, ok)
}

func TestParametersStringList(t *testing.T) {
	p := Parameters{
		"strings": []string{"a", "b"},
		"anys":    []any{"c", 7, "d"},
		"scalar":  "solo",
	}
	assert.Equal(t, []string{"a", "b"}, p.StringList("strings"))
	assert.Equal(t, []string{"c", "d"}, p.StringList("anys"))
	assert.Equal(t, []string{"solo"}, p.StringList("scalar"))
	assert.Nil(t, p.StringList("missing"))
}

func TestParametersHas(t *testing.T) {
	p := Parameters{"set": "x", "empty": "", "zero": 0, "nil": nil}
	assert.True(t, p.Has("set"))
	assert.False(t, p.Has("empty"))
	assert.True(t, p.Has("zero"))
	assert.False(t, p.Has("nil"))
	assert.False(t, p.Has("missing"))
}

func TestCanonicalPair(t *testing.T) {
	a, b := CanonicalPair("dec-b", "dec-a")
	assert.Equal(t, "dec-a", a)
	assert.Equal(t, "dec-b", b)

	a, b = CanonicalPair("dec-a", "dec-b")
	assert.Equal(t, "dec-a", a)
	assert.Equal(t, "dec-b", b)
}
