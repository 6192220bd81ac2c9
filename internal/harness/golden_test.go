package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioGoldenTraces runs every scenario under testdata/scenarios and
// pins the full evaluation trace against its golden file.
func TestScenarioGoldenTraces(t *testing.T) {
	scenarios, err := LoadScenarioDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			res, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, res.Pass, "expectation errors: %v", res.Errors)
		})
	}
}
