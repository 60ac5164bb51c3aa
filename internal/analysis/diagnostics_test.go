package analysis

import (
	"testing"

	"croptrends/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnose(t *testing.T) {
	observations := testkit.LinearObservations("A", "wheat", 2000, 2.0, 0.5, 5)
	groups := PartitionGroups(observations)

	diagnostics := Diagnose(groups)
	require.Len(t, diagnostics, 1)

	d := diagnostics[0]
	assert.Equal(t, 5, d.N)
	assert.Equal(t, 2000, d.FirstYear)
	assert.Equal(t, 2004, d.LastYear)
	assert.InDelta(t, 3.0, d.MeanYield, 1e-9) // 2.0, 2.5, 3.0, 3.5, 4.0
	assert.Equal(t, 2.0, d.MinYield)
	assert.Equal(t, 4.0, d.MaxYield)
}
