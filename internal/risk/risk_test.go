package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelinedata/ili-lineage/internal/config"
)

func TestForecast_EmptyInput(t *testing.T) {
	res := Forecast(Input{}, config.Default().Risk)
	assert.Empty(t, res.PositionsFt)
}

func TestForecast_ScoresAreClippedToUnitRange(t *testing.T) {
	in := Input{
		PositionsFt:     []float64{100, 110, 120, 500, 1000},
		GrowthRatePct:   []float64{5, 6, 4, 1, 0.5},
		CurrentDepthPct: []float64{60, 65, 55, 20, 10},
	}
	res := Forecast(in, config.Default().Risk)
	require.NotEmpty(t, res.CompositeRiskScore)
	for _, s := range res.CompositeRiskScore {
		assert.LessOrEqual(t, s, 1.0)
		assert.GreaterOrEqual(t, s, 0.0)
	}
}

func TestForecast_EmergenceDensityPeaksNearDenseCluster(t *testing.T) {
	in := Input{
		PositionsFt:     []float64{100, 101, 102, 103, 5000},
		GrowthRatePct:   []float64{1, 1, 1, 1, 1},
		CurrentDepthPct: []float64{10, 10, 10, 10, 10},
	}
	cfg := config.Default().Risk
	cfg.GridStepFt = 50
	res := Forecast(in, cfg)

	var peakIdx int
	peak := -1.0
	for i, d := range res.EmergenceDensity {
		if d > peak {
			peak = d
			peakIdx = i
		}
	}
	assert.InDelta(t, 100.0, res.PositionsFt[peakIdx], 50)
}

func TestCriticalCount_ProjectsForwardByGrowthRate(t *testing.T) {
	depth := []float64{70, 40, 79}
	growth := []float64{2, 0, 1}
	// anomaly 0: 70 + 2*5 = 80 >= 80 critical; anomaly 1: flat, never critical;
	// anomaly 2: 79 + 1*5 = 84 >= 80 critical.
	count := criticalCount(depth, growth, 5, 80)
	assert.Equal(t, 2, count)
}

func TestSilvermanBandwidth_DegenerateSampleIsPositive(t *testing.T) {
	bw := silvermanBandwidth([]float64{50, 50, 50})
	assert.Greater(t, bw, 0.0)
}

func TestHighRiskZones_GroupsContiguousAboveThreshold(t *testing.T) {
	grid := []float64{0, 100, 200, 300, 400}
	scores := []float64{0.1, 0.8, 0.9, 0.2, 0.7}
	zones := highRiskZones(grid, scores, 0.6, 100)
	require.Len(t, zones, 2)
	assert.Equal(t, 100.0, zones[0].StartFt)
	assert.Equal(t, 300.0, zones[0].EndFt)
	assert.Equal(t, 0.9, zones[0].MaxRisk)
}
