package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

func pct(v float64) *float64 { return &v }

func rec(runYear, rowIndex int, depthPct float64) ilimodel.CanonicalRecord {
	return ilimodel.CanonicalRecord{RunYear: runYear, RowIndex: rowIndex, DepthPct: pct(depthPct)}
}

func accepted(aRow, bRow int, score float64) ilimodel.Match {
	return ilimodel.Match{ARowIndex: aRow, BRowIndex: bRow, Score: score, Cost: 1 - score, Accepted: true}
}

func TestBuild_DirectThreeRunChain(t *testing.T) {
	r := Runs{
		Y0: []ilimodel.CanonicalRecord{rec(2007, 0, 10)},
		Y1: []ilimodel.CanonicalRecord{rec(2015, 0, 20)},
		Y2: []ilimodel.CanonicalRecord{rec(2022, 0, 30)},
		MatchesY0Y1: []ilimodel.Match{accepted(0, 0, 0.9)},
		MatchesY1Y2: []ilimodel.Match{accepted(0, 0, 0.9)},
		MatchesY0Y2: []ilimodel.Match{accepted(0, 0, 0.8)},
	}
	entries := Build(r)
	require.Len(t, entries, 1)
	assert.Equal(t, ilimodel.StatusMatched, entries[0].Status)
	assert.Len(t, entries[0].PerRun, 3)
}

func TestBuild_Y0Y2FallbackWhenY1Missing(t *testing.T) {
	r := Runs{
		Y0: []ilimodel.CanonicalRecord{rec(2007, 0, 10)},
		Y1: []ilimodel.CanonicalRecord{},
		Y2: []ilimodel.CanonicalRecord{rec(2022, 0, 40)},
		MatchesY0Y2: []ilimodel.Match{accepted(0, 0, 0.7)},
	}
	entries := Build(r)
	require.Len(t, entries, 1)
	assert.Equal(t, ilimodel.StatusMatched, entries[0].Status)
	assert.Len(t, entries[0].PerRun, 2)
}

func TestBuild_MissingStatusWhenY0NeverMatched(t *testing.T) {
	r := Runs{
		Y0: []ilimodel.CanonicalRecord{rec(2007, 0, 10)},
		Y1: []ilimodel.CanonicalRecord{},
		Y2: []ilimodel.CanonicalRecord{},
	}
	entries := Build(r)
	require.Len(t, entries, 1)
	assert.Equal(t, ilimodel.StatusMissing, entries[0].Status)
}

func TestBuild_NewY1AndNewY2Status(t *testing.T) {
	r := Runs{
		Y0: []ilimodel.CanonicalRecord{},
		Y1: []ilimodel.CanonicalRecord{rec(2015, 0, 10)},
		Y2: []ilimodel.CanonicalRecord{rec(2022, 0, 10)},
	}
	entries := Build(r)
	require.Len(t, entries, 2)
	var statuses []ilimodel.Status
	for _, e := range entries {
		statuses = append(statuses, e.Status)
	}
	assert.Contains(t, statuses, ilimodel.StatusNewY1)
	assert.Contains(t, statuses, ilimodel.StatusNewY2)
}

func TestComputeGrowth_ThreeRunChainHasY1Y2Rate(t *testing.T) {
	perRun := map[int]ilimodel.CanonicalRecord{
		2007: rec(2007, 0, 10),
		2015: rec(2015, 0, 20),
		2022: rec(2022, 0, 35),
	}
	g := computeGrowth(perRun)
	require.Contains(t, g, ilimodel.PairY1Y2)
	require.NotNil(t, g[ilimodel.PairY1Y2].AnnualGrowthRatePct)
	assert.InDelta(t, 15.0/7.0, *g[ilimodel.PairY1Y2].AnnualGrowthRatePct, 1e-9)
}

func growthAt(pair ilimodel.RunPair, ratePct float64) map[ilimodel.RunPair]*ilimodel.GrowthMetrics {
	r := ratePct
	return map[ilimodel.RunPair]*ilimodel.GrowthMetrics{pair: {AnnualGrowthRatePct: &r}}
}

func TestClassifySeverity_Bands(t *testing.T) {
	assert.Equal(t, ilimodel.SeverityCritical, classifySeverity(growthAt(ilimodel.PairY1Y2, 10)))
	assert.Equal(t, ilimodel.SeverityModerate, classifySeverity(growthAt(ilimodel.PairY1Y2, 5)))
	assert.Equal(t, ilimodel.SeverityLow, classifySeverity(growthAt(ilimodel.PairY1Y2, 0)))
	assert.Equal(t, ilimodel.SeverityUnknown, classifySeverity(nil))
}

func TestGrowthBetween_TimeToCriticalUses80PctThreshold(t *testing.T) {
	early := rec(2015, 0, 50)
	late := rec(2022, 0, 54)
	g := growthBetween(early, late, 2.5)
	require.NotNil(t, g.AnnualGrowthRatePct)
	assert.InDelta(t, 1.6, *g.AnnualGrowthRatePct, 1e-9)
	require.NotNil(t, g.TimeToCriticalYears)
	assert.InDelta(t, 16.25, *g.TimeToCriticalYears, 1e-6)
}

func TestGrowthBetween_TimeToCriticalNilAboveThreshold(t *testing.T) {
	early := rec(2015, 0, 70)
	late := rec(2022, 0, 90)
	g := growthBetween(early, late, 7)
	require.NotNil(t, g.AnnualGrowthRatePct)
	assert.Nil(t, g.TimeToCriticalYears)
}

func TestClassifySeverity_PrefersMostRecentPair(t *testing.T) {
	growth := map[ilimodel.RunPair]*ilimodel.GrowthMetrics{
		ilimodel.PairY0Y1: {AnnualGrowthRatePct: func() *float64 { r := 20.0; return &r }()},
		ilimodel.PairY1Y2: {AnnualGrowthRatePct: func() *float64 { r := 2.0; return &r }()},
	}
	assert.Equal(t, ilimodel.SeverityLow, classifySeverity(growth))
}
