package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

func odo(v float64) *float64 { return &v }

func TestCorrect_FewerThanTwoAnchorsIsNoOp(t *testing.T) {
	records := []ilimodel.CanonicalRecord{
		{OdometerFt: odo(100)},
	}
	res := Correct(records, []Anchor{{BaselineFt: 10, TargetFt: 12}})
	assert.False(t, res.Applied)
	require.NotNil(t, records[0].CorrectedOdometerFt)
	assert.Equal(t, 100.0, *records[0].CorrectedOdometerFt)
}

func TestCorrect_ZeroAnchorsIsNoOp(t *testing.T) {
	records := []ilimodel.CanonicalRecord{{OdometerFt: odo(50)}}
	res := Correct(records, nil)
	assert.False(t, res.Applied)
	assert.Equal(t, 50.0, *records[0].CorrectedOdometerFt)
}

func TestCorrect_InterpolatesBetweenAnchors(t *testing.T) {
	anchors := []Anchor{
		{BaselineFt: 0, TargetFt: 0},
		{BaselineFt: 100, TargetFt: 110},
	}
	records := []ilimodel.CanonicalRecord{
		{OdometerFt: odo(55)},
	}
	res := Correct(records, anchors)
	assert.True(t, res.Applied)
	require.NotNil(t, records[0].CorrectedOdometerFt)
	assert.InDelta(t, 50.0, *records[0].CorrectedOdometerFt, 1e-9)
}

func TestCorrect_ExactAnchorMapsToBaseline(t *testing.T) {
	anchors := []Anchor{
		{BaselineFt: 0, TargetFt: 0},
		{BaselineFt: 100, TargetFt: 110},
		{BaselineFt: 200, TargetFt: 221},
	}
	records := []ilimodel.CanonicalRecord{{OdometerFt: odo(110)}}
	Correct(records, anchors)
	assert.InDelta(t, 100.0, *records[0].CorrectedOdometerFt, 1e-9)
}

func TestCorrect_ExtrapolatesBelowFirstAnchorUsingNearestSlope(t *testing.T) {
	anchors := []Anchor{
		{BaselineFt: 100, TargetFt: 100},
		{BaselineFt: 200, TargetFt: 220},
	}
	records := []ilimodel.CanonicalRecord{{OdometerFt: odo(80)}}
	Correct(records, anchors)
	// slope = 100/120; x-targetFt(=100) = -20 -> delta = -20*100/120
	expected := 100.0 + (-20.0)*(100.0/120.0)
	assert.InDelta(t, expected, *records[0].CorrectedOdometerFt, 1e-9)
}

func TestCorrect_ExtrapolatesAboveLastAnchorUsingNearestSlope(t *testing.T) {
	anchors := []Anchor{
		{BaselineFt: 0, TargetFt: 0},
		{BaselineFt: 100, TargetFt: 120},
	}
	records := []ilimodel.CanonicalRecord{{OdometerFt: odo(150)}}
	Correct(records, anchors)
	expected := 100.0 + (150.0-120.0)*(100.0/120.0)
	assert.InDelta(t, expected, *records[0].CorrectedOdometerFt, 1e-9)
}

func TestCorrect_DuplicateTargetAnchorsCollapseToMeanBaseline(t *testing.T) {
	anchors := []Anchor{
		{BaselineFt: 10, TargetFt: 50},
		{BaselineFt: 20, TargetFt: 50},
		{BaselineFt: 200, TargetFt: 300},
	}
	records := []ilimodel.CanonicalRecord{{OdometerFt: odo(50)}}
	Correct(records, anchors)
	assert.InDelta(t, 15.0, *records[0].CorrectedOdometerFt, 1e-9)
}

func TestCorrect_NilOdometerLeftUncorrected(t *testing.T) {
	anchors := []Anchor{
		{BaselineFt: 0, TargetFt: 0},
		{BaselineFt: 100, TargetFt: 100},
	}
	records := []ilimodel.CanonicalRecord{{OdometerFt: nil}}
	Correct(records, anchors)
	assert.Nil(t, records[0].CorrectedOdometerFt)
}

func TestCorrect_EmitsOneCorrectionRecordPerAnchor(t *testing.T) {
	anchors := []Anchor{
		{BaselineFt: 0, TargetFt: 0},
		{BaselineFt: 100, TargetFt: 110},
		{BaselineFt: 200, TargetFt: 225},
	}
	records := []ilimodel.CanonicalRecord{{OdometerFt: odo(50)}}
	res := Correct(records, anchors)
	require.Len(t, res.Corrections, 3)
	assert.InDelta(t, -10.0, res.Corrections[1].ShiftFt, 1e-9)
}
