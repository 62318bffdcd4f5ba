// Package drift corrects odometer drift between an anomaly run and a
// reference set of girth-weld anchors, by piecewise-linear interpolation
// between anchors with endpoint-slope extrapolation beyond the anchor range.
package drift

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

// Anchor pairs a baseline girth-weld position against its target position
// in the run being corrected.
type Anchor struct {
	BaselineFt float64
	TargetFt   float64
}

// Result is the output of correcting one run's odometer values.
type Result struct {
	Corrections []ilimodel.CorrectionRecord
	Applied     bool
}

// anchorPoint is a deduplicated, sorted breakpoint: multiple girth welds
// landing at the same target position collapse to one point at their mean
// baseline, so the piecewise function stays strictly well-defined.
type anchorPoint struct {
	targetFt   float64
	baselineFt float64
}

// Correct applies piecewise-linear drift correction to every record's
// OdometerFt, writing the result into CorrectedOdometerFt, using anchors
// built from matched girth-weld pairs (baseline run position, this run's
// position). Fewer than two anchors is a no-op: CorrectedOdometerFt is left
// equal to OdometerFt, and Result.Applied is false.
func Correct(records []ilimodel.CanonicalRecord, anchors []Anchor) Result {
	points := buildPoints(anchors)
	if len(points) < 2 {
		for i := range records {
			records[i].CorrectedOdometerFt = records[i].OdometerFt
		}
		return Result{Applied: false}
	}

	res := Result{Applied: true}
	for i := range records {
		rec := &records[i]
		if rec.OdometerFt == nil {
			continue
		}
		corrected := interpolate(points, *rec.OdometerFt)
		rec.CorrectedOdometerFt = &corrected
	}

	for i, p := range points {
		res.Corrections = append(res.Corrections, ilimodel.CorrectionRecord{
			GWIndex:    i,
			BaselineFt: p.baselineFt,
			TargetFt:   p.targetFt,
			ShiftFt:    p.baselineFt - p.targetFt,
		})
	}
	return res
}

// buildPoints sorts anchors by target position and collapses duplicates
// (same target, possibly multiple baseline candidates) to their mean
// baseline.
func buildPoints(anchors []Anchor) []anchorPoint {
	if len(anchors) == 0 {
		return nil
	}
	sorted := make([]Anchor, len(anchors))
	copy(sorted, anchors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TargetFt < sorted[j].TargetFt })

	var points []anchorPoint
	i := 0
	for i < len(sorted) {
		j := i
		var baselines []float64
		for j < len(sorted) && sorted[j].TargetFt == sorted[i].TargetFt {
			baselines = append(baselines, sorted[j].BaselineFt)
			j++
		}
		points = append(points, anchorPoint{
			targetFt:   sorted[i].TargetFt,
			baselineFt: floats.Sum(baselines) / float64(len(baselines)),
		})
		i = j
	}
	return points
}

// interpolate maps a raw target-run odometer value to its corrected
// (baseline-run-aligned) position. Within the anchor range, it linearly
// interpolates between the bracketing breakpoints. Outside the range, it
// extrapolates using the slope of the nearest segment.
func interpolate(points []anchorPoint, x float64) float64 {
	n := len(points)

	if x <= points[0].targetFt {
		slope := segmentSlope(points[0], points[1])
		return points[0].baselineFt + slope*(x-points[0].targetFt)
	}
	if x >= points[n-1].targetFt {
		slope := segmentSlope(points[n-2], points[n-1])
		return points[n-1].baselineFt + slope*(x-points[n-1].targetFt)
	}

	lo := 0
	hi := n - 1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if points[mid].targetFt <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	slope := segmentSlope(points[lo], points[hi])
	return points[lo].baselineFt + slope*(x-points[lo].targetFt)
}

func segmentSlope(a, b anchorPoint) float64 {
	dx := b.targetFt - a.targetFt
	if dx == 0 {
		return 1
	}
	return (b.baselineFt - a.baselineFt) / dx
}
