package match

import (
	"math"
	"regexp"

	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

// Weights controls the relative contribution of each cost component.
type Weights struct {
	Distance float64
	Clock    float64
	Feature  float64
}

// Gate holds the hard cutoffs that make a candidate pair ineligible
// regardless of its weighted cost.
type Gate struct {
	MaxDistanceFt float64
}

// pairCost computes the weighted cost between two canonical records and
// reports whether the hard distance gate passed. Distance and clock
// components are normalized to [0,1] before weighting; the feature
// component scores how compatible the two records' descriptions are.
func pairCost(a, b ilimodel.CanonicalRecord, w Weights, g Gate) (cost float64, comps ilimodel.MatchComponents, gated bool) {
	da := odometerOf(a)
	db := odometerOf(b)
	dist := math.Abs(da - db)
	if dist > g.MaxDistanceFt {
		return 0, ilimodel.MatchComponents{}, true
	}

	distConf := 1 - dist/g.MaxDistanceFt
	comps.DistanceConfidence = distConf

	clockConf := clockConfidence(a.ClockPosition, b.ClockPosition)
	comps.ClockConfidence = clockConf

	featConf := 1 - featurePenalty(a.FeatureDescription, b.FeatureDescription)
	comps.FeatureConfidence = featConf

	score := w.Distance*distConf + w.Clock*clockConf + w.Feature*featConf
	cost = 1 - score
	return cost, comps, false
}

// odometerOf prefers a corrected odometer value, falling back to the raw
// reading when drift correction was not applied to this record.
func odometerOf(r ilimodel.CanonicalRecord) float64 {
	if r.CorrectedOdometerFt != nil {
		return *r.CorrectedOdometerFt
	}
	if r.OdometerFt != nil {
		return *r.OdometerFt
	}
	return 0
}

// clockConfidence scores two clock positions on the 12-hour dial, where
// the circular distance (the shorter way around the clock face) of 6
// hours scores 0 and a distance of 0 scores 1. Either position being
// absent scores a neutral 0.5, since the dial carries no information to
// penalize or reward in that case.
func clockConfidence(a, b *float64) float64 {
	if a == nil || b == nil {
		return 0.5
	}
	d := math.Abs(*a - *b)
	if d > 6 {
		d = 12 - d
	}
	return 1 - d/6
}

// featureFamily is the coarse bucket a free-text feature description
// classifies into: corrosion-like defects, dent-like defects, or anything
// else. featurePenalty compares within and across these families.
type featureFamily int

const (
	familyOther featureFamily = iota
	familyCorrosion
	familyDent
)

var (
	seamWeldDentPattern = regexp.MustCompile(`(?i)seam[ _-]?weld[ _-]?dent`)
	dentPattern         = regexp.MustCompile(`(?i)dent`)
	metalLossPattern    = regexp.MustCompile(`(?i)metal[ _-]?loss`)
	clusterPattern      = regexp.MustCompile(`(?i)cluster`)
	corrosionPattern    = regexp.MustCompile(`(?i)corrosion`)
)

// classifyDescription buckets a free-text feature description into a
// family plus a canonical subcategory name. seam_weld_dent is checked
// ahead of the bare dent pattern it would otherwise also match.
func classifyDescription(desc string) (featureFamily, string) {
	switch {
	case seamWeldDentPattern.MatchString(desc):
		return familyDent, "seam_weld_dent"
	case dentPattern.MatchString(desc):
		return familyDent, "dent"
	case metalLossPattern.MatchString(desc):
		return familyCorrosion, "metal_loss"
	case clusterPattern.MatchString(desc):
		return familyCorrosion, "cluster"
	case corrosionPattern.MatchString(desc):
		return familyCorrosion, "corrosion"
	default:
		return familyOther, "other"
	}
}

// featurePenalty scores how compatible two feature descriptions are: 0 for
// the same subcategory, 0.3 for different subcategories within the same
// family, 1 across families.
func featurePenalty(descA, descB string) float64 {
	famA, subA := classifyDescription(descA)
	famB, subB := classifyDescription(descB)
	if famA != famB {
		return 1
	}
	if subA == subB {
		return 0
	}
	return 0.3
}
