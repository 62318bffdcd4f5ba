// Package lineage assembles three-run anomaly lineage chains from pairwise
// match sets, derives growth metrics across whichever pair of runs supplies
// them, and classifies each chain's severity.
package lineage

import (
	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

// Runs bundles the three normalized run record sets in chronological order
// (Y0 oldest, Y2 newest) plus the three pairwise match sets between them.
type Runs struct {
	Y0, Y1, Y2 []ilimodel.CanonicalRecord
	MatchesY0Y1, MatchesY1Y2, MatchesY0Y2 []ilimodel.Match
}

// Build assembles the full lineage: one LineageEntry per distinct anomaly
// across the three runs, chained directly through Y0-Y1-Y2 matches when
// available, falling back to the Y0-Y2 pass for anomalies that skip a run.
func Build(r Runs) []ilimodel.LineageEntry {
	byIndex := func(records []ilimodel.CanonicalRecord) map[int]ilimodel.CanonicalRecord {
		m := make(map[int]ilimodel.CanonicalRecord, len(records))
		for _, rec := range records {
			m[rec.RowIndex] = rec
		}
		return m
	}
	y0 := byIndex(r.Y0)
	y1 := byIndex(r.Y1)
	y2 := byIndex(r.Y2)

	m01 := acceptedByA(r.MatchesY0Y1)
	m12 := acceptedByA(r.MatchesY1Y2)
	m02 := acceptedByA(r.MatchesY0Y2)

	scores01 := scoreByPair(r.MatchesY0Y1)
	scores12 := scoreByPair(r.MatchesY1Y2)
	scores02 := scoreByPair(r.MatchesY0Y2)

	usedY0 := map[int]bool{}
	usedY1 := map[int]bool{}
	usedY2 := map[int]bool{}

	var entries []ilimodel.LineageEntry

	// Direct three-run chains: Y0 -> Y1 -> Y2 through accepted matches.
	for i0 := range y0 {
		m1, ok := m01[i0]
		if !ok {
			continue
		}
		i1 := m1.BRowIndex
		m2, ok := m12[i1]
		if !ok {
			continue
		}
		i2 := m2.BRowIndex

		usedY0[i0] = true
		usedY1[i1] = true
		usedY2[i2] = true

		entry := ilimodel.LineageEntry{
			Status: ilimodel.StatusMatched,
			PerRun: map[int]ilimodel.CanonicalRecord{
				y0[i0].RunYear: y0[i0],
				y1[i1].RunYear: y1[i1],
				y2[i2].RunYear: y2[i2],
			},
			PairScores: map[ilimodel.RunPair]*ilimodel.PairScore{},
		}
		if s, ok := scores01[[2]int{i0, i1}]; ok {
			entry.PairScores[ilimodel.PairY0Y1] = s
		}
		if s, ok := scores12[[2]int{i1, i2}]; ok {
			entry.PairScores[ilimodel.PairY1Y2] = s
		}
		if s, ok := scores02[[2]int{i0, i2}]; ok {
			entry.PairScores[ilimodel.PairY0Y2] = s
		}
		entry.Growth = computeGrowth(entry.PerRun)
		entry.Severity = classifySeverity(entry.Growth)
		entries = append(entries, entry)
	}

	// Fallback chains via Y0-Y2 only, for anomalies that matched across the
	// endpoints but were missed (or never present) in Y1.
	for i0 := range y0 {
		if usedY0[i0] {
			continue
		}
		m, ok := m02[i0]
		if !ok {
			continue
		}
		i2 := m.BRowIndex
		if usedY2[i2] {
			continue
		}
		usedY0[i0] = true
		usedY2[i2] = true

		entry := ilimodel.LineageEntry{
			Status: ilimodel.StatusMatched,
			PerRun: map[int]ilimodel.CanonicalRecord{
				y0[i0].RunYear: y0[i0],
				y2[i2].RunYear: y2[i2],
			},
			PairScores: map[ilimodel.RunPair]*ilimodel.PairScore{},
		}
		if s, ok := scores02[[2]int{i0, i2}]; ok {
			entry.PairScores[ilimodel.PairY0Y2] = s
		}
		entry.Growth = computeGrowth(entry.PerRun)
		entry.Severity = classifySeverity(entry.Growth)
		entries = append(entries, entry)
	}

	// Remaining Y0 anomalies never matched anywhere: missing in later runs.
	for i0, rec := range y0 {
		if usedY0[i0] {
			continue
		}
		entries = append(entries, ilimodel.LineageEntry{
			Status:   ilimodel.StatusMissing,
			PerRun:   map[int]ilimodel.CanonicalRecord{rec.RunYear: rec},
			Severity: ilimodel.SeverityUnknown,
		})
	}

	// Y1 anomalies not absorbed into a Y0-chain: either new in Y1 (if
	// they persist into Y2) or an isolated Y1 reading.
	for i1, rec := range y1 {
		if usedY1[i1] {
			continue
		}
		status := ilimodel.StatusNewY1
		perRun := map[int]ilimodel.CanonicalRecord{rec.RunYear: rec}
		pairScores := map[ilimodel.RunPair]*ilimodel.PairScore{}
		if m, ok := m12[i1]; ok {
			if i2 := m.BRowIndex; !usedY2[i2] {
				usedY2[i2] = true
				perRun[y2[i2].RunYear] = y2[i2]
				if s, ok := scores12[[2]int{i1, i2}]; ok {
					pairScores[ilimodel.PairY1Y2] = s
				}
			}
		}
		usedY1[i1] = true
		growth := computeGrowth(perRun)
		// computeGrowth keys any two-run chain as Y0_Y2; this one spans Y1-Y2.
		if g, ok := growth[ilimodel.PairY0Y2]; ok {
			delete(growth, ilimodel.PairY0Y2)
			growth[ilimodel.PairY1Y2] = g
		}
		entries = append(entries, ilimodel.LineageEntry{
			Status:     status,
			PerRun:     perRun,
			PairScores: pairScores,
			Growth:     growth,
			Severity:   classifySeverity(growth),
		})
	}

	// Anything left in Y2 is brand new: a single reading has no prior run to
	// grow from, so severity has no growth rate to classify on.
	for i2, rec := range y2 {
		if usedY2[i2] {
			continue
		}
		entries = append(entries, ilimodel.LineageEntry{
			Status:   ilimodel.StatusNewY2,
			PerRun:   map[int]ilimodel.CanonicalRecord{rec.RunYear: rec},
			Severity: ilimodel.SeverityUnknown,
		})
	}
	return entries
}

func acceptedByA(matches []ilimodel.Match) map[int]ilimodel.Match {
	out := make(map[int]ilimodel.Match)
	for _, m := range matches {
		if m.Accepted {
			out[m.ARowIndex] = m
		}
	}
	return out
}

func scoreByPair(matches []ilimodel.Match) map[[2]int]*ilimodel.PairScore {
	out := make(map[[2]int]*ilimodel.PairScore)
	for _, m := range matches {
		if !m.Accepted {
			continue
		}
		out[[2]int{m.ARowIndex, m.BRowIndex}] = &ilimodel.PairScore{Score: m.Score, Components: m.Components}
	}
	return out
}

// computeGrowth derives depth/length/width growth metrics for every pair of
// runs present in perRun. A chain with only two runs is always keyed as
// PairY0Y2. Choosing which pair's rate counts as the chain's current rate
// is left to bestGrowthRate.
func computeGrowth(perRun map[int]ilimodel.CanonicalRecord) map[ilimodel.RunPair]*ilimodel.GrowthMetrics {
	years := make([]int, 0, len(perRun))
	for y := range perRun {
		years = append(years, y)
	}
	if len(years) < 2 {
		return nil
	}
	sortInts(years)

	result := map[ilimodel.RunPair]*ilimodel.GrowthMetrics{}
	for i := 0; i < len(years)-1; i++ {
		for j := i + 1; j < len(years); j++ {
			early, late := perRun[years[i]], perRun[years[j]]
			dt := float64(late.RunYear - early.RunYear)
			if dt <= 0 {
				continue
			}
			pair := pairFor(i, j, len(years))
			result[pair] = growthBetween(early, late, dt)
		}
	}
	return result
}

func pairFor(i, j, n int) ilimodel.RunPair {
	if n == 2 {
		return ilimodel.PairY0Y2
	}
	switch {
	case i == 1 && j == 2:
		return ilimodel.PairY1Y2
	case i == 0 && j == 2:
		return ilimodel.PairY0Y2
	default:
		return ilimodel.PairY0Y1
	}
}

func growthBetween(early, late ilimodel.CanonicalRecord, dt float64) *ilimodel.GrowthMetrics {
	g := &ilimodel.GrowthMetrics{}
	if early.DepthPct != nil && late.DepthPct != nil {
		d := *late.DepthPct - *early.DepthPct
		r := d / dt
		g.DepthGrowthPct = &d
		g.AnnualGrowthRatePct = &r
	}
	if early.DepthIn != nil && late.DepthIn != nil {
		d := *late.DepthIn - *early.DepthIn
		r := d / dt
		g.DepthGrowthIn = &d
		g.AnnualGrowthRateIn = &r
	}
	if early.LengthIn != nil && late.LengthIn != nil {
		d := *late.LengthIn - *early.LengthIn
		r := d / dt
		g.LengthGrowthIn = &d
		g.AnnualLengthGrowthIn = &r
	}
	if early.WidthIn != nil && late.WidthIn != nil {
		d := *late.WidthIn - *early.WidthIn
		r := d / dt
		g.WidthGrowthIn = &d
		g.AnnualWidthGrowthIn = &r
	}
	if g.AnnualGrowthRatePct != nil && *g.AnnualGrowthRatePct > 0 && late.DepthPct != nil && *late.DepthPct < 80.0 {
		remaining := 80.0 - *late.DepthPct
		years := remaining / *g.AnnualGrowthRatePct
		g.TimeToCriticalYears = &years
	}
	return g
}

// classifySeverity buckets a chain on its most recent annual growth rate:
// >=10%/yr is critical, >=5%/yr is moderate, anything lower (including a
// flat 0) is low. A chain with no derivable growth rate is unknown.
func classifySeverity(growth map[ilimodel.RunPair]*ilimodel.GrowthMetrics) ilimodel.Severity {
	rate := bestGrowthRate(growth)
	if rate == nil {
		return ilimodel.SeverityUnknown
	}
	switch {
	case *rate >= 10:
		return ilimodel.SeverityCritical
	case *rate >= 5:
		return ilimodel.SeverityModerate
	default:
		return ilimodel.SeverityLow
	}
}

// bestGrowthRate picks a chain's growth rate from the first pair present in
// (Y1,Y2) -> (Y0,Y2) -> (Y0,Y1) order, with explicit nil checks so a zero
// rate is never skipped. Severity is therefore taken from the most recent
// interval among the growth figures published alongside it.
func bestGrowthRate(growth map[ilimodel.RunPair]*ilimodel.GrowthMetrics) *float64 {
	for _, pair := range []ilimodel.RunPair{ilimodel.PairY1Y2, ilimodel.PairY0Y2, ilimodel.PairY0Y1} {
		if g, ok := growth[pair]; ok && g != nil && g.AnnualGrowthRatePct != nil {
			return g.AnnualGrowthRatePct
		}
	}
	return nil
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
