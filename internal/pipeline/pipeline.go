// Package pipeline orchestrates the full lineage reconciliation run:
// normalize each run's rows, correct odometer drift, match anomalies
// pairwise across runs, assemble three-run lineage chains, detect spatial
// clustering, and forecast composite risk.
package pipeline

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pipelinedata/ili-lineage/internal/cluster"
	"github.com/pipelinedata/ili-lineage/internal/config"
	"github.com/pipelinedata/ili-lineage/internal/drift"
	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
	"github.com/pipelinedata/ili-lineage/internal/lineage"
	"github.com/pipelinedata/ili-lineage/internal/match"
	"github.com/pipelinedata/ili-lineage/internal/normalize"
	"github.com/pipelinedata/ili-lineage/internal/risk"
)

// Job names the three runs being reconciled, oldest first.
type Job struct {
	Y0Year int
	Y1Year int
	Y2Year int
	Y0Rows ilimodel.RowSet
	Y1Rows ilimodel.RowSet
	Y2Rows ilimodel.RowSet
}

// Run executes the full pipeline for one job.
func Run(ctx context.Context, job Job, cfg *config.Config) (*ilimodel.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n0, err := normalize.Normalize(job.Y0Rows, job.Y0Year, 0)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: normalize run %d", job.Y0Year)
	}
	n1, err := normalize.Normalize(job.Y1Rows, job.Y1Year, 1)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: normalize run %d", job.Y1Year)
	}
	n2, err := normalize.Normalize(job.Y2Rows, job.Y2Year, 2)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: normalize run %d", job.Y2Year)
	}

	warnings := append([]ilimodel.Warning{}, n0.Warnings...)
	warnings = append(warnings, n1.Warnings...)
	warnings = append(warnings, n2.Warnings...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	driftY1 := drift.Correct(n1.Records, anchorsBetween(n0.GirthWelds, n1.GirthWelds))
	driftY2 := drift.Correct(n2.Records, anchorsBetween(n0.GirthWelds, n2.GirthWelds))
	// Y0 is the baseline: its own odometer readings are already the
	// reference frame, so CorrectedOdometerFt is just a copy.
	for i := range n0.Records {
		n0.Records[i].CorrectedOdometerFt = n0.Records[i].OdometerFt
	}

	anomaliesY0 := filterByKind(n0.Records, ilimodel.FeatureAnomaly)
	anomaliesY1 := filterByKind(n1.Records, ilimodel.FeatureAnomaly)
	anomaliesY2 := filterByKind(n2.Records, ilimodel.FeatureAnomaly)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	passes := []match.Pass{
		{Pair: ilimodel.PairY0Y1, ARecords: anomaliesY0, BRecords: anomaliesY1},
		{Pair: ilimodel.PairY1Y2, ARecords: anomaliesY1, BRecords: anomaliesY2},
		{Pair: ilimodel.PairY0Y2, ARecords: anomaliesY0, BRecords: anomaliesY2},
	}
	matches, err := match.RunAll(ctx, passes, cfg.Match)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: match")
	}

	lineageEntries := lineage.Build(lineage.Runs{
		Y0:          anomaliesY0,
		Y1:          anomaliesY1,
		Y2:          anomaliesY2,
		MatchesY0Y1: matches[ilimodel.PairY0Y1],
		MatchesY1Y2: matches[ilimodel.PairY1Y2],
		MatchesY0Y2: matches[ilimodel.PairY0Y2],
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clusterInput := anomaliesY2
	if len(clusterInput) == 0 {
		clusterInput = anomaliesY1
	}
	if len(clusterInput) == 0 {
		clusterInput = anomaliesY0
	}
	clusters := cluster.Detect(clusterPoints(clusterInput, lineageEntries), cfg.Cluster)

	riskResult := risk.Forecast(buildRiskInput(lineageEntries), cfg.Risk)

	corrections := map[int][]ilimodel.CorrectionRecord{
		job.Y1Year: driftY1.Corrections,
		job.Y2Year: driftY2.Corrections,
	}

	summary := buildSummary(job, n0, n1, n2, lineageEntries, corrections)

	zap.L().Info("pipeline: run complete",
		zap.Int("y0", job.Y0Year), zap.Int("y1", job.Y1Year), zap.Int("y2", job.Y2Year),
		zap.Int("lineage_entries", len(lineageEntries)),
		zap.Int("warnings", len(warnings)))

	return &ilimodel.Result{
		Summary:     summary,
		Lineage:     lineageEntries,
		Corrections: corrections,
		Clusters:    clusters,
		Risk:        riskResult,
		Warnings:    warnings,
	}, nil
}

// clusterPoints pairs each input anomaly with the severity its lineage
// chain was classified with, so the cluster analyzer's dominant-severity
// vote reflects the same growth-rate-derived severity the lineage table
// publishes rather than re-deriving one from depth alone.
func clusterPoints(records []ilimodel.CanonicalRecord, entries []ilimodel.LineageEntry) []cluster.AnomalyPoint {
	severityByRecord := make(map[[2]int]ilimodel.Severity, len(entries))
	for _, e := range entries {
		for year, rec := range e.PerRun {
			severityByRecord[[2]int{year, rec.RowIndex}] = e.Severity
		}
	}
	points := make([]cluster.AnomalyPoint, len(records))
	for i, r := range records {
		points[i] = cluster.AnomalyPoint{
			Record:   r,
			Severity: severityByRecord[[2]int{r.RunYear, r.RowIndex}],
		}
	}
	return points
}

func filterByKind(records []ilimodel.CanonicalRecord, kind ilimodel.FeatureKind) []ilimodel.CanonicalRecord {
	var out []ilimodel.CanonicalRecord
	for _, r := range records {
		if r.FeatureKind == kind {
			out = append(out, r)
		}
	}
	return out
}

// anchorsBetween pairs girth welds between a baseline run and a target run
// by their sorted order. Girth welds are read off the pipe in the same
// physical sequence in every run, so the i-th weld in one run corresponds
// to the i-th weld in another; only the overlapping prefix is used when the
// two runs report a different count of welds.
func anchorsBetween(baseline, target []ilimodel.CanonicalRecord) []drift.Anchor {
	b := sortedByOdometer(baseline)
	t := sortedByOdometer(target)
	n := len(b)
	if len(t) < n {
		n = len(t)
	}
	anchors := make([]drift.Anchor, 0, n)
	for i := 0; i < n; i++ {
		if b[i].OdometerFt == nil || t[i].OdometerFt == nil {
			continue
		}
		anchors = append(anchors, drift.Anchor{BaselineFt: *b[i].OdometerFt, TargetFt: *t[i].OdometerFt})
	}
	return anchors
}

func sortedByOdometer(records []ilimodel.CanonicalRecord) []ilimodel.CanonicalRecord {
	out := make([]ilimodel.CanonicalRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool {
		return odometerOrZero(out[i]) < odometerOrZero(out[j])
	})
	return out
}

func odometerOrZero(r ilimodel.CanonicalRecord) float64 {
	if r.OdometerFt == nil {
		return 0
	}
	return *r.OdometerFt
}

func buildRiskInput(entries []ilimodel.LineageEntry) risk.Input {
	var in risk.Input
	for _, e := range entries {
		var latest *ilimodel.CanonicalRecord
		for y, rec := range e.PerRun {
			if latest == nil || y > latest.RunYear {
				r := rec
				latest = &r
			}
		}
		if latest == nil || latest.CorrectedOdometerFt == nil || latest.DepthPct == nil {
			continue
		}
		rate := bestGrowthRate(e.Growth)
		if rate == nil {
			continue
		}
		in.PositionsFt = append(in.PositionsFt, *latest.CorrectedOdometerFt)
		in.CurrentDepthPct = append(in.CurrentDepthPct, *latest.DepthPct)
		in.GrowthRatePct = append(in.GrowthRatePct, *rate)
	}
	return in
}

// bestGrowthRate picks a chain's growth rate using the same
// (Y1,Y2) -> (Y0,Y2) -> (Y0,Y1) precedence lineage uses to classify
// severity, so risk forecasting is consistent with the lineage view.
func bestGrowthRate(growth map[ilimodel.RunPair]*ilimodel.GrowthMetrics) *float64 {
	for _, pair := range []ilimodel.RunPair{ilimodel.PairY1Y2, ilimodel.PairY0Y2, ilimodel.PairY0Y1} {
		if g, ok := growth[pair]; ok && g != nil && g.AnnualGrowthRatePct != nil {
			return g.AnnualGrowthRatePct
		}
	}
	return nil
}

func buildSummary(job Job, n0, n1, n2 *normalize.Result, entries []ilimodel.LineageEntry, corrections map[int][]ilimodel.CorrectionRecord) ilimodel.Summary {
	s := ilimodel.Summary{
		TotalAnomalies:  map[int]int{job.Y0Year: len(n0.Anomalies), job.Y1Year: len(n1.Anomalies), job.Y2Year: len(n2.Anomalies)},
		TotalGirthWelds: map[int]int{job.Y0Year: len(n0.GirthWelds), job.Y1Year: len(n1.GirthWelds), job.Y2Year: len(n2.GirthWelds)},
	}

	var scoreSum, scoreN float64
	var growthSum, growthN float64
	for _, e := range entries {
		switch e.Status {
		case ilimodel.StatusMatched:
			s.MatchedCount++
		case ilimodel.StatusNewY1:
			s.NewY1Count++
		case ilimodel.StatusNewY2:
			s.NewY2Count++
		case ilimodel.StatusMissing:
			s.MissingCount++
		}
		for _, ps := range e.PairScores {
			scoreSum += ps.Score
			scoreN++
		}
		if rate := bestGrowthRate(e.Growth); rate != nil && *rate > 0 {
			growthSum += *rate
			growthN++
		}
	}
	if scoreN > 0 {
		s.AvgMatchScore = scoreSum / scoreN
	}
	if growthN > 0 {
		s.AvgGrowthRatePct = growthSum / growthN
	}

	maxShift := 0.0
	for _, recs := range corrections {
		for _, c := range recs {
			if abs(c.ShiftFt) > maxShift {
				maxShift = abs(c.ShiftFt)
			}
		}
	}
	s.MaxOdometerShiftFt = maxShift

	return s
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
