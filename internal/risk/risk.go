// Package risk forecasts composite defect risk along the pipeline by
// combining a kernel density estimate of where anomalies are emerging with
// locally averaged growth rates, and projects how many anomalies will
// reach critical depth within several time horizons.
package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pipelinedata/ili-lineage/internal/config"
	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

// Input is everything the risk stage needs: the anomaly positions to build
// the emergence-density estimate from, and per-anomaly growth rates (in
// depth-percent per year) paired with current depth, used for the
// local-growth and critical-count components.
type Input struct {
	PositionsFt    []float64
	GrowthRatePct  []float64
	CurrentDepthPct []float64
}

// Forecast evaluates the composite risk score on a regular grid spanning
// the observed positions.
func Forecast(in Input, cfg config.RiskConfig) ilimodel.RiskResult {
	if len(in.PositionsFt) == 0 || cfg.GridStepFt <= 0 {
		return ilimodel.RiskResult{}
	}

	minFt, maxFt := in.PositionsFt[0], in.PositionsFt[0]
	for _, p := range in.PositionsFt {
		if p < minFt {
			minFt = p
		}
		if p > maxFt {
			maxFt = p
		}
	}

	var grid []float64
	for x := minFt; x <= maxFt; x += cfg.GridStepFt {
		grid = append(grid, x)
	}
	if len(grid) == 0 {
		grid = []float64{minFt}
	}

	bandwidth := silvermanBandwidth(in.PositionsFt)

	result := ilimodel.RiskResult{PositionsFt: grid}
	result.EmergenceDensity = make([]float64, len(grid))
	result.LocalGrowth = make([]float64, len(grid))
	result.CompositeRiskScore = make([]float64, len(grid))

	maxDensity := 0.0
	for i, x := range grid {
		d := kdeAt(in.PositionsFt, x, bandwidth)
		result.EmergenceDensity[i] = d
		if d > maxDensity {
			maxDensity = d
		}
	}

	maxGrowth := 0.0
	localGrowth := make([]float64, len(grid))
	for i, x := range grid {
		g := localAverage(in.PositionsFt, in.GrowthRatePct, x, cfg.WindowFt)
		localGrowth[i] = g
		if g > maxGrowth {
			maxGrowth = g
		}
	}
	copy(result.LocalGrowth, localGrowth)

	for i := range grid {
		densityTerm := 0.0
		if maxDensity > 0 {
			densityTerm = result.EmergenceDensity[i] / maxDensity
		}
		growthTerm := 0.0
		if maxGrowth > 0 {
			growthTerm = localGrowth[i] / maxGrowth
		}
		score := 0.5*densityTerm + 0.5*growthTerm
		result.CompositeRiskScore[i] = math.Min(score, 1.0)
	}

	for _, horizon := range cfg.Horizons {
		count := criticalCount(in.CurrentDepthPct, in.GrowthRatePct, horizon, cfg.CriticalDepthPct)
		switch horizon {
		case 5:
			result.CriticalCount5yr = append(result.CriticalCount5yr, count)
		case 10:
			result.CriticalCount10yr = append(result.CriticalCount10yr, count)
		case 15:
			result.CriticalCount15yr = append(result.CriticalCount15yr, count)
		case 20:
			result.CriticalCount20yr = append(result.CriticalCount20yr, count)
		}
	}

	result.HighRiskZones = highRiskZones(grid, result.CompositeRiskScore, cfg.RiskThreshold, cfg.GridStepFt)

	return result
}

// silvermanBandwidth is Silverman's rule-of-thumb bandwidth estimator:
// 0.9 * min(sigma, IQR/1.34) * n^(-1/5). With fewer than two points, or a
// degenerate (zero-spread) sample, a minimal positive bandwidth is
// returned so the KDE never divides by zero.
func silvermanBandwidth(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 1.0
	}
	sigma := stat.StdDev(xs, nil)
	sorted := append([]float64(nil), xs...)
	sortFloats(sorted)
	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	iqr := q3 - q1

	spread := sigma
	if iqr > 0 && iqr/1.34 < spread {
		spread = iqr / 1.34
	}
	if spread <= 0 {
		spread = 1.0
	}
	bw := 0.9 * spread * math.Pow(float64(n), -0.2)
	if bw <= 0 {
		bw = 1.0
	}
	return bw
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func sortFloats(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// kdeAt evaluates a Gaussian kernel density estimate at x over the sample
// points, normalized by sample size and bandwidth per the standard KDE
// formula.
func kdeAt(samples []float64, x, bandwidth float64) float64 {
	if len(samples) == 0 || bandwidth <= 0 {
		return 0
	}
	const invSqrt2Pi = 0.3989422804014327
	sum := 0.0
	for _, s := range samples {
		u := (x - s) / bandwidth
		sum += invSqrt2Pi * math.Exp(-0.5*u*u)
	}
	return sum / (float64(len(samples)) * bandwidth)
}

// localAverage averages growthRates whose matching position falls within
// windowFt of x (on either side).
func localAverage(positions, growthRates []float64, x, windowFt float64) float64 {
	if len(positions) != len(growthRates) {
		return 0
	}
	sum := 0.0
	n := 0
	for i, p := range positions {
		if math.Abs(p-x) <= windowFt {
			sum += growthRates[i]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// criticalCount projects how many anomalies will have reached
// criticalDepthPct within horizonYears, given each anomaly's current depth
// and growth rate. Anomalies with a non-positive growth rate never reach
// critical and are excluded.
func criticalCount(currentDepth, growthRate []float64, horizonYears, criticalDepthPct float64) int {
	if len(currentDepth) != len(growthRate) {
		return 0
	}
	count := 0
	for i, d := range currentDepth {
		g := growthRate[i]
		if g <= 0 {
			continue
		}
		projected := d + g*horizonYears
		if projected >= criticalDepthPct {
			count++
		}
	}
	return count
}

// highRiskZones groups contiguous grid points whose composite score meets
// or exceeds threshold into zones, recording each zone's peak score.
func highRiskZones(grid, scores []float64, threshold, gridStepFt float64) []ilimodel.RiskZone {
	var zones []ilimodel.RiskZone
	i := 0
	for i < len(grid) {
		if scores[i] < threshold {
			i++
			continue
		}
		start := i
		maxScore := scores[i]
		j := i
		for j < len(grid) && scores[j] >= threshold {
			if scores[j] > maxScore {
				maxScore = scores[j]
			}
			j++
		}
		zones = append(zones, ilimodel.RiskZone{
			StartFt: grid[start],
			EndFt:   grid[j-1] + gridStepFt,
			MaxRisk: maxScore,
		})
		i = j
	}
	return zones
}
