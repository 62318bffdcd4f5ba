// Package cluster detects spatial clustering of anomalies along the
// pipeline by binning positions into a fixed-width histogram and grouping
// contiguous above-threshold bins into zones.
package cluster

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pipelinedata/ili-lineage/internal/config"
	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

// AnomalyPoint is one anomaly fed to Detect: its position/depth reading
// plus the severity already derived for it by the lineage stage, so Detect
// never has to re-derive severity from depth on its own.
type AnomalyPoint struct {
	Record   ilimodel.CanonicalRecord
	Severity ilimodel.Severity
}

// Detect builds the density histogram over the given anomaly positions and
// reports zones of contiguous bins whose count is at least the mean count
// scaled by ThresholdFactor. Any bin below the threshold ends a zone, so two
// dense runs separated by a single sparse bin are reported as two zones.
func Detect(points []AnomalyPoint, cfg config.ClusterConfig) ilimodel.ClusterResult {
	if len(points) == 0 || cfg.BinWidthFt <= 0 {
		return ilimodel.ClusterResult{}
	}

	positions := make([]float64, 0, len(points))
	for _, p := range points {
		r := p.Record
		if r.CorrectedOdometerFt != nil {
			positions = append(positions, *r.CorrectedOdometerFt)
		} else if r.OdometerFt != nil {
			positions = append(positions, *r.OdometerFt)
		}
	}
	if len(positions) == 0 {
		return ilimodel.ClusterResult{}
	}

	minFt := floats.Min(positions)
	maxFt := floats.Max(positions)
	nBins := int(math.Ceil((maxFt-minFt)/cfg.BinWidthFt)) + 1
	if nBins < 1 {
		nBins = 1
	}

	counts := make([]int, nBins)
	depthSums := make([]float64, nBins)
	depthCounts := make([]int, nBins)
	severityVotes := make([]map[ilimodel.Severity]int, nBins)
	for i := range severityVotes {
		severityVotes[i] = map[ilimodel.Severity]int{}
	}

	for _, p := range points {
		r := p.Record
		var pos float64
		if r.CorrectedOdometerFt != nil {
			pos = *r.CorrectedOdometerFt
		} else if r.OdometerFt != nil {
			pos = *r.OdometerFt
		} else {
			continue
		}
		bin := int((pos - minFt) / cfg.BinWidthFt)
		if bin < 0 {
			bin = 0
		}
		if bin >= nBins {
			bin = nBins - 1
		}
		counts[bin]++
		if r.DepthPct != nil {
			depthSums[bin] += *r.DepthPct
			depthCounts[bin]++
		}
		severityVotes[bin][p.Severity]++
	}

	binCenters := make([]float64, nBins)
	for i := range binCenters {
		binCenters[i] = minFt + cfg.BinWidthFt*(float64(i)+0.5)
	}

	countsF := make([]float64, nBins)
	for i, c := range counts {
		countsF[i] = float64(c)
	}
	mean := stat.Mean(countsF, nil)
	threshold := mean * cfg.ThresholdFactor

	result := ilimodel.ClusterResult{
		BinCentersFt: binCenters,
		AnomalyCounts: counts,
		MeanDensity:  mean,
		Threshold:    threshold,
	}

	above := make([]bool, nBins)
	for i, c := range counts {
		above[i] = float64(c) >= threshold
	}

	i := 0
	for i < nBins {
		if !above[i] {
			i++
			continue
		}
		start := i
		end := i
		gap := 0
		j := i + 1
		for j < nBins {
			if above[j] {
				end = j
				gap = 0
				j++
				continue
			}
			gap++
			if gap > 0 {
				break
			}
			j++
		}
		if gap > 0 {
			end = j - gap
		}

		zoneCount := 0
		var zoneDepthSum float64
		var zoneDepthCount int
		votes := map[ilimodel.Severity]int{}
		for k := start; k <= end; k++ {
			zoneCount += counts[k]
			zoneDepthSum += depthSums[k]
			zoneDepthCount += depthCounts[k]
			for sev, n := range severityVotes[k] {
				votes[sev] += n
			}
		}
		avgDepth := 0.0
		if zoneDepthCount > 0 {
			avgDepth = zoneDepthSum / float64(zoneDepthCount)
		}
		result.Clusters = append(result.Clusters, ilimodel.ClusterZone{
			StartFt:          minFt + cfg.BinWidthFt*float64(start),
			EndFt:            minFt + cfg.BinWidthFt*float64(end+1),
			AnomalyCount:     zoneCount,
			AvgDepthPct:      avgDepth,
			DominantSeverity: dominantSeverity(votes),
		})
		i = end + 1
	}

	return result
}

// dominantSeverity picks the plurality vote; ties break toward the more
// severe band, since understating risk in a tie is the worse mistake.
func dominantSeverity(votes map[ilimodel.Severity]int) ilimodel.Severity {
	order := []ilimodel.Severity{
		ilimodel.SeverityCritical,
		ilimodel.SeverityModerate,
		ilimodel.SeverityLow,
		ilimodel.SeverityUnknown,
	}
	best := ilimodel.SeverityUnknown
	bestCount := -1
	for _, sev := range order {
		if votes[sev] > bestCount {
			bestCount = votes[sev]
			best = sev
		}
	}
	return best
}
