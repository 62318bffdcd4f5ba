package xlsxio

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

// WriteReport exports a Result as a multi-sheet xlsx workbook: one sheet
// summarizing lineage chains, one for drift corrections, one for cluster
// zones, and one for high-risk zones.
func WriteReport(path string, res *ilimodel.Result) error {
	file := xlsx.NewFile()

	if err := writeLineageSheet(file, res.Lineage); err != nil {
		return err
	}
	if err := writeCorrectionsSheet(file, res.Corrections); err != nil {
		return err
	}
	if err := writeClusterSheet(file, res.Clusters); err != nil {
		return err
	}
	if err := writeRiskSheet(file, res.Risk); err != nil {
		return err
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "xlsxio: save %s", path)
	}
	return nil
}

func writeLineageSheet(file *xlsx.File, entries []ilimodel.LineageEntry) error {
	sheet, err := file.AddSheet("lineage")
	if err != nil {
		return eris.Wrap(err, "xlsxio: add lineage sheet")
	}
	header := sheet.AddRow()
	for _, h := range []string{"status", "severity", "run_years", "avg_match_score"} {
		header.AddCell().Value = h
	}
	for _, e := range entries {
		row := sheet.AddRow()
		row.AddCell().Value = string(e.Status)
		row.AddCell().Value = string(e.Severity)

		years := ""
		for y := range e.PerRun {
			if years != "" {
				years += ","
			}
			years += fmt.Sprintf("%d", y)
		}
		row.AddCell().Value = years

		var sum, n float64
		for _, ps := range e.PairScores {
			sum += ps.Score
			n++
		}
		avg := ""
		if n > 0 {
			avg = fmt.Sprintf("%.4f", sum/n)
		}
		row.AddCell().Value = avg
	}
	return nil
}

func writeCorrectionsSheet(file *xlsx.File, corrections map[int][]ilimodel.CorrectionRecord) error {
	sheet, err := file.AddSheet("corrections")
	if err != nil {
		return eris.Wrap(err, "xlsxio: add corrections sheet")
	}
	header := sheet.AddRow()
	for _, h := range []string{"run_year", "gw_index", "baseline_ft", "target_ft", "shift_ft"} {
		header.AddCell().Value = h
	}
	for year, recs := range corrections {
		for _, c := range recs {
			row := sheet.AddRow()
			row.AddCell().Value = fmt.Sprintf("%d", year)
			row.AddCell().Value = fmt.Sprintf("%d", c.GWIndex)
			row.AddCell().Value = fmt.Sprintf("%.2f", c.BaselineFt)
			row.AddCell().Value = fmt.Sprintf("%.2f", c.TargetFt)
			row.AddCell().Value = fmt.Sprintf("%.2f", c.ShiftFt)
		}
	}
	return nil
}

func writeClusterSheet(file *xlsx.File, clusters ilimodel.ClusterResult) error {
	sheet, err := file.AddSheet("clusters")
	if err != nil {
		return eris.Wrap(err, "xlsxio: add clusters sheet")
	}
	header := sheet.AddRow()
	for _, h := range []string{"start_ft", "end_ft", "anomaly_count", "avg_depth_pct", "dominant_severity"} {
		header.AddCell().Value = h
	}
	for _, z := range clusters.Clusters {
		row := sheet.AddRow()
		row.AddCell().Value = fmt.Sprintf("%.2f", z.StartFt)
		row.AddCell().Value = fmt.Sprintf("%.2f", z.EndFt)
		row.AddCell().Value = fmt.Sprintf("%d", z.AnomalyCount)
		row.AddCell().Value = fmt.Sprintf("%.2f", z.AvgDepthPct)
		row.AddCell().Value = string(z.DominantSeverity)
	}
	return nil
}

func writeRiskSheet(file *xlsx.File, riskResult ilimodel.RiskResult) error {
	sheet, err := file.AddSheet("risk_zones")
	if err != nil {
		return eris.Wrap(err, "xlsxio: add risk zones sheet")
	}
	header := sheet.AddRow()
	for _, h := range []string{"start_ft", "end_ft", "max_risk"} {
		header.AddCell().Value = h
	}
	for _, z := range riskResult.HighRiskZones {
		row := sheet.AddRow()
		row.AddCell().Value = fmt.Sprintf("%.2f", z.StartFt)
		row.AddCell().Value = fmt.Sprintf("%.2f", z.EndFt)
		row.AddCell().Value = fmt.Sprintf("%.4f", z.MaxRisk)
	}
	return nil
}
