package xlsxio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

func writeFixtureWorkbook(t *testing.T, path string) {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Y0")
	require.NoError(t, err)

	header := sheet.AddRow()
	header.AddCell().Value = "log dist. [ft]"
	header.AddCell().Value = "event"

	row := sheet.AddRow()
	row.AddCell().Value = "500"
	row.AddCell().Value = "Metal Loss"

	require.NoError(t, file.Save(path))
}

func TestReadWorkbook_ParsesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.xlsx")
	writeFixtureWorkbook(t, path)

	rowSets, names, err := ReadWorkbook(path)
	require.NoError(t, err)
	require.Len(t, rowSets, 1)
	require.Equal(t, []string{"Y0"}, names)
	require.Len(t, rowSets[0], 1)
	assert.Equal(t, "500", rowSets[0][0]["log dist. [ft]"])
	assert.Equal(t, "Metal Loss", rowSets[0][0]["event"])
}

func TestReadWorkbook_MissingFile(t *testing.T) {
	_, _, err := ReadWorkbook(filepath.Join(t.TempDir(), "does-not-exist.xlsx"))
	assert.Error(t, err)
}

func TestWriteReport_ProducesReadableWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.xlsx")

	res := &ilimodel.Result{
		Lineage: []ilimodel.LineageEntry{
			{Status: ilimodel.StatusMatched, Severity: ilimodel.SeverityModerate, PerRun: map[int]ilimodel.CanonicalRecord{2007: {}, 2015: {}}},
		},
		Corrections: map[int][]ilimodel.CorrectionRecord{
			2015: {{GWIndex: 0, BaselineFt: 0, TargetFt: 0, ShiftFt: 0}},
		},
		Clusters: ilimodel.ClusterResult{
			Clusters: []ilimodel.ClusterZone{{StartFt: 100, EndFt: 200, AnomalyCount: 3, DominantSeverity: ilimodel.SeverityLow}},
		},
		Risk: ilimodel.RiskResult{
			HighRiskZones: []ilimodel.RiskZone{{StartFt: 100, EndFt: 200, MaxRisk: 0.9}},
		},
	}

	err := WriteReport(path, res)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	var names []string
	for _, s := range file.Sheets {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"lineage", "corrections", "clusters", "risk_zones"}, names)
}
