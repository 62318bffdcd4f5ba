package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelinedata/ili-lineage/internal/config"
	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

func gwRow(dist string) map[string]string {
	return map[string]string{"log dist. [ft]": dist, "event": "Girth Weld"}
}

func anomalyRowY0(dist, depth string) map[string]string {
	return map[string]string{"log dist. [ft]": dist, "event": "Metal Loss", "depth [%]": depth, "o'clock": "3:00"}
}

func buildJob() Job {
	y0 := ilimodel.RowSet{
		gwRow("0"), gwRow("1000"), gwRow("2000"),
		anomalyRowY0("500", "20"),
	}
	y1 := ilimodel.RowSet{
		{"log dist. [ft]": "0", "event description": "Girth Weld"},
		{"log dist. [ft]": "1010", "event description": "Girth Weld"},
		{"log dist. [ft]": "2020", "event description": "Girth Weld"},
		{"log dist. [ft]": "505", "event description": "Metal Loss", "depth [%]": "30", "o'clock": "3:00"},
	}
	y2 := ilimodel.RowSet{
		{"ili wheel count [ft.]": "0", "feature description": "Girth Weld"},
		{"ili wheel count [ft.]": "1022", "feature description": "Girth Weld"},
		{"ili wheel count [ft.]": "2044", "feature description": "Girth Weld"},
		{"ili wheel count [ft.]": "511", "feature description": "Metal Loss", "metal loss depth [%]": "40", "o'clock [hh:mm]": "3:00"},
	}
	return Job{Y0Year: 2007, Y1Year: 2015, Y2Year: 2022, Y0Rows: y0, Y1Rows: y1, Y2Rows: y2}
}

func TestRun_EndToEnd(t *testing.T) {
	job := buildJob()
	cfg := config.Default()
	res, err := Run(context.Background(), job, cfg)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 1, res.Summary.TotalAnomalies[2007])
	assert.Equal(t, 1, res.Summary.TotalAnomalies[2015])
	assert.Equal(t, 1, res.Summary.TotalAnomalies[2022])
	assert.Equal(t, 3, res.Summary.TotalGirthWelds[2007])

	require.NotEmpty(t, res.Lineage)
	var matchedAny bool
	for _, e := range res.Lineage {
		if e.Status == ilimodel.StatusMatched {
			matchedAny = true
		}
	}
	assert.True(t, matchedAny)
}

func TestRun_IsIdempotent(t *testing.T) {
	job := buildJob()
	cfg := config.Default()
	first, err := Run(context.Background(), job, cfg)
	require.NoError(t, err)
	second, err := Run(context.Background(), job, cfg)
	require.NoError(t, err)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, len(first.Lineage), len(second.Lineage))
}

func TestRun_ContextCancellation(t *testing.T) {
	job := buildJob()
	cfg := config.Default()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, job, cfg)
	assert.Error(t, err)
}

func TestRun_PropagatesSchemaErrorFromNormalize(t *testing.T) {
	job := buildJob()
	job.Y0Rows = ilimodel.RowSet{{"event": "Girth Weld"}}
	cfg := config.Default()
	_, err := Run(context.Background(), job, cfg)
	assert.Error(t, err)
}
