package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
	"github.com/pipelinedata/ili-lineage/internal/pipeline"
	"github.com/pipelinedata/ili-lineage/internal/xlsxio"
)

var (
	inputPath  string
	outputPath string
	xlsxReport string
	y0Year     int
	y1Year     int
	y2Year     int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the lineage pipeline over a three-sheet ILI workbook",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&inputPath, "input", "", "path to the three-sheet xlsx workbook (required)")
	runCmd.Flags().StringVar(&outputPath, "output", "", "path to write the JSON result (defaults to stdout)")
	runCmd.Flags().StringVar(&xlsxReport, "xlsx-report", "", "path to write a multi-sheet xlsx report")
	runCmd.Flags().IntVar(&y0Year, "y0-year", 0, "calendar year of the oldest run sheet (required)")
	runCmd.Flags().IntVar(&y1Year, "y1-year", 0, "calendar year of the middle run sheet (required)")
	runCmd.Flags().IntVar(&y2Year, "y2-year", 0, "calendar year of the newest run sheet (required)")
	runCmd.MarkFlagRequired("input")
	runCmd.MarkFlagRequired("y0-year")
	runCmd.MarkFlagRequired("y1-year")
	runCmd.MarkFlagRequired("y2-year")
}

func runRun(cmd *cobra.Command, args []string) error {
	rowSets, sheetNames, err := xlsxio.ReadWorkbook(inputPath)
	if err != nil {
		return eris.Wrap(err, "run: read workbook")
	}
	if len(rowSets) < 3 {
		return eris.Errorf("run: workbook has %d sheets, need 3 (got: %v)", len(rowSets), sheetNames)
	}

	job := pipeline.Job{
		Y0Year: y0Year,
		Y1Year: y1Year,
		Y2Year: y2Year,
		Y0Rows: rowSets[0],
		Y1Rows: rowSets[1],
		Y2Rows: rowSets[2],
	}

	res, err := pipeline.Run(context.Background(), job, cfg)
	if err != nil {
		return eris.Wrap(err, "run: pipeline")
	}

	if xlsxReport != "" {
		if err := xlsxio.WriteReport(xlsxReport, res); err != nil {
			return eris.Wrap(err, "run: write xlsx report")
		}
		zap.L().Info("run: xlsx report written", zap.String("path", xlsxReport))
	}

	return writeJSON(res, outputPath)
}

func writeJSON(res *ilimodel.Result, path string) error {
	encoded, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return eris.Wrap(err, "run: marshal result")
	}
	if path == "" {
		_, err := os.Stdout.Write(append(encoded, '\n'))
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}
