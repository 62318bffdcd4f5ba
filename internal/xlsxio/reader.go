// Package xlsxio reads a three-sheet ILI workbook (one sheet per run) into
// the pipeline's row-set model, and writes a Result back out as a
// multi-sheet workbook report.
package xlsxio

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/pipelinedata/ili-lineage/internal/ilimodel"
)

// ReadWorkbook opens an xlsx file and returns one RowSet per sheet, in
// sheet order. The first non-blank row of each sheet is treated as the
// header row; every subsequent row becomes one map keyed by that sheet's
// header values.
func ReadWorkbook(path string) ([]ilimodel.RowSet, []string, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "xlsxio: open %s", path)
	}

	var rowSets []ilimodel.RowSet
	var names []string
	for _, sheet := range file.Sheets {
		names = append(names, sheet.Name)
		rowSets = append(rowSets, sheetToRowSet(sheet))
	}
	return rowSets, names, nil
}

func sheetToRowSet(sheet *xlsx.Sheet) ilimodel.RowSet {
	if len(sheet.Rows) == 0 {
		return nil
	}

	var headers []string
	headerRowIdx := -1
	for i, row := range sheet.Rows {
		cells := rowStrings(row)
		if anyNonBlank(cells) {
			headers = cells
			headerRowIdx = i
			break
		}
	}
	if headerRowIdx < 0 {
		return nil
	}

	var rows ilimodel.RowSet
	for _, row := range sheet.Rows[headerRowIdx+1:] {
		cells := rowStrings(row)
		if !anyNonBlank(cells) {
			continue
		}
		record := make(map[string]string, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cells) {
				record[h] = cells[i]
			} else {
				record[h] = ""
			}
		}
		rows = append(rows, record)
	}
	return rows
}

func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = c.String()
	}
	return cells
}

func anyNonBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}
