// Package tabulartest builds in-memory .xlsx workbooks for tests.
package tabulartest

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Workbook writes rows into the first sheet of a new workbook and returns its bytes.
// A nil cell leaves the cell empty.
func Workbook(t testing.TB, rows [][]any) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set %s: %v", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}
