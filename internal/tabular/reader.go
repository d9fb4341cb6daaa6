package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"inkasso/internal/logger"
)

// Sheet is the content of a single worksheet. Text holds the cell values formatted the way
// Excel displays them, Raw the stored values (numbers unformatted, dates as serials).
type Sheet struct {
	Name string
	Text [][]string
	Raw  [][]string
}

// ReadFirstSheet reads the first worksheet of an .xlsx workbook.
func ReadFirstSheet(r io.Reader, file string) (*Sheet, error) {
	const op = "ReadFirstSheet"
	log := logger.WithComponent("tabular")

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, NewLoadError(op, file, ErrUnreadableWorkbook, err.Error())
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, NewLoadError(op, file, ErrEmptySheet, "workbook has no sheets")
	}

	text, err := f.GetRows(name)
	if err != nil {
		return nil, NewLoadError(op, file, ErrUnreadableWorkbook, fmt.Sprintf("sheet %q: %v", name, err))
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, NewLoadError(op, file, ErrUnreadableWorkbook, fmt.Sprintf("sheet %q: %v", name, err))
	}
	if len(text) == 0 {
		return nil, NewLoadError(op, file, ErrEmptySheet, fmt.Sprintf("sheet %q", name))
	}

	log.Debug().
		Str("file", file).
		Str("sheet", name).
		Int("rows", len(text)).
		Msg("Read first sheet")

	return &Sheet{Name: name, Text: text, Raw: raw}, nil
}
