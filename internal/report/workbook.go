package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
	"inkasso/internal/logger"
)

// WorkbookWriter renders a Report as an .xlsx workbook.
type WorkbookWriter struct {
	path string
}

// NewWorkbookWriter creates a writer for the given output path.
func NewWorkbookWriter(path string) *WorkbookWriter {
	return &WorkbookWriter{path: path}
}

// Path returns the output file path.
func (w *WorkbookWriter) Path() string {
	return w.path
}

// Publish writes the workbook to the configured path.
func (w *WorkbookWriter) Publish(ctx context.Context, r *Report) error {
	const op = "Publish"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("%s: failed to create %s: %w", op, w.path, err)
	}

	if err := WriteWorkbook(file, r); err != nil {
		file.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%s: failed to close %s: %w", op, w.path, err)
	}

	log := logger.FromContext(ctx, "report-workbook")
	log.Info().
		Str("path", w.path).
		Int("candidates", len(r.Candidates.Rows)).
		Int("cleanup", len(r.Cleanup.Rows)).
		Msg("Overview workbook written")

	return nil
}

// WriteWorkbook writes the four report sheets, in order, to out.
func WriteWorkbook(out io.Writer, r *Report) error {
	const op = "WriteWorkbook"

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return fmt.Errorf("%s: failed to create header style: %w", op, err)
	}
	dateFormat := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return fmt.Errorf("%s: failed to create date style: %w", op, err)
	}

	for i, sheet := range r.Sheets() {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("%s: failed to name sheet %q: %w", op, sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("%s: failed to add sheet %q: %w", op, sheet.Name, err)
		}

		if err := writeSheet(f, sheet, headerStyle, dateStyle); err != nil {
			return fmt.Errorf("%s: sheet %q: %w", op, sheet.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("%s: failed to write workbook: %w", op, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle, dateStyle int) error {
	header := make([]any, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return err
	}
	if len(header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet.Name, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for i, row := range sheet.Rows {
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		cells := row
		if err := f.SetSheetRow(sheet.Name, start, &cells); err != nil {
			return err
		}
		for j, v := range row {
			if _, ok := v.(time.Time); !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet.Name, cell, cell, dateStyle); err != nil {
				return err
			}
		}
	}
	return nil
}
