package tabular

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// HeaderMatcher decides whether a row of cells is the header row.
type HeaderMatcher func(cells []string) bool

// Row is a data row below the header. Text and Raw are padded to the header width.
type Row struct {
	Number int // 1-based row number in the worksheet
	Text   []string
	Raw    []string
}

// Table is a worksheet reduced to a header and the data rows beneath it.
type Table struct {
	File    string
	Headers []string
	Rows    []Row

	index map[string]int
}

// NormalizeHeader canonicalises a column name: NFC normalisation, trimmed, inner
// whitespace collapsed to single spaces.
func NormalizeHeader(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

func headerKey(s string) string {
	return cases.Fold().String(NormalizeHeader(s))
}

// HasColumn returns a matcher that accepts a row containing a cell named exactly name
// (after normalisation, case-insensitive).
func HasColumn(name string) HeaderMatcher {
	want := headerKey(name)
	return func(cells []string) bool {
		for _, c := range cells {
			if headerKey(c) == want {
				return true
			}
		}
		return false
	}
}

// LocateHeader scans rows top-down and returns the index of the first row accepted by
// match, or false when no row qualifies.
func LocateHeader(rows [][]string, match HeaderMatcher) (int, bool) {
	for i, row := range rows {
		if match(row) {
			return i, true
		}
	}
	return -1, false
}

// NewTable builds a Table using sheet row headerIndex as the header. Blank rows below the
// header are dropped, empty header cells become "Unnamed: N" and repeated names get ".1",
// ".2" suffixes.
func NewTable(sheet *Sheet, file string, headerIndex int) (*Table, error) {
	const op = "NewTable"

	if headerIndex < 0 || headerIndex >= len(sheet.Text) {
		return nil, NewLoadError(op, file, ErrHeaderNotFound,
			fmt.Sprintf("header row %d outside sheet with %d rows", headerIndex+1, len(sheet.Text)))
	}

	headerCells := sheet.Text[headerIndex]
	width := len(headerCells)
	for _, row := range sheet.Text[headerIndex+1:] {
		if len(row) > width {
			width = len(row)
		}
	}

	t := &Table{
		File:    file,
		Headers: make([]string, width),
		index:   make(map[string]int, width),
	}

	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(headerCells) {
			name = NormalizeHeader(headerCells[i])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		key := headerKey(name)
		if n, dup := seen[key]; dup {
			seen[key] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
			key = headerKey(name)
		} else {
			seen[key] = 0
		}
		t.Headers[i] = name
		t.index[key] = i
	}

	for i := headerIndex + 1; i < len(sheet.Text); i++ {
		text := pad(sheet.Text[i], width)
		if isBlank(text) {
			continue
		}
		var raw []string
		if i < len(sheet.Raw) {
			raw = pad(sheet.Raw[i], width)
		} else {
			raw = make([]string, width)
		}
		t.Rows = append(t.Rows, Row{Number: i + 1, Text: text, Raw: raw})
	}

	return t, nil
}

// Column returns the index of the named column.
func (t *Table) Column(name string) (int, error) {
	if i, ok := t.index[headerKey(name)]; ok {
		return i, nil
	}
	return -1, NewLoadError("Column", t.File, ErrMissingColumn, fmt.Sprintf("%q", name))
}

// FindColumn returns the index of the first column whose normalised name satisfies match.
func (t *Table) FindColumn(description string, match func(name string) bool) (int, error) {
	for i, h := range t.Headers {
		if match(h) {
			return i, nil
		}
	}
	return -1, NewLoadError("FindColumn", t.File, ErrMissingColumn, description)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

func pad(cells []string, width int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(cells); i++ {
		out[i] = strings.TrimSpace(cells[i])
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
