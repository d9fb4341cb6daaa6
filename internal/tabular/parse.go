package tabular

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ParseNumber coerces a cell to a decimal. It accepts plain numbers ("1234.5"),
// Danish/European formatting ("1.234,56"), a leading or trailing minus sign and currency
// markers ("kr.", "DKK"). ok is false for empty or non-numeric cells.
func ParseNumber(s string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, false
	}

	// Normalise minus signs
	cleaned = strings.ReplaceAll(cleaned, "−", "-")
	negative := false
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimPrefix(cleaned, "-")
	} else if strings.HasSuffix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimSuffix(cleaned, "-")
	}

	// Remove currency markers and spaces
	for _, marker := range []string{"DKK", "kr.", "kr", " ", " "} {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	if cleaned == "" {
		return decimal.Zero, false
	}

	dots := strings.Count(cleaned, ".")
	commas := strings.Count(cleaned, ",")
	switch {
	case dots > 0 && commas > 0:
		// The right-most separator is the decimal separator
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case commas == 1:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case commas > 1:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case dots > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// ParseFloat is ParseNumber for callers that need a float64.
func ParseFloat(s string) (float64, bool) {
	d, ok := ParseNumber(s)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
	"2/1/2006",
	"02-01-06",
	"02.01.06",
}

// ParseDate coerces a cell to a date. Textual dates are read day-first as the accounting
// system exports them; bare numbers are Excel serial dates. ok is false otherwise.
func ParseDate(s string) (time.Time, bool) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}

	if serial, err := strconv.ParseFloat(cleaned, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// NormalizeID renders an identifier cell as a join key. Integral numbers stored as floats
// ("1001.0", "1001,00") collapse to "1001"; anything else, including ids with leading
// zeros, is only trimmed.
func NormalizeID(s string) string {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" || !strings.ContainsAny(cleaned, ".,") {
		return cleaned
	}
	if d, err := decimal.NewFromString(strings.Replace(cleaned, ",", ".", 1)); err == nil && d.IsInteger() {
		return d.String()
	}
	return cleaned
}
