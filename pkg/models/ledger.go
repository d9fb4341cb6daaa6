package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Days is an age in days that may be unknown (non-numeric or missing source cell).
type Days struct {
	Value float64
	Valid bool
}

// KnownDays returns a valid Days value.
func KnownDays(v float64) Days {
	return Days{Value: v, Valid: true}
}

// UnknownDays is the zero Days value, used when the age cannot be determined.
var UnknownDays = Days{}

// Amount is a monetary cell coerced to a decimal. Invalid cells have Valid=false and
// never satisfy a comparison.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// NewAmount returns a valid Amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Value: d, Valid: true}
}

// Positive reports whether the amount is known and greater than zero.
func (a Amount) Positive() bool {
	return a.Valid && a.Value.IsPositive()
}

// NonPositive reports whether the amount is known and zero or negative.
func (a Amount) NonPositive() bool {
	return a.Valid && !a.Value.IsPositive()
}

// Payment is one row of the payments export (konto 5600 / 17110).
type Payment struct {
	CustomerID string    // Kundenr. / Nr. when the export carries one
	Date       time.Time // Dato
	HasDate    bool      // false when Dato could not be parsed
	Type       string    // Type, e.g. "Kundeindbetaling"
	Raw        []string  // original cells aligned with the sheet header
}

// Debtor is one customer's aggregate receivable position from the debtor balance export.
type Debtor struct {
	CustomerID    string   // Nr.
	Balance       Amount   // Saldo
	OverdueBucket Amount   // "Efter 28 dage" / "30 dage" / "+30 dage" column
	Raw           []string // original cells aligned with the sheet header
}

// Invoice is one unpaid invoice from the open invoice export.
type Invoice struct {
	CustomerID string   // Kundenr.
	AgeDays    Days     // Antal dage forfalden
	Raw        []string // original cells aligned with the sheet header
}
