// Package ledger reads the three accounting exports a collections run needs: customer
// payments, debtor balances and unpaid invoices.
package ledger

import (
	"errors"

	"inkasso/pkg/models"
)

var (
	// ErrNoPayments is returned when the payments export holds no customer payment with a
	// readable date, leaving the run without a reference date.
	ErrNoPayments = errors.New("no customer payments with a valid date")
)

// Column names used by the accounting system exports.
const (
	ColumnType         = "Type"
	ColumnDate         = "Dato"
	ColumnDebtorNumber = "Nr."
	ColumnBalance      = "Saldo"
	ColumnAgeDays      = "Antal dage forfalden"
	ColumnCustomerNo   = "Kundenr."
)

// Layout describes where the header sits in each export.
type Layout struct {
	PaymentType     string // Type value marking a customer payment
	DebtorSkipRows  int    // rows above the debtor header
	InvoiceSkipRows int    // rows above the invoice header
}

// DefaultLayout matches the exports produced by the accounting system.
func DefaultLayout() Layout {
	return Layout{
		PaymentType:     "Kundeindbetaling",
		DebtorSkipRows:  5,
		InvoiceSkipRows: 3,
	}
}

// Payments is the filtered payments export.
type Payments struct {
	Headers     []string
	DateColumn  int
	Records     []models.Payment
	SkippedRows int // rows of another Type
}

// Debtors is the debtor balance export.
type Debtors struct {
	Headers       []string
	BalanceColumn int
	BucketColumn  int
	Records       []models.Debtor
}

// BucketHeader returns the name of the overdue-bucket column.
func (d *Debtors) BucketHeader() string {
	return d.Headers[d.BucketColumn]
}

// Invoices is the unpaid invoice export.
type Invoices struct {
	Headers   []string
	AgeColumn int
	Records   []models.Invoice
}
