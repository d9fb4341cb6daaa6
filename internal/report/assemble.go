// Package report joins classified invoices with debtor positions and renders the
// collections overview: a four-sheet workbook and the bookkeeper message.
package report

import (
	"math"
	"strconv"
	"time"

	"inkasso/internal/classification"
	"inkasso/internal/ledger"
	"inkasso/pkg/models"
)

// Sheet names of the overview workbook, in output order.
const (
	SheetCandidates      = "Inkasso-kandidater"
	SheetCleanup         = "Oprydning - Saldo <= 0"
	SheetPositiveOverdue = "Debitorer +30 dage"
	SheetPayments        = "Kundeindbetalinger"

	// VerdictColumn is appended to every joined invoice row.
	VerdictColumn = "Vurdering"
)

// Sheet is one output table. A nil cell is written empty.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Summary counts what a run produced.
type Summary struct {
	Invoices        int
	Ready           int
	Wait            int
	Unknown         int
	Unmatched       int // invoices without a positive overdue debtor
	Cleanup         int
	PositiveOverdue int
	Payments        int
}

// Report is the result of one collections run.
type Report struct {
	LatestPayment    time.Time
	EvaluatedAt      time.Time
	Candidates       Sheet
	Cleanup          Sheet
	PositiveOverdue  Sheet
	Payments         Sheet
	CleanupCustomers []string
	Summary          Summary
}

// Sheets returns the output tables in workbook order.
func (r *Report) Sheets() []Sheet {
	return []Sheet{r.Candidates, r.Cleanup, r.PositiveOverdue, r.Payments}
}

// Input is everything Assemble needs. Verdicts is aligned with Invoices.Records.
type Input struct {
	Payments      *ledger.Payments
	Debtors       *ledger.Debtors
	Invoices      *ledger.Invoices
	Verdicts      []classification.Verdict
	LatestPayment time.Time
	EvaluatedAt   time.Time
}

// Assemble joins and filters the run's tables into a Report. It does not modify its input.
func Assemble(in Input) *Report {
	r := &Report{
		LatestPayment: in.LatestPayment,
		EvaluatedAt:   in.EvaluatedAt,
	}

	var positive, cleanup []models.Debtor
	for _, d := range in.Debtors.Records {
		if d.Balance.Positive() && d.OverdueBucket.Positive() {
			positive = append(positive, d)
		}
		if d.Balance.NonPositive() {
			cleanup = append(cleanup, d)
		}
	}

	r.Candidates = joinCandidates(in, positive, &r.Summary)
	r.Cleanup = debtorSheet(SheetCleanup, in.Debtors, cleanup)
	r.PositiveOverdue = debtorSheet(SheetPositiveOverdue, in.Debtors, positive)
	r.Payments = paymentSheet(in.Payments)
	r.CleanupCustomers = uniqueCustomers(cleanup)

	r.Summary.Invoices = len(in.Invoices.Records)
	r.Summary.Cleanup = len(cleanup)
	r.Summary.PositiveOverdue = len(positive)
	r.Summary.Payments = len(in.Payments.Records)

	return r
}

// joinCandidates left-joins every invoice to the positive overdue debtors on customer id
// and keeps the Ready rows.
func joinCandidates(in Input, positive []models.Debtor, summary *Summary) Sheet {
	byCustomer := make(map[string][]models.Debtor, len(positive))
	for _, d := range positive {
		if d.CustomerID == "" {
			continue
		}
		byCustomer[d.CustomerID] = append(byCustomer[d.CustomerID], d)
	}

	invoiceHeaders, debtorHeaders := suffixCollisions(in.Invoices.Headers, in.Debtors.Headers)
	header := make([]string, 0, len(invoiceHeaders)+len(debtorHeaders)+1)
	header = append(header, invoiceHeaders...)
	header = append(header, debtorHeaders...)
	header = append(header, VerdictColumn)

	sheet := Sheet{Name: SheetCandidates, Header: header}
	for i, inv := range in.Invoices.Records {
		verdict := classification.Unknown
		if i < len(in.Verdicts) {
			verdict = in.Verdicts[i]
		}
		switch verdict {
		case classification.Ready:
			summary.Ready++
		case classification.Wait:
			summary.Wait++
		default:
			summary.Unknown++
		}

		matches := byCustomer[inv.CustomerID]
		if len(matches) == 0 {
			summary.Unmatched++
		}
		if verdict != classification.Ready {
			continue
		}

		left := invoiceCells(in.Invoices, inv)
		if len(matches) == 0 {
			row := append(left, make([]any, len(debtorHeaders))...)
			sheet.Rows = append(sheet.Rows, append(row, verdict.String()))
			continue
		}
		for _, d := range matches {
			row := make([]any, 0, len(header))
			row = append(row, left...)
			row = append(row, debtorCells(in.Debtors, d)...)
			sheet.Rows = append(sheet.Rows, append(row, verdict.String()))
		}
	}
	return sheet
}

func debtorSheet(name string, debtors *ledger.Debtors, records []models.Debtor) Sheet {
	sheet := Sheet{Name: name, Header: debtors.Headers}
	for _, d := range records {
		sheet.Rows = append(sheet.Rows, debtorCells(debtors, d))
	}
	return sheet
}

func paymentSheet(payments *ledger.Payments) Sheet {
	sheet := Sheet{Name: SheetPayments, Header: payments.Headers}
	for _, p := range payments.Records {
		row := passthroughCells(p.Raw, len(payments.Headers))
		if p.HasDate {
			row[payments.DateColumn] = p.Date
		} else {
			row[payments.DateColumn] = nil
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func invoiceCells(invoices *ledger.Invoices, inv models.Invoice) []any {
	row := passthroughCells(inv.Raw, len(invoices.Headers))
	row[invoices.AgeColumn] = daysCell(inv.AgeDays)
	return row
}

func debtorCells(debtors *ledger.Debtors, d models.Debtor) []any {
	row := passthroughCells(d.Raw, len(debtors.Headers))
	row[debtors.BalanceColumn] = amountCell(d.Balance)
	row[debtors.BucketColumn] = amountCell(d.OverdueBucket)
	return row
}

func daysCell(d models.Days) any {
	if !d.Valid {
		return nil
	}
	return d.Value
}

func amountCell(a models.Amount) any {
	if !a.Valid {
		return nil
	}
	return a.Value.InexactFloat64()
}

// passthroughCells renders original cell text, turning plain numbers back into numbers.
// Values with a leading zero stay text so identifiers like "0042" survive.
func passthroughCells(raw []string, width int) []any {
	row := make([]any, width)
	for i := 0; i < width && i < len(raw); i++ {
		s := raw[i]
		if s == "" {
			continue
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) && !hasLeadingZero(s) {
			row[i] = f
			continue
		}
		row[i] = s
	}
	return row
}

func hasLeadingZero(s string) bool {
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}

// suffixCollisions disambiguates column names present on both sides of the join with
// "_x" (invoice side) and "_y" (debtor side).
func suffixCollisions(left, right []string) ([]string, []string) {
	inLeft := make(map[string]bool, len(left))
	for _, h := range left {
		inLeft[h] = true
	}
	inRight := make(map[string]bool, len(right))
	for _, h := range right {
		inRight[h] = true
	}

	l := make([]string, len(left))
	for i, h := range left {
		l[i] = h
		if inRight[h] {
			l[i] = h + "_x"
		}
	}
	r := make([]string, len(right))
	for i, h := range right {
		r[i] = h
		if inLeft[h] {
			r[i] = h + "_y"
		}
	}
	return l, r
}

func uniqueCustomers(debtors []models.Debtor) []string {
	seen := make(map[string]bool, len(debtors))
	var ids []string
	for _, d := range debtors {
		if d.CustomerID == "" || seen[d.CustomerID] {
			continue
		}
		seen[d.CustomerID] = true
		ids = append(ids, d.CustomerID)
	}
	return ids
}
