package ledger

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"inkasso/internal/logger"
	"inkasso/internal/tabular"
	"inkasso/pkg/models"
)

// DataReader turns the uploaded exports into typed records
type DataReader struct {
	layout Layout
	log    zerolog.Logger
}

// NewDataReader creates a reader for the given export layout
func NewDataReader(layout Layout) *DataReader {
	return &DataReader{
		layout: layout,
		log:    logger.WithComponent("ledger-reader"),
	}
}

// ReadPayments reads the payments export. The header row is found by scanning for a
// "Type" column; only rows of the customer payment type are kept.
func (dr *DataReader) ReadPayments(r io.Reader, file string) (*Payments, error) {
	const op = "ReadPayments"

	dr.log.Info().Str("file", file).Msg("Reading customer payments")

	sheet, err := tabular.ReadFirstSheet(r, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	headerIndex, ok := tabular.LocateHeader(sheet.Text, tabular.HasColumn(ColumnType))
	if !ok {
		return nil, fmt.Errorf("%s: %w", op,
			tabular.NewLoadError("LocateHeader", file, tabular.ErrHeaderNotFound, fmt.Sprintf("no row has a %q column", ColumnType)))
	}

	table, err := tabular.NewTable(sheet, file, headerIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	typeCol, err := table.Column(ColumnType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	dateCol, err := table.Column(ColumnDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	customerCol := optionalColumn(table, ColumnCustomerNo, ColumnDebtorNumber)

	payments := &Payments{
		Headers:    table.Headers,
		DateColumn: dateCol,
	}

	invalidDates := 0
	for _, row := range table.Rows {
		if row.Text[typeCol] != dr.layout.PaymentType {
			payments.SkippedRows++
			continue
		}

		p := models.Payment{
			Type: row.Text[typeCol],
			Raw:  row.Text,
		}
		if customerCol >= 0 {
			p.CustomerID = parseID(row, customerCol)
		}
		p.Date, p.HasDate = parseDate(row, dateCol)
		if !p.HasDate {
			invalidDates++
			dr.log.Debug().
				Int("row", row.Number).
				Str("value", row.Text[dateCol]).
				Msg("Payment date not readable, excluded from latest payment date")
		}

		payments.Records = append(payments.Records, p)
	}

	dr.log.Info().
		Str("file", file).
		Int("header_row", headerIndex+1).
		Int("payments", len(payments.Records)).
		Int("other_rows", payments.SkippedRows).
		Int("invalid_dates", invalidDates).
		Msg("Customer payments read successfully")

	return payments, nil
}

// ReadDebtors reads the debtor balance export.
func (dr *DataReader) ReadDebtors(r io.Reader, file string) (*Debtors, error) {
	const op = "ReadDebtors"

	dr.log.Info().Str("file", file).Msg("Reading debtor balances")

	table, err := dr.readFixedHeader(r, file, dr.layout.DebtorSkipRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	numberCol, err := table.Column(ColumnDebtorNumber)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	balanceCol, err := table.Column(ColumnBalance)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	bucketCol, err := table.FindColumn(`overdue column containing "dage" and one of 28, 30, +`, IsOverdueBucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	debtors := &Debtors{
		Headers:       table.Headers,
		BalanceColumn: balanceCol,
		BucketColumn:  bucketCol,
	}

	for _, row := range table.Rows {
		d := models.Debtor{
			CustomerID:    parseID(row, numberCol),
			Balance:       parseAmount(row, balanceCol),
			OverdueBucket: parseAmount(row, bucketCol),
			Raw:           row.Text,
		}
		if !d.Balance.Valid {
			dr.log.Debug().
				Int("row", row.Number).
				Str("value", row.Text[balanceCol]).
				Msg("Balance not numeric, treated as unknown")
		}
		debtors.Records = append(debtors.Records, d)
	}

	dr.log.Info().
		Str("file", file).
		Str("bucket_column", table.Headers[bucketCol]).
		Int("debtors", len(debtors.Records)).
		Msg("Debtor balances read successfully")

	return debtors, nil
}

// ReadInvoices reads the unpaid invoice export.
func (dr *DataReader) ReadInvoices(r io.Reader, file string) (*Invoices, error) {
	const op = "ReadInvoices"

	dr.log.Info().Str("file", file).Msg("Reading unpaid invoices")

	table, err := dr.readFixedHeader(r, file, dr.layout.InvoiceSkipRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ageCol, err := table.Column(ColumnAgeDays)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	customerCol, err := table.Column(ColumnCustomerNo)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	invoices := &Invoices{
		Headers:   table.Headers,
		AgeColumn: ageCol,
	}

	unknownAges := 0
	for _, row := range table.Rows {
		inv := models.Invoice{
			CustomerID: parseID(row, customerCol),
			AgeDays:    parseDays(row, ageCol),
			Raw:        row.Text,
		}
		if !inv.AgeDays.Valid {
			unknownAges++
		}
		invoices.Records = append(invoices.Records, inv)
	}

	dr.log.Info().
		Str("file", file).
		Int("invoices", len(invoices.Records)).
		Int("unknown_ages", unknownAges).
		Msg("Unpaid invoices read successfully")

	return invoices, nil
}

// readFixedHeader reads the first sheet and uses the row right after skip rows as header.
func (dr *DataReader) readFixedHeader(r io.Reader, file string, skip int) (*tabular.Table, error) {
	sheet, err := tabular.ReadFirstSheet(r, file)
	if err != nil {
		return nil, err
	}
	return tabular.NewTable(sheet, file, skip)
}

// LatestPaymentDate returns the most recent valid payment date. It is the reference date
// for every verdict of a run.
func LatestPaymentDate(payments *Payments) (time.Time, error) {
	var latest time.Time
	found := false
	if payments != nil {
		for _, p := range payments.Records {
			if !p.HasDate {
				continue
			}
			if !found || p.Date.After(latest) {
				latest = p.Date
				found = true
			}
		}
	}
	if !found {
		return time.Time{}, ErrNoPayments
	}
	return latest, nil
}

// IsOverdueBucket reports whether a debtor column name denotes the overdue amount bucket,
// e.g. "Efter 28 dage", "30 dage" or "+30 dage".
func IsOverdueBucket(name string) bool {
	lower := strings.ToLower(name)
	if !strings.Contains(lower, "dage") {
		return false
	}
	return strings.Contains(lower, "28") || strings.Contains(lower, "30") || strings.Contains(lower, "+")
}

func optionalColumn(table *tabular.Table, names ...string) int {
	for _, name := range names {
		if i, err := table.Column(name); err == nil {
			return i
		}
	}
	return -1
}

// parseID prefers the stored cell value so number formats like "#,##0" do not leak
// into the join key.
func parseID(row tabular.Row, col int) string {
	if id := tabular.NormalizeID(row.Raw[col]); id != "" {
		return id
	}
	return tabular.NormalizeID(row.Text[col])
}

func parseDate(row tabular.Row, col int) (time.Time, bool) {
	if t, ok := tabular.ParseDate(row.Raw[col]); ok {
		return t, true
	}
	return tabular.ParseDate(row.Text[col])
}

func parseAmount(row tabular.Row, col int) models.Amount {
	if d, ok := tabular.ParseNumber(row.Raw[col]); ok {
		return models.NewAmount(d)
	}
	if d, ok := tabular.ParseNumber(row.Text[col]); ok {
		return models.NewAmount(d)
	}
	return models.Amount{}
}

func parseDays(row tabular.Row, col int) models.Days {
	if v, ok := tabular.ParseFloat(row.Raw[col]); ok {
		return models.KnownDays(v)
	}
	if v, ok := tabular.ParseFloat(row.Text[col]); ok {
		return models.KnownDays(v)
	}
	return models.UnknownDays
}
