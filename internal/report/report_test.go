package report_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"inkasso/internal/classification"
	"inkasso/internal/ledger"
	"inkasso/internal/report"
	"inkasso/pkg/models"
)

var latestPayment = time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC)

func amount(v int64) models.Amount {
	return models.NewAmount(decimal.NewFromInt(v))
}

func fixture() report.Input {
	debtors := &ledger.Debtors{
		Headers:       []string{"Nr.", "Navn", "Saldo", "Efter 28 dage"},
		BalanceColumn: 2,
		BucketColumn:  3,
		Records: []models.Debtor{
			{CustomerID: "1001", Balance: amount(2500), OverdueBucket: amount(1200), Raw: []string{"1001", "Alfa ApS", "2500", "1200"}},
			{CustomerID: "1002", Balance: amount(0), OverdueBucket: amount(0), Raw: []string{"1002", "Beta A/S", "0", "0"}},
			{CustomerID: "1003", Balance: amount(-150), OverdueBucket: amount(0), Raw: []string{"1003", "Gamma", "-150", "0"}},
			{CustomerID: "1003", Balance: amount(-5), OverdueBucket: amount(0), Raw: []string{"1003", "Gamma", "-5", "0"}},
			{CustomerID: "1004", Balance: amount(900), OverdueBucket: amount(0), Raw: []string{"1004", "Delta", "900", "0"}},
			{CustomerID: "1005", Balance: models.Amount{}, OverdueBucket: amount(10), Raw: []string{"1005", "Epsilon", "x", "10"}},
		},
	}
	invoices := &ledger.Invoices{
		Headers:   []string{"Fakturanr.", "Kundenr.", "Navn", "Antal dage forfalden"},
		AgeColumn: 3,
		Records: []models.Invoice{
			{CustomerID: "1001", AgeDays: models.KnownDays(620), Raw: []string{"F-1", "1001", "Alfa ApS", "620"}},
			{CustomerID: "9999", AgeDays: models.KnownDays(700), Raw: []string{"F-2", "9999", "Ukendt kunde", "700"}},
			{CustomerID: "1004", AgeDays: models.KnownDays(20), Raw: []string{"F-3", "1004", "Delta", "20"}},
			{CustomerID: "1001", AgeDays: models.UnknownDays, Raw: []string{"F-4", "1001", "Alfa ApS", ""}},
		},
	}
	payments := &ledger.Payments{
		Headers:    []string{"Dato", "Type", "Beløb"},
		DateColumn: 0,
		Records: []models.Payment{
			{Date: latestPayment, HasDate: true, Type: "Kundeindbetaling", Raw: []string{"03-02-2026", "Kundeindbetaling", "100"}},
			{Type: "Kundeindbetaling", Raw: []string{"ukendt", "Kundeindbetaling", "50"}},
		},
	}

	return report.Input{
		Payments:      payments,
		Debtors:       debtors,
		Invoices:      invoices,
		Verdicts:      []classification.Verdict{classification.Ready, classification.Ready, classification.Wait, classification.Unknown},
		LatestPayment: latestPayment,
		EvaluatedAt:   latestPayment.AddDate(0, 0, 10),
	}
}

func TestAssembleJoinKeepsUnmatchedInvoices(t *testing.T) {
	r := report.Assemble(fixture())

	assert.Equal(t, []string{
		"Fakturanr.", "Kundenr.", "Navn_x", "Antal dage forfalden",
		"Nr.", "Navn_y", "Saldo", "Efter 28 dage",
		"Vurdering",
	}, r.Candidates.Header)

	require.Len(t, r.Candidates.Rows, 2)

	matched := r.Candidates.Rows[0]
	assert.Equal(t, "F-1", matched[0])
	assert.Equal(t, 620.0, matched[3])
	assert.Equal(t, 1001.0, matched[4])
	assert.Equal(t, 2500.0, matched[6])
	assert.Equal(t, "OK", matched[8])

	unmatched := r.Candidates.Rows[1]
	assert.Equal(t, "F-2", unmatched[0])
	for _, cell := range unmatched[4:8] {
		assert.Nil(t, cell)
	}
	assert.Equal(t, "OK", unmatched[8])

	assert.Equal(t, report.Summary{
		Invoices:        4,
		Ready:           2,
		Wait:            1,
		Unknown:         1,
		Unmatched:       2,
		Cleanup:         3,
		PositiveOverdue: 1,
		Payments:        2,
	}, r.Summary)
}

func TestAssembleCleanupUsesFullDebtorTable(t *testing.T) {
	r := report.Assemble(fixture())

	require.Len(t, r.Cleanup.Rows, 3)
	assert.Equal(t, "Beta A/S", r.Cleanup.Rows[0][1])
	assert.Equal(t, []string{"1002", "1003"}, r.CleanupCustomers)

	require.Len(t, r.PositiveOverdue.Rows, 1)
	assert.Equal(t, "Alfa ApS", r.PositiveOverdue.Rows[0][1])
}

func TestAssembleDoesNotMutateInput(t *testing.T) {
	in := fixture()
	before := append([]models.Debtor(nil), in.Debtors.Records...)

	report.Assemble(in)

	assert.Equal(t, before, in.Debtors.Records)
	assert.Equal(t, "620", in.Invoices.Records[0].Raw[3])
}

func TestAssembleDuplicateDebtorsMultiplyRows(t *testing.T) {
	in := fixture()
	dup := in.Debtors.Records[0]
	dup.Raw = []string{"1001", "Alfa ApS (afd. 2)", "10", "5"}
	dup.Balance, dup.OverdueBucket = amount(10), amount(5)
	in.Debtors.Records = append(in.Debtors.Records, dup)

	r := report.Assemble(in)

	require.Len(t, r.Candidates.Rows, 3)
	assert.Equal(t, "F-1", r.Candidates.Rows[0][0])
	assert.Equal(t, "F-1", r.Candidates.Rows[1][0])
	assert.Equal(t, "Alfa ApS (afd. 2)", r.Candidates.Rows[1][5])
}

func TestPaymentsSheetUsesParsedDates(t *testing.T) {
	r := report.Assemble(fixture())

	require.Len(t, r.Payments.Rows, 2)
	assert.Equal(t, latestPayment, r.Payments.Rows[0][0])
	assert.Nil(t, r.Payments.Rows[1][0])
	assert.Equal(t, 100.0, r.Payments.Rows[0][2])
}

func TestWriteWorkbook(t *testing.T) {
	r := report.Assemble(fixture())

	var buf bytes.Buffer
	require.NoError(t, report.WriteWorkbook(&buf, r))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		report.SheetCandidates,
		report.SheetCleanup,
		report.SheetPositiveOverdue,
		report.SheetPayments,
	}, f.GetSheetList())

	rows, err := f.GetRows(report.SheetCandidates)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Vurdering", rows[0][8])
	assert.Equal(t, "F-2", rows[2][0])

	rows, err = f.GetRows(report.SheetCleanup)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	date, err := f.GetCellValue(report.SheetPayments, "A2")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-03", date)
}

func TestWorkbookWriterPublish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Inkasso_oversigt.xlsx")
	w := report.NewWorkbookWriter(path)

	require.NoError(t, w.Publish(context.Background(), report.Assemble(fixture())))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 4)
}

func TestMessage(t *testing.T) {
	m, err := report.NewMessageRenderer()
	require.NoError(t, err)

	msg, err := m.Message(report.Assemble(fixture()))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(msg, "Emne: Oprydning af debitorer - handling påkrævet\n"))
	assert.Contains(t, msg, "Seneste bogførte indbetaling er fra 2026-02-03.")
	assert.Contains(t, msg, "\n1002, 1003\n")
	assert.True(t, strings.HasSuffix(msg, "[Dit navn]"))
}

func TestMessageWithoutCleanupCustomers(t *testing.T) {
	m, err := report.NewMessageRenderer()
	require.NoError(t, err)

	msg, err := m.Message(&report.Report{LatestPayment: latestPayment})
	require.NoError(t, err)
	assert.Contains(t, msg, "rydde op i følgende kunder:\n\n")
}

func TestMessageHTML(t *testing.T) {
	m, err := report.NewMessageRenderer()
	require.NoError(t, err)

	out, err := m.MessageHTML(report.Assemble(fixture()), "https://example.com/logo.svg")
	require.NoError(t, err)

	assert.Contains(t, out, `<img src="https://example.com/logo.svg" alt="Logo">`)
	assert.Contains(t, out, "1002, 1003")
	assert.Contains(t, out, "<br>")
}
