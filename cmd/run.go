package cmd

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"inkasso/internal/classification"
	"inkasso/internal/config"
	"inkasso/internal/ledger"
	"inkasso/internal/logger"
	"inkasso/internal/report"
	"inkasso/internal/sheets"
	"inkasso/pkg/services"
)

// ErrAccessDenied is returned when an access password is configured and the given one
// does not match.
var ErrAccessDenied = errors.New("access denied: wrong or missing password")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify overdue invoices and build the collections overview",
	Long: `Read the three accounting exports, decide for every unpaid invoice whether it is
ready for debt collection and write the overview workbook with four sheets:

  Inkasso-kandidater       invoices ready for collection, joined with debtor data
  Oprydning - Saldo <= 0   debtors with a zero or negative balance
  Debitorer +30 dage       debtors with a positive balance and an overdue amount
  Kundeindbetalinger       the customer payments that were read

The bookkeeper message is printed to stdout unless --message-out is given.

Optional environment variables:
  ACCESS_PASSWORD  - require --password to match before anything is read
  RULES_FILE       - YAML rule table used instead of the built-in one
  REPORT_FILE      - default output workbook (Inkasso_oversigt.xlsx)
  GOOGLE_SHEET_URL - spreadsheet the overview is mirrored to with --publish`,
	Example: `  # Basic run
  inkasso run --payments betalinger.xlsx --debtors debitorer.xlsx --invoices fakturaer.xlsx

  # Pin the evaluation date and save the message
  inkasso run --payments p.xlsx --debtors d.xlsx --invoices i.xlsx \
    --evaluation-date 2026-03-31 --message-out besked.txt

  # Check the inputs without writing anything
  inkasso run --payments p.xlsx --debtors d.xlsx --invoices i.xlsx --dry-run`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("payments", "", "Customer payments export (.xlsx)")
	runCmd.Flags().String("debtors", "", "Debtor balances export (.xlsx)")
	runCmd.Flags().String("invoices", "", "Unpaid invoices export (.xlsx)")
	runCmd.Flags().String("out", "", "Output workbook (default: REPORT_FILE)")
	runCmd.Flags().String("message-out", "", "Write the bookkeeper message to this file instead of stdout")
	runCmd.Flags().String("html-out", "", "Also write the message as HTML to this file")
	runCmd.Flags().String("evaluation-date", "", "Evaluation date (format: YYYY-MM-DD, default: now)")
	runCmd.Flags().String("rules", "", "YAML rule table (default: RULES_FILE or built-in rules)")
	runCmd.Flags().Bool("publish", false, "Also publish the overview to GOOGLE_SHEET_URL")
	runCmd.Flags().Bool("dry-run", false, "Read and classify but don't write any output")
	runCmd.Flags().String("password", "", "Access password when ACCESS_PASSWORD is set")

	_ = runCmd.MarkFlagRequired("payments")
	_ = runCmd.MarkFlagRequired("debtors")
	_ = runCmd.MarkFlagRequired("invoices")
}

// runOptions are the resolved inputs of one pipeline run.
type runOptions struct {
	PaymentsFile string
	DebtorsFile  string
	InvoicesFile string
	OutFile      string
	MessageOut   string
	HTMLOut      string
	RulesFile    string
	EvaluatedAt  time.Time
	Publish      bool
	DryRun       bool
}

// runResult is what a pipeline run produced.
type runResult struct {
	RunID   string
	Report  *report.Report
	Message string
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := currentConfig()

	password, _ := cmd.Flags().GetString("password")
	if err := checkAccess(cfg.AccessPassword, password); err != nil {
		return err
	}

	evaluationDateStr, _ := cmd.Flags().GetString("evaluation-date")
	evaluatedAt, err := parseEvaluationDate(evaluationDateStr)
	if err != nil {
		return err
	}

	opts := runOptions{EvaluatedAt: evaluatedAt}
	opts.PaymentsFile, _ = cmd.Flags().GetString("payments")
	opts.DebtorsFile, _ = cmd.Flags().GetString("debtors")
	opts.InvoicesFile, _ = cmd.Flags().GetString("invoices")
	opts.OutFile, _ = cmd.Flags().GetString("out")
	opts.MessageOut, _ = cmd.Flags().GetString("message-out")
	opts.HTMLOut, _ = cmd.Flags().GetString("html-out")
	opts.RulesFile, _ = cmd.Flags().GetString("rules")
	opts.Publish, _ = cmd.Flags().GetBool("publish")
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
	if opts.OutFile == "" {
		opts.OutFile = cfg.ReportFile
	}

	result, err := runPipeline(cmd.Context(), cfg, opts, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("collections run failed: %w", err)
	}

	printSummary(cmd.OutOrStdout(), result, opts)
	return nil
}

// runPipeline reads the exports, classifies the invoices and writes every requested
// output. All input problems surface before any invoice is classified.
func runPipeline(ctx context.Context, cfg *config.Config, opts runOptions, stdout io.Writer) (*runResult, error) {
	const op = "runPipeline"

	if ctx == nil {
		ctx = context.Background()
	}

	runID := uuid.New().String()
	log := logger.WithRun("run", runID)
	ctx = logger.Attach(ctx, log)

	if opts.EvaluatedAt.IsZero() {
		opts.EvaluatedAt = time.Now()
	}
	if opts.OutFile == "" {
		opts.OutFile = cfg.ReportFile
	}
	if opts.RulesFile == "" {
		opts.RulesFile = cfg.RulesFile
	}

	log.Info().
		Str("payments", opts.PaymentsFile).
		Str("debtors", opts.DebtorsFile).
		Str("invoices", opts.InvoicesFile).
		Str("evaluated_at", opts.EvaluatedAt.Format(time.RFC3339)).
		Bool("dry_run", opts.DryRun).
		Msg("Starting collections run")

	publishers, err := buildPublishers(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reader := ledger.NewDataReader(ledger.Layout{
		PaymentType:     cfg.PaymentType,
		DebtorSkipRows:  cfg.DebtorSkipRows,
		InvoiceSkipRows: cfg.InvoiceSkipRows,
	})

	payments, err := readExport(opts.PaymentsFile, reader.ReadPayments)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read payments: %w", op, err)
	}
	debtors, err := readExport(opts.DebtorsFile, reader.ReadDebtors)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read debtors: %w", op, err)
	}
	invoices, err := readExport(opts.InvoicesFile, reader.ReadInvoices)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read invoices: %w", op, err)
	}

	latestPayment, err := ledger.LatestPaymentDate(payments)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rules, err := loadRules(opts.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	engine, err := classification.NewEngine(rules, latestPayment, opts.EvaluatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info().
		Str("latest_payment", latestPayment.Format(report.DateLayout)).
		Int("bands", len(rules)).
		Msg("Classifying invoices")

	rep := report.Assemble(report.Input{
		Payments:      payments,
		Debtors:       debtors,
		Invoices:      invoices,
		Verdicts:      engine.ClassifyAll(invoices.Records),
		LatestPayment: engine.LatestPayment(),
		EvaluatedAt:   engine.EvaluatedAt(),
	})

	renderer, err := report.NewMessageRenderer()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	message, err := renderer.Message(rep)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &runResult{RunID: runID, Report: rep, Message: message}

	if opts.DryRun {
		log.Info().Msg("Dry run, no output written")
		fmt.Fprintln(stdout, message)
		return result, nil
	}

	var html string
	if opts.HTMLOut != "" {
		if html, err = renderer.MessageHTML(rep, cfg.LogoURL); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	// Message files are written before anything is published.
	if opts.MessageOut != "" {
		if err := os.WriteFile(opts.MessageOut, []byte(message), 0o644); err != nil {
			return nil, fmt.Errorf("%s: failed to write message: %w", op, err)
		}
	}
	if opts.HTMLOut != "" {
		if err := os.WriteFile(opts.HTMLOut, []byte(html), 0o644); err != nil {
			return nil, fmt.Errorf("%s: failed to write HTML message: %w", op, err)
		}
	}

	for _, p := range publishers {
		if err := p.Publish(ctx, rep); err != nil {
			return nil, fmt.Errorf("%s: failed to publish overview: %w", op, err)
		}
	}

	if opts.MessageOut == "" {
		fmt.Fprintln(stdout, message)
	}

	log.Info().
		Int("candidates", len(rep.Candidates.Rows)).
		Int("cleanup_customers", len(rep.CleanupCustomers)).
		Msg("Collections run completed successfully")

	return result, nil
}

// buildPublishers returns the destinations of the overview. The Google Sheets client is
// created up front so a bad configuration fails before the exports are read.
func buildPublishers(ctx context.Context, cfg *config.Config, opts runOptions) ([]services.ReportPublisher, error) {
	if opts.DryRun {
		return nil, nil
	}

	publishers := []services.ReportPublisher{report.NewWorkbookWriter(opts.OutFile)}
	if !opts.Publish {
		return publishers, nil
	}

	if cfg.GoogleSheetURL == "" {
		return nil, fmt.Errorf("GOOGLE_SHEET_URL environment variable is required with --publish")
	}
	sheetsService, err := sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets service: %w", err)
	}
	return append(publishers, sheetsService), nil
}

// readExport opens one export file and hands it to a ledger reader.
func readExport[T any](path string, read func(io.Reader, string) (T, error)) (T, error) {
	var zero T

	file, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	return read(file, filepath.Base(path))
}

// loadRules returns the rule table from path, or the built-in table when path is empty.
func loadRules(path string) (classification.Rules, error) {
	if path == "" {
		return classification.DefaultRules(), nil
	}
	return classification.LoadRules(path)
}

// checkAccess compares the given password with the configured one. No configured
// password means open access.
func checkAccess(configured, given string) error {
	if configured == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(configured), []byte(given)) != 1 {
		return ErrAccessDenied
	}
	return nil
}

func parseEvaluationDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(report.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid evaluation date format. Use YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func printSummary(out io.Writer, result *runResult, opts runOptions) {
	s := result.Report.Summary

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Run %s\n", result.RunID)
	fmt.Fprintf(out, "Latest payment:     %s\n", result.Report.LatestPayment.Format(report.DateLayout))
	fmt.Fprintf(out, "Invoices:           %d (OK %d, Afvent %d, Ukendt %d)\n", s.Invoices, s.Ready, s.Wait, s.Unknown)
	fmt.Fprintf(out, "Collection ready:   %d rows\n", len(result.Report.Candidates.Rows))
	fmt.Fprintf(out, "Without debtor:     %d invoices\n", s.Unmatched)
	fmt.Fprintf(out, "Cleanup debtors:    %d\n", s.Cleanup)
	fmt.Fprintf(out, "Positive overdue:   %d\n", s.PositiveOverdue)
	fmt.Fprintf(out, "Customer payments:  %d\n", s.Payments)
	if opts.DryRun {
		fmt.Fprintln(out, "Dry run: no files written")
		return
	}
	fmt.Fprintf(out, "Overview written to %s\n", opts.OutFile)
}
