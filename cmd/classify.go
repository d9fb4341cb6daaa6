package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"inkasso/internal/classification"
	"inkasso/internal/logger"
	"inkasso/internal/report"
	"inkasso/internal/tabular"
	"inkasso/pkg/models"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a single invoice age",
	Long: `Decide whether one invoice is ready for collection, given its age in days and the
date of the latest recorded customer payment. An empty or non-numeric age is reported
as Ukendt (unknown).`,
	Example: `  # Invoice 120 days overdue, last payment on 1 December 2025
  inkasso classify --age 120 --latest-payment 2025-12-01

  # Pin the evaluation date
  inkasso classify --age 45 --latest-payment 2026-03-01 --evaluation-date 2026-03-10`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().String("age", "", "Days overdue (empty for unknown)")
	classifyCmd.Flags().String("latest-payment", "", "Latest customer payment date (format: YYYY-MM-DD)")
	classifyCmd.Flags().String("evaluation-date", "", "Evaluation date (format: YYYY-MM-DD, default: now)")
	classifyCmd.Flags().String("rules", "", "YAML rule table (default: RULES_FILE or built-in rules)")

	_ = classifyCmd.MarkFlagRequired("latest-payment")
}

func runClassify(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("classify")
	cfg := currentConfig()

	ageStr, _ := cmd.Flags().GetString("age")
	latestStr, _ := cmd.Flags().GetString("latest-payment")
	evaluationDateStr, _ := cmd.Flags().GetString("evaluation-date")
	rulesFile, _ := cmd.Flags().GetString("rules")
	if rulesFile == "" {
		rulesFile = cfg.RulesFile
	}

	latestPayment, err := time.Parse(report.DateLayout, latestStr)
	if err != nil {
		return fmt.Errorf("invalid latest payment date format. Use YYYY-MM-DD: %w", err)
	}
	evaluatedAt, err := parseEvaluationDate(evaluationDateStr)
	if err != nil {
		return err
	}

	rules, err := loadRules(rulesFile)
	if err != nil {
		return err
	}
	engine, err := classification.NewEngine(rules, latestPayment, evaluatedAt)
	if err != nil {
		return err
	}

	age := models.UnknownDays
	if v, ok := tabular.ParseFloat(ageStr); ok {
		age = models.KnownDays(v)
	}

	verdict := engine.Classify(age)
	log.Debug().
		Str("age", ageStr).
		Str("latest_payment", latestStr).
		Str("verdict", verdict.String()).
		Msg("Invoice classified")

	printVerdict(cmd.OutOrStdout(), rules, age, verdict)
	return nil
}

func printVerdict(out io.Writer, rules classification.Rules, age models.Days, verdict classification.Verdict) {
	fmt.Fprintln(out, verdict.String())
	if !age.Valid {
		fmt.Fprintln(out, "  age unknown")
		return
	}
	if band, ok := rules.Match(age.Value); ok {
		fmt.Fprintf(out, "  band %s (%s): %s\n", band.Name, band.String(), band.Requirement.String())
	}
}
