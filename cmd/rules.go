package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"inkasso/internal/classification"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the rule table in effect",
	Long: `Print the age bands used to decide collection readiness, in evaluation order.
The table comes from --rules, the RULES_FILE environment variable or the built-in
defaults, in that order.`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().String("rules", "", "YAML rule table (default: RULES_FILE or built-in rules)")
}

func runRules(cmd *cobra.Command, args []string) error {
	rulesFile, _ := cmd.Flags().GetString("rules")
	if rulesFile == "" {
		rulesFile = currentConfig().RulesFile
	}

	rules, err := loadRules(rulesFile)
	if err != nil {
		return err
	}
	if err := rules.Validate(); err != nil {
		return err
	}

	return printRules(cmd.OutOrStdout(), rules)
}

func printRules(out io.Writer, rules classification.Rules) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BAND\tAGE (DAYS)\tREADY WHEN")
	for _, b := range rules {
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name, b.String(), b.Requirement.String())
	}
	return w.Flush()
}
