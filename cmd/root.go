package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"inkasso/internal/config"
	"inkasso/internal/logger"
)

var version = "1.0.0"

// appConfig is the configuration loaded by main; commands fall back to defaults when nil.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "inkasso",
	Short: "Inkasso - collections triage for overdue invoices",
	Long: `Inkasso reads the payments, debtor and invoice exports of the accounting system,
decides for every overdue invoice whether it is ready for debt collection and writes
an overview workbook together with a message for the bookkeeper.

Use "inkasso run" for a full run, "inkasso classify" to check a single invoice and
"inkasso rules" to show the rule table in effect.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Inkasso CLI executed")

		fmt.Fprintln(cmd.OutOrStdout(), "Welcome to Inkasso!")
		fmt.Fprintln(cmd.OutOrStdout(), "Use --help to see available commands and options.")
	},
}

// Execute runs the root command with the given configuration.
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")
	appConfig = cfg

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func currentConfig() *config.Config {
	if appConfig == nil {
		return config.Default()
	}
	return appConfig
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
