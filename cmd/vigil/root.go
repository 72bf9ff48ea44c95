package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Vigil - vendor compliance policy and remediation engine",
	Long: `Vigil is a vendor-compliance policy evaluation and remediation
workflow engine.

It provides:
  - Condition-tree policy rules evaluated against vendor compliance profiles
  - Graduated enforcement: monitor, alert, soft enforce, hard enforce
  - Remediation cases with SLA deadlines and priority scoring
  - A five-level escalation ladder with a scheduled overdue sweep
  - Human validation for low-confidence automated decisions`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
