package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"vigil-hq/vigil/pkg/cli"
	"vigil-hq/vigil/pkg/policy/parser"
)

var lintFlags struct {
	file   string
	dir    string
	format string
}

// ValidationResult is the lint outcome for one rule file.
type ValidationResult struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Rules  int      `json:"rules"`
	Errors []string `json:"errors,omitempty"`
}

// LintReport is the outcome across every linted file.
type LintReport struct {
	Results []ValidationResult `json:"results"`
	Failed  int                `json:"failed"`
}

// RenderText prints one line per file with indented errors.
func (r LintReport) RenderText(w io.Writer) error {
	for _, res := range r.Results {
		if res.Valid {
			if _, err := fmt.Fprintf(w, "✓ %s (%d rules)\n", res.File, res.Rules); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "✗ %s\n", res.File); err != nil {
			return err
		}
		for _, e := range res.Errors {
			if _, err := fmt.Fprintf(w, "    %s\n", e); err != nil {
				return err
			}
		}
	}
	return nil
}

// CSVHeader returns the CSV column names.
func (r LintReport) CSVHeader() []string {
	return []string{"file", "valid", "rules", "errors"}
}

// CSVRows returns one row per linted file.
func (r LintReport) CSVRows() [][]string {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		errs := ""
		for i, e := range res.Errors {
			if i > 0 {
				errs += "; "
			}
			errs += e
		}
		rows = append(rows, []string{
			res.File, strconv.FormatBool(res.Valid), strconv.Itoa(res.Rules), errs,
		})
	}
	return rows
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate rule files",
	Long: `Validate policy rule files for syntax and semantic errors.

The lint command parses rule files and performs full validation:
  - YAML syntax validation
  - Rule structure validation (code, severity, enforcement mode and actions)
  - Condition tree validation (operators, arity, depth)
  - Duplicate rule code detection

Examples:
  # Lint single file
  vigil lint --file rules.yaml

  # Lint directory
  vigil lint --dir rules/

  # JSON output for CI/CD
  vigil lint --dir rules/ --format json`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.file, "file", "f", "", "rule file to validate")
	lintCmd.Flags().StringVarP(&lintFlags.dir, "dir", "d", "", "directory of rule files")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json, csv")
}

func lintRules(cmd *cobra.Command, args []string) error {
	if lintFlags.file == "" && lintFlags.dir == "" {
		return fmt.Errorf("either --file or --dir must be specified")
	}

	var files []string
	if lintFlags.file != "" {
		files = append(files, lintFlags.file)
	}
	if lintFlags.dir != "" {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(lintFlags.dir, pattern))
			if err != nil {
				return fmt.Errorf("failed to list rule files: %w", err)
			}
			files = append(files, matches...)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no rule files found")
	}

	p := parser.NewParser()
	report := LintReport{Results: make([]ValidationResult, 0, len(files))}

	var progress cli.ProgressReporter
	if len(files) > 1 {
		progress = cli.NewProgressReporter(os.Stderr, "linting")
		progress.Start(len(files))
	}
	for _, file := range files {
		result := ValidationResult{File: file, Valid: true}
		rules, err := p.ParseFile(file)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, err.Error())
			report.Failed++
		} else {
			result.Rules = len(rules)
		}
		report.Results = append(report.Results, result)
		if progress != nil {
			progress.Increment()
		}
	}
	if progress != nil {
		progress.Finish()
	}

	formatter := cli.NewFormatter(cli.OutputFormat(lintFlags.format))
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

	if report.Failed > 0 {
		return cli.NewCommandError("lint", fmt.Errorf("%d of %d files failed validation", report.Failed, len(files)))
	}
	return nil
}
