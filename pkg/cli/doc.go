/*
Package cli provides command-line interface utilities for Vigil.

The cli package includes output formatters, progress reporters, and common CLI
helpers used by the vigil command.

Output Formatting:

The cli package supports multiple output formats (text, JSON, CSV) for
displaying command results:

	formatter := cli.NewFormatter(cli.FormatJSON)
	data := LintReport{...}
	if err := formatter.FormatTo(os.Stdout, data); err != nil {
		return err
	}

Result types may implement TextRenderer and RowRenderer to control their
text and CSV representations; JSON output uses the standard struct tags.

Progress Reporting:

For long-running operations, use the progress reporter:

	progress := cli.NewProgressReporter(os.Stderr, "linting")
	progress.Start(len(files))
	for _, file := range files {
		// Do work
		progress.Increment()
	}
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
