// Vigil is a vendor-compliance policy evaluation and remediation
// workflow engine.
//
// It evaluates condition-tree policy rules against vendor compliance
// profiles, dispatches graduated enforcement for violations, and drives
// remediation cases through a state machine with SLA deadlines, a
// five-level escalation ladder, and a human validation gate for
// low-confidence automated decisions.
//
// Usage:
//
//	# Start the engine with default configuration
//	vigil run
//
//	# Start with custom configuration file
//	vigil run --config /path/to/config.yaml
//
//	# Show version information
//	vigil version
//
//	# Validate rule files
//	vigil lint --dir rules/
//
//	# Run the escalation sweep once and exit
//	vigil sweep
package main

func main() {
	Execute()
}
