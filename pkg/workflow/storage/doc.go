// Package storage provides the remediation case persistence backends.
//
// Two implementations of workflow.CaseStore are available: an in-memory
// store for tests and ephemeral runs, and a SQLite store for durable
// deployments. Both enforce version-checked writes so concurrent
// mutations of the same case fail loudly instead of losing updates.
package storage
