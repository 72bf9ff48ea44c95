// Package profile defines the vendor compliance profile model and the
// collaborator interfaces the policy and workflow engines depend on:
// profile persistence, exposure queries, notification dispatch, and
// restriction lifting.
//
// The engines only consume the interfaces. The in-memory implementations
// here back tests and single-process deployments; production callers
// satisfy the same interfaces against their own persistence and
// messaging infrastructure.
package profile
