// Package pipeline processes inbound compliance signals end to end:
// best-effort enrichment through the risk service, policy evaluation
// against the vendor's profile, and enforcement dispatch for
// violations.
//
// Batch entry points iterate their input sequentially and isolate
// per-item failures: one bad signal or vendor is recorded in the batch
// result and never aborts the rest.
//
// NewIntakeHandler exposes the processor over HTTP for upstream signal
// producers; the run command mounts it at /signals.
package pipeline
