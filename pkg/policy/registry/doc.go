// Package registry holds the live set of policy rules: a thread-safe
// in-memory registry with optional SQLite persistence and hot reload
// from rule files on disk.
//
// Writes are guarded by optimistic concurrency: an update must carry the
// version it read, and a mismatch surfaces as a ConflictError instead of
// a lost update. Rule codes are immutable and rules are never hard
// deleted; retirement is a status transition.
package registry
