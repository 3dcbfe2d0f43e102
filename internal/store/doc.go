// Package store persists quote snapshots, naked-position events, max-pain
// points, scored candidates, and daily aggregates to Postgres.
//
// Writes are append-only: quote rows are keyed by contract plus fetch
// timestamp, never updated. A failed write loses that record only; the
// in-memory computation that produced it is never rolled back or retried.
package store
