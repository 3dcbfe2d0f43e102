// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Poll cycle counts and durations
//   - Chain fetch errors and contract counts per underlying
//   - Naked-position detections
//   - Scoring-service failures
//   - Store write errors per table
package metrics
