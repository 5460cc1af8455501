// Package monitoring provides Prometheus metrics for the control surface
// and the registry: HTTP request counters/latencies, per-kind lifecycle
// operation outcomes, and reconciliation statistics.
package monitoring
