// Package metrics exposes Prometheus instrumentation for the storage
// core: counts of block/vlob store operations, the
// synchronizer's dirty-set size, and the file engine's flush/commit
// durations. Register wires every collector into a prometheus.Registerer;
// Handler returns an http.Handler suitable for a /metrics endpoint.
package metrics
