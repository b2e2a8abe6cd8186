// Package prometheus exposes goSession engine metrics to Prometheus.
//
// [NewCollector] wraps a [goSession.Engine] as a prometheus.Collector. Register it
// with an application registry, or mount [Collector.Handler] which serves it from
// a private one. Counters are named gosession_*_total; the single histogram is
// gosession_validate_latency_seconds.
package prometheus
