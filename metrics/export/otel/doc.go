// Package otel binds goSession engine metrics to an OpenTelemetry meter.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter and an
// Int64ObservableGauge per latency bucket. One callback reads
// [goSession.Engine.MetricsSnapshot] on each collection cycle. The caller owns
// the MeterProvider.
package otel
