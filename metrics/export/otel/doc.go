// Package otel binds phoneauth counters and histograms to OpenTelemetry
// observable instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine counter
// and, per latency histogram, a bucket gauge with an "le" attribute plus a
// count gauge. A single callback reads [phoneauth.Engine.MetricsSnapshot] on
// each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
