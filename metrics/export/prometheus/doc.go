// Package prometheus renders phoneauth metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] accepts a [phoneauth.Engine] and exposes an
// [http.Handler] for a /metrics route. Counter names are prefixed
// phoneauth_*_total; latency histograms end in _seconds and are emitted only
// when enabled on the engine.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
