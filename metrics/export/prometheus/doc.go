// Package prometheus renders goPerm metrics in Prometheus text exposition format.
//
// [NewPrometheusExporter] accepts a [goPerm.Service] and exposes an [http.Handler]
// that renders all goPerm counters and histograms. Counter names are prefixed
// goperm_*_total; histograms are goperm_validate_latency_seconds and
// goperm_submit_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate service state.
package prometheus
