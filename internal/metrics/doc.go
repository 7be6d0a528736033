// Package metrics provides observability hooks for schema sync runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so recording never needs a nil check:
//
//	p := pipeline.New(cfg, fetcher) // NoopRecorder
//	p = p.WithRecorder(metrics.NewPrometheusRecorder(reg, "schemasync"))
//
// PrometheusRecorder registers its collectors on a caller-supplied registry.
// Runs are short-lived, so instead of serving /metrics the registry is written
// to a node-exporter textfile after every run (WriteTextfile).
package metrics
