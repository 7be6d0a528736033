package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry       *prom.Registry
	stageDuration  *prom.HistogramVec
	stageResults   *prom.CounterVec
	syncDuration   prom.Histogram
	syncOutcome    *prom.CounterVec
	lastSuccess    prom.Gauge
	fetchDuration  *prom.HistogramVec
	fetchRetries   *prom.CounterVec
	extractedCount *prom.GaugeVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a fresh registry; an empty namespace uses "schemasync".
func NewPrometheusRecorder(reg *prom.Registry, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if namespace == "" {
		namespace = "schemasync"
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual sync stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		syncDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Total sync run duration",
			Buckets:   prom.DefBuckets,
		}),
		syncOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sync_outcomes_total",
			Help:      "Sync runs by final status",
		}, []string{"outcome"}),
		lastSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sync run",
		}),
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of document fetches by source",
			Buckets:   prom.DefBuckets,
		}, []string{"source", "result"}),
		fetchRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Fetch retries after transient failures",
		}, []string{"source"}),
		extractedCount: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "extracted_items",
			Help:      "Items extracted in the last run by category",
		}, []string{"category"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.syncDuration, pr.syncOutcome,
		pr.lastSuccess, pr.fetchDuration, pr.fetchRetries, pr.extractedCount)
	return pr
}

// Registry returns the registry the collectors are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveSyncDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.syncDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSyncOutcome(outcome SyncOutcomeLabel) {
	if p == nil {
		return
	}
	p.syncOutcome.WithLabelValues(string(outcome)).Inc()
	switch outcome {
	case SyncWritten, SyncUnchanged, SyncDryRun:
		p.lastSuccess.SetToCurrentTime()
	}
}

func (p *PrometheusRecorder) ObserveFetchDuration(source string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(source, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFetchRetry(source string) {
	if p == nil {
		return
	}
	p.fetchRetries.WithLabelValues(source).Inc()
}

func (p *PrometheusRecorder) SetExtractedCount(category string, n int) {
	if p == nil {
		return
	}
	p.extractedCount.WithLabelValues(category).Set(float64(n))
}

// WriteTextfile writes the registry to path in the Prometheus text format,
// creating the parent directory. The write is atomic.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
