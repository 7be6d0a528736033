package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// SyncOutcomeLabel is the final status of a sync run.
type SyncOutcomeLabel string

const (
	SyncWritten   SyncOutcomeLabel = "written"
	SyncUnchanged SyncOutcomeLabel = "unchanged"
	SyncDryRun    SyncOutcomeLabel = "dry_run"
	SyncFailed    SyncOutcomeLabel = "failed"
	SyncCanceled  SyncOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for sync runs. Implementations may
// forward to Prometheus or a test double.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveSyncDuration(d time.Duration)
	IncSyncOutcome(outcome SyncOutcomeLabel)
	ObserveFetchDuration(source string, d time.Duration, success bool)
	IncFetchRetry(source string)
	SetExtractedCount(category string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)       {}
func (NoopRecorder) IncStageResult(string, ResultLabel)               {}
func (NoopRecorder) ObserveSyncDuration(time.Duration)                {}
func (NoopRecorder) IncSyncOutcome(SyncOutcomeLabel)                  {}
func (NoopRecorder) ObserveFetchDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncFetchRetry(string)                             {}
func (NoopRecorder) SetExtractedCount(string, int)                    {}
