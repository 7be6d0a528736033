package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.ObserveStageDuration("fetch", time.Second)
		r.IncStageResult("fetch", ResultFatal)
		r.ObserveSyncDuration(time.Second)
		r.IncSyncOutcome(SyncFailed)
		r.ObserveFetchDuration("file", time.Millisecond, false)
		r.IncFetchRetry("file")
		r.SetExtractedCount("properties", 1)
	})
}
