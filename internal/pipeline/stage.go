package pipeline

import (
	"context"
	"errors"
	"time"

	"git.home.luguber.info/inful/schemasync/internal/logfields"
	"git.home.luguber.info/inful/schemasync/internal/metrics"
	"git.home.luguber.info/inful/schemasync/internal/observability"
)

// Stage names a step of a sync run. They double as metric labels.
type Stage string

const (
	StageFetchReference Stage = "fetch_reference"
	StageExtract        Stage = "extract"
	StageBuild          Stage = "build"
	StagePlugins        Stage = "plugins"
	StageBases          Stage = "bases"
	StageExtensions     Stage = "extensions"
	StageInterfaces     Stage = "interfaces"
	StageEnhance        Stage = "enhance"
	StageVerify         Stage = "verify"
	StageWrite          Stage = "write"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageFetchReference,
	StageExtract,
	StageBuild,
	StagePlugins,
	StageBases,
	StageExtensions,
	StageInterfaces,
	StageEnhance,
	StageVerify,
	StageWrite,
}

func isCanceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// runStage times fn and reports its result.
func (s *Syncer) runStage(ctx context.Context, stage Stage, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		s.recorder.IncStageResult(string(stage), metrics.ResultCanceled)
		return err
	}

	ctx = observability.WithStage(ctx, string(stage))
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	s.recorder.ObserveStageDuration(string(stage), elapsed)

	switch {
	case err == nil:
		s.recorder.IncStageResult(string(stage), metrics.ResultSuccess)
		observability.DebugContext(ctx, "Stage completed", logfields.DurationMS(float64(elapsed.Milliseconds())))
	case isCanceled(ctx, err):
		s.recorder.IncStageResult(string(stage), metrics.ResultCanceled)
		observability.WarnContext(ctx, "Stage canceled", logfields.Error(err))
	default:
		s.recorder.IncStageResult(string(stage), metrics.ResultFatal)
		observability.ErrorContext(ctx, "Stage failed", logfields.Error(err))
	}
	return err
}
