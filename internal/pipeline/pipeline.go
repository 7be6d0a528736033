package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/schemasync/internal/config"
	"git.home.luguber.info/inful/schemasync/internal/doctree"
	"git.home.luguber.info/inful/schemasync/internal/enhance"
	"git.home.luguber.info/inful/schemasync/internal/extract"
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
	"git.home.luguber.info/inful/schemasync/internal/history"
	"git.home.luguber.info/inful/schemasync/internal/logfields"
	"git.home.luguber.info/inful/schemasync/internal/metrics"
	"git.home.luguber.info/inful/schemasync/internal/observability"
	"git.home.luguber.info/inful/schemasync/internal/schema"
	"git.home.luguber.info/inful/schemasync/internal/sources"
	"git.home.luguber.info/inful/schemasync/internal/synth"
)

// Options adjust a single run.
type Options struct {
	// DryRun builds and verifies the schema without writing it.
	DryRun bool
	// OutputPath overrides the configured output path.
	OutputPath string
}

// Result summarizes a sync run.
type Result struct {
	RunID      string
	OutputPath string

	Properties int
	Plugins    int
	Bases      int
	Interfaces int
	Extensions sources.ExtensionReport

	Definitions  []string
	Enhancements enhance.Report

	Changed bool
	DryRun  bool
	SHA256  string
	Schema  []byte

	StartedAt time.Time
	Duration  time.Duration
}

// Outcome classifies a finished run.
func (r *Result) Outcome() history.Outcome {
	switch {
	case r.DryRun:
		return history.OutcomeDryRun
	case r.Changed:
		return history.OutcomeWritten
	default:
		return history.OutcomeUnchanged
	}
}

// Syncer regenerates the schema from its configured sources.
type Syncer struct {
	cfg      *config.Config
	getter   sources.Getter
	recorder metrics.Recorder
	history  history.Recorder
	newID    func() string
}

// New returns a Syncer reading sources through getter.
func New(cfg *config.Config, getter sources.Getter) *Syncer {
	return &Syncer{
		cfg:      cfg,
		getter:   getter,
		recorder: metrics.NoopRecorder{},
		newID:    uuid.NewString,
	}
}

// WithRecorder sets the metrics recorder.
func (s *Syncer) WithRecorder(r metrics.Recorder) *Syncer {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
	return s
}

// WithHistory records every run in h.
func (s *Syncer) WithHistory(h history.Recorder) *Syncer {
	s.history = h
	return s
}

// Run executes one sync. Nothing is written unless every stage succeeds.
func (s *Syncer) Run(ctx context.Context, opts Options) (*Result, error) {
	if s.cfg == nil {
		return nil, ferrors.ConfigError("config required").Build()
	}
	if s.getter == nil {
		return nil, ferrors.InternalError("source getter required").Build()
	}

	res := &Result{
		RunID:      s.newID(),
		OutputPath: s.cfg.Output.Path,
		DryRun:     opts.DryRun,
		StartedAt:  time.Now(),
	}
	if opts.OutputPath != "" {
		res.OutputPath = opts.OutputPath
	}
	ctx = observability.WithRunID(ctx, res.RunID)
	observability.InfoContext(ctx, "Starting schema sync",
		logfields.URL(s.cfg.Sources.Reference),
		logfields.Path(res.OutputPath))

	err := s.run(ctx, res)
	res.Duration = time.Since(res.StartedAt)
	s.finish(ctx, res, err)
	if err != nil {
		return res, err
	}
	return res, nil
}

func (s *Syncer) run(ctx context.Context, res *Result) error {
	th := s.cfg.Thresholds

	var doc *doctree.Document
	err := s.runStage(ctx, StageFetchReference, func(ctx context.Context) error {
		ref := s.cfg.Sources.Reference
		data, err := s.getter.Fetch(observability.WithSource(ctx, "reference"), ref)
		if err != nil {
			return err
		}
		doc, err = doctree.Parse(ref, data)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryExtraction, "parse reference document").
				WithContext("url", ref).
				Build()
		}
		return nil
	})
	if err != nil {
		return err
	}

	var props extract.Properties
	err = s.runStage(ctx, StageExtract, func(ctx context.Context) error {
		props = extract.Extract(doc, s.cfg.Extraction.Options())
		res.Properties = len(props)
		s.recorder.SetExtractedCount("properties", len(props))
		observability.InfoContext(ctx, "Extracted properties", logfields.Count(len(props)))
		return sources.CheckMinimum("properties", len(props), th.Properties, "")
	})
	if err != nil {
		return err
	}

	var out *schema.Schema
	err = s.runStage(ctx, StageBuild, func(ctx context.Context) error {
		out = synth.NewBuilder(s.header(), s.cfg.Extraction.Rules).Build(props)
		res.Definitions = schema.SortedKeys(out.Defs)
		observability.InfoContext(ctx, "Assembled schema",
			logfields.Count(len(out.Properties)),
			slog.Int("definitions", len(res.Definitions)))
		return nil
	})
	if err != nil {
		return err
	}

	var ids enhance.Identifiers
	if err := s.collectIdentifiers(ctx, res, &ids); err != nil {
		return err
	}

	var data []byte
	err = s.runStage(ctx, StageEnhance, func(ctx context.Context) error {
		res.Enhancements = enhance.Enhance(out, ids)
		for _, a := range res.Enhancements.Applied {
			observability.DebugContext(ctx, "Applied enumeration", logfields.Path(a.Target), logfields.Count(a.Count))
		}
		var err error
		data, err = schema.Marshal(out)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "serialize schema").Fatal().Build()
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = s.runStage(ctx, StageVerify, func(context.Context) error {
		_, err := Compile(data)
		return err
	})
	if err != nil {
		return err
	}
	res.Schema = data
	res.SHA256 = Checksum(data)

	return s.runStage(ctx, StageWrite, func(ctx context.Context) error {
		same, err := unchanged(res.OutputPath, data)
		if err != nil {
			return err
		}
		switch {
		case same:
			observability.InfoContext(ctx, "Schema unchanged", logfields.Path(res.OutputPath))
			return nil
		case res.DryRun:
			res.Changed = true
			observability.InfoContext(ctx, "Dry run: schema would change", logfields.Path(res.OutputPath))
			return nil
		}
		if err := writeAtomic(res.OutputPath, data); err != nil {
			return err
		}
		res.Changed = true
		observability.InfoContext(ctx, "Schema written", logfields.Path(res.OutputPath), logfields.SHA256(res.SHA256))
		return nil
	})
}

// collectIdentifiers retrieves and parses the four identifier sources.
func (s *Syncer) collectIdentifiers(ctx context.Context, res *Result, ids *enhance.Identifiers) error {
	src := s.cfg.Sources
	th := s.cfg.Thresholds

	fetch := func(ctx context.Context, source, location string) ([]byte, error) {
		return s.getter.Fetch(observability.WithSource(ctx, source), location)
	}

	err := s.runStage(ctx, StagePlugins, func(ctx context.Context) error {
		page, err := fetch(ctx, "plugins", src.Plugins)
		if err != nil {
			return err
		}
		ids.Plugins, err = sources.ParsePlugins(page, th.Plugins)
		res.Plugins = len(ids.Plugins)
		s.recorder.SetExtractedCount("plugins", len(ids.Plugins))
		return err
	})
	if err != nil {
		return err
	}

	err = s.runStage(ctx, StageBases, func(ctx context.Context) error {
		page, err := fetch(ctx, "bases", src.Bases)
		if err != nil {
			return err
		}
		ids.Bases, err = sources.ParseBases(page, th.Bases)
		res.Bases = len(ids.Bases)
		s.recorder.SetExtractedCount("bases", len(ids.Bases))
		return err
	})
	if err != nil {
		return err
	}

	err = s.runStage(ctx, StageExtensions, func(ctx context.Context) error {
		artifacts, err := sources.FetchExtensionSources(observability.WithSource(ctx, "extensions"),
			s.getter, src.ExtensionRegistry, src.ExtensionLegacySchema)
		if err != nil {
			return err
		}
		report, err := sources.ParseExtensions(artifacts, th.Extensions)
		res.Extensions = report
		s.recorder.SetExtractedCount("extensions", len(report.Names))
		if err != nil {
			return err
		}
		ids.Extensions = report.Names
		observability.InfoContext(ctx, "Parsed extensions",
			logfields.Count(len(report.Names)),
			slog.Int("modern", report.Modern),
			slog.Int("legacy", report.Legacy))
		return nil
	})
	if err != nil {
		return err
	}

	return s.runStage(ctx, StageInterfaces, func(ctx context.Context) error {
		page, err := fetch(ctx, "interfaces", src.Interfaces)
		if err != nil {
			return err
		}
		ids.Interfaces, err = sources.ParseInterfaces(page, th.Interfaces)
		res.Interfaces = len(ids.Interfaces)
		s.recorder.SetExtractedCount("interfaces", len(ids.Interfaces))
		return err
	})
}

func (s *Syncer) header() synth.Header {
	h := synth.DefaultHeader(s.cfg.Sources.Reference)
	sc := s.cfg.Schema
	if sc.ID != "" {
		h.ID = sc.ID
	}
	if sc.Title != "" {
		h.Title = sc.Title
	}
	if sc.Subject != "" {
		h.Subject = sc.Subject
	}
	if len(sc.Required) > 0 {
		h.Required = append([]string(nil), sc.Required...)
	}
	return h
}

// finish reports the run outcome to metrics and history.
func (s *Syncer) finish(ctx context.Context, res *Result, runErr error) {
	s.recorder.ObserveSyncDuration(res.Duration)

	outcome := res.Outcome()
	switch {
	case runErr != nil && isCanceled(ctx, runErr):
		outcome = history.OutcomeCanceled
	case runErr != nil:
		outcome = history.OutcomeFailed
	}
	s.recorder.IncSyncOutcome(metrics.SyncOutcomeLabel(outcome))

	attrs := []slog.Attr{
		logfields.Outcome(string(outcome)),
		logfields.DurationMS(float64(res.Duration.Milliseconds())),
	}
	if runErr != nil {
		observability.ErrorContext(ctx, "Schema sync failed", append(attrs, logfields.Error(runErr))...)
	} else {
		observability.InfoContext(ctx, "Schema sync finished", append(attrs, logfields.SHA256(res.SHA256))...)
	}

	if s.history == nil {
		return
	}
	run := history.Run{
		ID:         res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.StartedAt.Add(res.Duration),
		Outcome:    outcome,
		Properties: res.Properties,
		Plugins:    res.Plugins,
		Bases:      res.Bases,
		Extensions: len(res.Extensions.Names),
		Interfaces: res.Interfaces,
		OutputPath: res.OutputPath,
		SHA256:     res.SHA256,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	// A canceled run context must not prevent recording why it stopped.
	if err := s.history.Record(context.WithoutCancel(ctx), run); err != nil {
		observability.WarnContext(ctx, "Failed to record run history", logfields.Error(err))
	}
}
