// Package commands implements the schemasync subcommands.
package commands

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/schemasync/internal/config"
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
	"git.home.luguber.info/inful/schemasync/internal/history"
	"git.home.luguber.info/inful/schemasync/internal/logfields"
	"git.home.luguber.info/inful/schemasync/internal/metrics"
	"git.home.luguber.info/inful/schemasync/internal/pipeline"
	"git.home.luguber.info/inful/schemasync/internal/sources"
)

// Global carries state shared by subcommands.
type Global struct {
	Logger *slog.Logger
	// Stdout receives command output. Nil means os.Stdout.
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"schemasync.yaml" env:"SCHEMASYNC_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Sync     SyncCmd     `cmd:"" help:"Regenerate the schema and write it if it changed"`
	Extract  ExtractCmd  `cmd:"" help:"Print the property records extracted from a reference document"`
	Validate ValidateCmd `cmd:"" help:"Validate snapcraft.yaml files against a generated schema"`
	History  HistoryCmd  `cmd:"" help:"List recorded sync runs"`
	Daemon   DaemonCmd   `cmd:"" help:"Keep the schema in sync on a schedule"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration file.
func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}

// loadConfigOrDefault falls back to the defaults when no file exists.
func loadConfigOrDefault(root *CLI) (*config.Config, error) {
	if _, err := os.Stat(root.Config); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No configuration file, using defaults", logfields.Path(root.Config))
		return config.Default(), nil
	}
	return loadConfig(root)
}

// services bundles what a sync needs beyond the configuration.
type services struct {
	recorder *metrics.PrometheusRecorder
	history  *history.Store
}

func openServices(cfg *config.Config) (*services, error) {
	rt := &services{}
	if cfg.Metrics.Enabled {
		rt.recorder = metrics.NewPrometheusRecorder(prometheus.NewRegistry(), cfg.Metrics.Namespace)
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		rt.history = store
	}
	return rt, nil
}

func (rt *services) metricsRecorder() metrics.Recorder {
	if rt.recorder == nil {
		return metrics.NoopRecorder{}
	}
	return rt.recorder
}

// syncer builds a pipeline for cfg sharing the metrics recorder and
// history.
func (rt *services) syncer(cfg *config.Config) *pipeline.Syncer {
	rec := rt.metricsRecorder()
	fetcher := sources.NewFetcher(cfg.HTTP).WithRecorder(rec)
	s := pipeline.New(cfg, fetcher).WithRecorder(rec)
	if rt.history != nil {
		s = s.WithHistory(rt.history)
	}
	return s
}

// flushMetrics writes the textfile export when configured.
func (rt *services) flushMetrics(cfg *config.Config) {
	if rt.recorder == nil || cfg.Metrics.TextfilePath == "" {
		return
	}
	if err := rt.recorder.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.TextfilePath), logfields.Error(err))
	}
}

func (rt *services) Close() {
	if rt.history == nil {
		return
	}
	if err := rt.history.Close(); err != nil {
		slog.Warn("Failed to close history store", logfields.Error(err))
	}
}

func readFile(path, what string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read "+what).
			WithContext("path", path).
			Build()
	}
	return data, nil
}
