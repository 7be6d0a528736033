package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/schemasync/internal/extract"
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
	"git.home.luguber.info/inful/schemasync/internal/synth"
)

// CurrentVersion is the configuration format version written by Init.
const CurrentVersion = "1"

// Config is the schemasync configuration file.
type Config struct {
	Version    string           `yaml:"version"`
	Sources    SourcesConfig    `yaml:"sources"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Output     OutputConfig     `yaml:"output"`
	Schema     SchemaConfig     `yaml:"schema"`
	Extraction ExtractionConfig `yaml:"extraction"`
	HTTP       HTTPConfig       `yaml:"http"`
	History    HistoryConfig    `yaml:"history"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Daemon     DaemonConfig     `yaml:"daemon"`
}

// SourcesConfig locates the documents the schema is generated from. Each
// entry is an http(s) URL, a file:// URL or a local path.
type SourcesConfig struct {
	Reference  string `yaml:"reference"`
	Plugins    string `yaml:"plugins"`
	Bases      string `yaml:"bases"`
	Interfaces string `yaml:"interfaces"`
	// Extension names are read from source artifacts rather than rendered
	// documentation.
	ExtensionRegistry     string `yaml:"extension_registry"`
	ExtensionLegacySchema string `yaml:"extension_legacy_schema"`
}

// ThresholdsConfig sets the minimum counts below which a run aborts.
type ThresholdsConfig struct {
	Properties int `yaml:"properties"`
	Plugins    int `yaml:"plugins"`
	Bases      int `yaml:"bases"`
	Extensions int `yaml:"extensions"`
	Interfaces int `yaml:"interfaces"`
}

// OutputConfig controls where the schema is written.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// SchemaConfig holds the generated document header.
type SchemaConfig struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Subject  string   `yaml:"subject"`
	Required []string `yaml:"required"`
}

// ExtractionConfig tunes property extraction and path categorization.
type ExtractionConfig struct {
	HeadingLevels  []int        `yaml:"heading_levels,omitempty"`
	SkipTitles     []string     `yaml:"skip_titles,omitempty"`
	SkipKeywords   []string     `yaml:"skip_keywords,omitempty"`
	HeadingMarkers []string     `yaml:"heading_markers,omitempty"`
	Rules          []synth.Rule `yaml:"rules,omitempty"`
}

// Options returns the extractor options.
func (e ExtractionConfig) Options() extract.Options {
	return extract.Options{
		HeadingLevels:  e.HeadingLevels,
		SkipTitles:     e.SkipTitles,
		SkipKeywords:   e.SkipKeywords,
		HeadingMarkers: e.HeadingMarkers,
	}
}

// HTTPConfig configures document retrieval.
type HTTPConfig struct {
	Timeout      string      `yaml:"timeout"`
	UserAgent    string      `yaml:"user_agent"`
	MaxRedirects int         `yaml:"max_redirects"`
	MaxBodyBytes int64       `yaml:"max_body_bytes"`
	Retry        RetryConfig `yaml:"retry"`
}

// RetryConfig configures retries of failed fetches.
type RetryConfig struct {
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay string           `yaml:"initial_delay"`
	MaxDelay     string           `yaml:"max_delay"`
	MaxRetries   int              `yaml:"max_retries"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsConfig controls Prometheus metrics. When TextfilePath is set the
// registry is written there after every run in the node-exporter textfile
// format.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Namespace    string `yaml:"namespace"`
	TextfilePath string `yaml:"textfile_path"`
}

// DaemonConfig configures periodic synchronization. Cron, when set, replaces
// Interval with a crontab expression.
type DaemonConfig struct {
	Interval    string `yaml:"interval"`
	Cron        string `yaml:"cron,omitempty"`
	WatchConfig bool   `yaml:"watch_config"`
	RunOnStart  bool   `yaml:"run_on_start"`
}

// envFiles are loaded, when present, before the configuration is read.
// Variables already set in the process environment win.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("path", path))
	}
}

// Load reads, expands, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ConfigError(fmt.Sprintf("configuration file not found: %s", path)).
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Build()
	}
	return Parse(data)
}

// Parse decodes configuration YAML. ${VAR} references are expanded from the
// environment before decoding.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config").Fatal().Build()
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration to path.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).
			WithContext("path", path).
			Build()
	}

	cfg := Default()
	cfg.History.Enabled = true
	cfg.Metrics.TextfilePath = "./data/schemasync.prom"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal config").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}
