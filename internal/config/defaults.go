package config

import (
	"git.home.luguber.info/inful/schemasync/internal/extract"
	"git.home.luguber.info/inful/schemasync/internal/synth"
)

// Default source locations.
const (
	DefaultReferenceURL  = "https://documentation.ubuntu.com/snapcraft/stable/reference/project-file/snapcraft-yaml/"
	DefaultPluginsURL    = "https://documentation.ubuntu.com/snapcraft/stable/reference/plugins/"
	DefaultBasesURL      = "https://documentation.ubuntu.com/snapcraft/stable/reference/bases/"
	DefaultInterfacesURL = "https://snapcraft.io/docs/supported-interfaces"

	DefaultExtensionRegistryURL     = "https://raw.githubusercontent.com/canonical/snapcraft/main/snapcraft/extensions/registry.py"
	DefaultExtensionLegacySchemaURL = "https://raw.githubusercontent.com/canonical/snapcraft/main/schema/snapcraft-legacy.json"

	DefaultUserAgent    = "Mozilla/5.0 (compatible; SnapcraftSchemaSync/2.0)"
	DefaultMaxBodyBytes = 20 << 20
)

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

// defaultAppliers run in order on every loaded configuration.
var defaultAppliers = []DefaultApplier{
	sourcesDefaults{},
	thresholdDefaults{},
	outputDefaults{},
	schemaDefaults{},
	extractionDefaults{},
	httpDefaults{},
	historyDefaults{},
	metricsDefaults{},
	daemonDefaults{},
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}

func setIfEmpty(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setIfZero(field *int, value int) {
	if *field <= 0 {
		*field = value
	}
}

type sourcesDefaults struct{}

func (sourcesDefaults) Domain() string { return "sources" }

func (sourcesDefaults) ApplyDefaults(cfg *Config) {
	s := &cfg.Sources
	setIfEmpty(&s.Reference, DefaultReferenceURL)
	setIfEmpty(&s.Plugins, DefaultPluginsURL)
	setIfEmpty(&s.Bases, DefaultBasesURL)
	setIfEmpty(&s.Interfaces, DefaultInterfacesURL)
	setIfEmpty(&s.ExtensionRegistry, DefaultExtensionRegistryURL)
	setIfEmpty(&s.ExtensionLegacySchema, DefaultExtensionLegacySchemaURL)
}

type thresholdDefaults struct{}

func (thresholdDefaults) Domain() string { return "thresholds" }

func (thresholdDefaults) ApplyDefaults(cfg *Config) {
	t := &cfg.Thresholds
	setIfZero(&t.Properties, 50)
	setIfZero(&t.Plugins, 15)
	setIfZero(&t.Bases, 5)
	setIfZero(&t.Extensions, 4)
	setIfZero(&t.Interfaces, 150)
}

type outputDefaults struct{}

func (outputDefaults) Domain() string { return "output" }

func (outputDefaults) ApplyDefaults(cfg *Config) {
	setIfEmpty(&cfg.Output.Path, "schemas/snapcraft.json")
}

type schemaDefaults struct{}

func (schemaDefaults) Domain() string { return "schema" }

func (schemaDefaults) ApplyDefaults(cfg *Config) {
	s := &cfg.Schema
	setIfEmpty(&s.ID, synth.DefaultID)
	setIfEmpty(&s.Title, synth.DefaultTitle)
	setIfEmpty(&s.Subject, synth.DefaultSubject)
	if len(s.Required) == 0 {
		s.Required = []string{"name"}
	}
}

type extractionDefaults struct{}

func (extractionDefaults) Domain() string { return "extraction" }

func (extractionDefaults) ApplyDefaults(cfg *Config) {
	e := &cfg.Extraction
	def := extract.DefaultOptions()
	if len(e.HeadingLevels) == 0 {
		e.HeadingLevels = def.HeadingLevels
	}
	if e.SkipTitles == nil {
		e.SkipTitles = def.SkipTitles
	}
	if e.SkipKeywords == nil {
		e.SkipKeywords = def.SkipKeywords
	}
	if e.HeadingMarkers == nil {
		e.HeadingMarkers = def.HeadingMarkers
	}
	if len(e.Rules) == 0 {
		e.Rules = synth.DefaultRules()
	}
}

type httpDefaults struct{}

func (httpDefaults) Domain() string { return "http" }

func (httpDefaults) ApplyDefaults(cfg *Config) {
	h := &cfg.HTTP
	setIfEmpty(&h.Timeout, "30s")
	setIfEmpty(&h.UserAgent, DefaultUserAgent)
	setIfZero(&h.MaxRedirects, 10)
	if h.MaxBodyBytes <= 0 {
		h.MaxBodyBytes = DefaultMaxBodyBytes
	}

	r := &h.Retry
	if r.Backoff == "" {
		r.Backoff = RetryBackoffExponential
	} else if m := NormalizeRetryBackoff(string(r.Backoff)); m != "" {
		r.Backoff = m
	}
	setIfEmpty(&r.InitialDelay, "1s")
	setIfEmpty(&r.MaxDelay, "10s")
	if r.MaxRetries < 0 {
		r.MaxRetries = 0
	}
	if r.MaxRetries == 0 {
		r.MaxRetries = 2
	}
}

type historyDefaults struct{}

func (historyDefaults) Domain() string { return "history" }

func (historyDefaults) ApplyDefaults(cfg *Config) {
	setIfEmpty(&cfg.History.Path, "./data/history.db")
}

type metricsDefaults struct{}

func (metricsDefaults) Domain() string { return "metrics" }

func (metricsDefaults) ApplyDefaults(cfg *Config) {
	setIfEmpty(&cfg.Metrics.Namespace, "schemasync")
}

type daemonDefaults struct{}

func (daemonDefaults) Domain() string { return "daemon" }

func (daemonDefaults) ApplyDefaults(cfg *Config) {
	setIfEmpty(&cfg.Daemon.Interval, "24h")
}
