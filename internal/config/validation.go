package config

import (
	"fmt"
	"net/url"
	"time"

	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
	"git.home.luguber.info/inful/schemasync/internal/synth"
)

// Validate checks the configuration after defaults were applied.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateSources,
		c.validateExtraction,
		c.validateDurations,
		c.validateHTTP,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return ferrors.ConfigError(fmt.Sprintf("%s: %s", field, fmt.Sprintf(format, args...))).
		WithContext("field", field).
		Build()
}

func (c *Config) validateSources() error {
	sources := map[string]string{
		"sources.reference":               c.Sources.Reference,
		"sources.plugins":                 c.Sources.Plugins,
		"sources.bases":                   c.Sources.Bases,
		"sources.interfaces":              c.Sources.Interfaces,
		"sources.extension_registry":      c.Sources.ExtensionRegistry,
		"sources.extension_legacy_schema": c.Sources.ExtensionLegacySchema,
	}
	for field, raw := range sources {
		u, err := url.Parse(raw)
		if err != nil {
			return invalid(field, "invalid location %q: %v", raw, err)
		}
		switch u.Scheme {
		case "", "file", "http", "https":
		default:
			return invalid(field, "unsupported scheme %q", u.Scheme)
		}
	}
	return nil
}

func (c *Config) validateExtraction() error {
	for _, l := range c.Extraction.HeadingLevels {
		if l < 1 || l > 6 {
			return invalid("extraction.heading_levels", "heading level %d out of range 1-6", l)
		}
	}
	if err := synth.ValidateRules(c.Extraction.Rules); err != nil {
		return invalid("extraction.rules", "%v", err)
	}
	return nil
}

func (c *Config) validateDurations() error {
	durations := []struct {
		field, value string
	}{
		{"http.timeout", c.HTTP.Timeout},
		{"http.retry.initial_delay", c.HTTP.Retry.InitialDelay},
		{"http.retry.max_delay", c.HTTP.Retry.MaxDelay},
		{"daemon.interval", c.Daemon.Interval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return invalid(d.field, "invalid duration %q", d.value)
		}
		if v <= 0 {
			return invalid(d.field, "duration must be positive")
		}
	}
	return nil
}

func (c *Config) validateHTTP() error {
	if NormalizeRetryBackoff(string(c.HTTP.Retry.Backoff)) == "" {
		return invalid("http.retry.backoff", "unknown backoff mode %q", c.HTTP.Retry.Backoff)
	}
	return nil
}

// mustDuration parses a duration that Validate already accepted.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// TimeoutDuration returns the per-request timeout.
func (h HTTPConfig) TimeoutDuration() time.Duration { return mustDuration(h.Timeout) }

// InitialDelayDuration returns the first retry delay.
func (r RetryConfig) InitialDelayDuration() time.Duration { return mustDuration(r.InitialDelay) }

// MaxDelayDuration returns the retry delay cap.
func (r RetryConfig) MaxDelayDuration() time.Duration { return mustDuration(r.MaxDelay) }

// IntervalDuration returns the daemon sync interval.
func (d DaemonConfig) IntervalDuration() time.Duration { return mustDuration(d.Interval) }
