package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"git.home.luguber.info/inful/schemasync/internal/config"
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
	"git.home.luguber.info/inful/schemasync/internal/logfields"
	"git.home.luguber.info/inful/schemasync/internal/metrics"
	"git.home.luguber.info/inful/schemasync/internal/retry"
)

// fileSource labels metrics for local reads.
const fileSource = "file"

// NewHTTPClient returns a client with a request timeout that follows at most
// maxRedirects redirects and logs each hop.
func NewHTTPClient(timeout time.Duration, maxRedirects int) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			slog.Info("Following redirect",
				slog.String("from", via[len(via)-1].URL.String()),
				logfields.URL(req.URL.String()))
			return nil
		},
	}
}

// Fetcher reads documents from http(s) URLs, file:// URLs and local paths.
// HTTP transport errors, 5xx and 429 responses are retried per the policy;
// other HTTP errors fail immediately.
type Fetcher struct {
	client    *http.Client
	policy    retry.Policy
	userAgent string
	maxBytes  int64
	recorder  metrics.Recorder
}

// NewFetcher builds a Fetcher from the http configuration section.
func NewFetcher(cfg config.HTTPConfig) *Fetcher {
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxBodyBytes
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}
	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client:    NewHTTPClient(timeout, maxRedirects),
		policy:    retry.FromConfig(cfg.Retry),
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		recorder:  metrics.NoopRecorder{},
	}
}

// WithRecorder sets the metrics recorder.
func (f *Fetcher) WithRecorder(r metrics.Recorder) *Fetcher {
	if r != nil {
		f.recorder = r
	}
	return f
}

// WithClient replaces the HTTP client.
func (f *Fetcher) WithClient(c *http.Client) *Fetcher {
	if c != nil {
		f.client = c
	}
	return f
}

// WithPolicy replaces the retry policy.
func (f *Fetcher) WithPolicy(p retry.Policy) *Fetcher {
	f.policy = p
	return f
}

// Fetch returns the content at location.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid source location").
			WithContext("location", location).
			Build()
	}
	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, location, u.Host)
	case "file":
		return f.readFile(u.Path)
	case "":
		return f.readFile(location)
	default:
		return nil, ferrors.ConfigError(fmt.Sprintf("unsupported source scheme %q", u.Scheme)).
			WithContext("location", location).
			Build()
	}
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	f.recorder.ObserveFetchDuration(fileSource, time.Since(start), err == nil)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read source").
			WithContext("path", path).
			Build()
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ferrors.FileSystemError("source file too large").
			WithContext("path", path).
			WithContext("limit", f.maxBytes).
			Build()
	}
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, location, host string) ([]byte, error) {
	slog.Info("Fetching", logfields.URL(location))
	start := time.Now()

	var data []byte
	err := f.policy.Do(ctx, func(ctx context.Context) (bool, error) {
		body, retryable, err := f.fetchOnce(ctx, location)
		data = body
		return retryable, err
	}, func(attempt int, err error) {
		f.recorder.IncFetchRetry(host)
		slog.Warn("Fetch failed, retrying",
			logfields.URL(location),
			logfields.Attempt(attempt),
			logfields.Error(err))
	})
	f.recorder.ObserveFetchDuration(host, time.Since(start), err == nil)
	if err == nil {
		return data, nil
	}
	if _, ok := ferrors.AsClassified(err); !ok {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "fetch canceled").
			WithContext("url", location).
			Build()
	}
	return nil, err
}

// fetchOnce performs one request and reports whether a failure may be retried.
func (f *Fetcher) fetchOnce(ctx context.Context, location string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, false, ferrors.WrapError(err, ferrors.CategoryConfig, "build request").
			WithContext("url", location).
			Build()
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		retryable := ctx.Err() == nil
		b := ferrors.WrapError(err, ferrors.CategoryNetwork, "network error").WithContext("url", location)
		if retryable {
			b = b.Retryable()
		}
		return nil, retryable, b.Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		b := ferrors.NetworkError(fmt.Sprintf("HTTP %d %s fetching %s", resp.StatusCode, http.StatusText(resp.StatusCode), location)).
			WithContext("url", location).
			WithContext("status", resp.StatusCode)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			b = b.RateLimit()
		case !retryable:
			b = b.WithRetry(ferrors.RetryUserAction).WithHint("documentation may have moved; update the source URL")
		}
		return nil, retryable, b.Build()
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, true, ferrors.WrapError(err, ferrors.CategoryNetwork, "read response").
			WithContext("url", location).
			Retryable().
			Build()
	}
	if int64(len(data)) > f.maxBytes {
		return nil, false, ferrors.NetworkError("response too large").
			WithContext("url", location).
			WithContext("limit", f.maxBytes).
			WithRetry(ferrors.RetryNever).
			Build()
	}
	if final := resp.Request.URL.String(); final != location {
		slog.Info("Redirected", logfields.URL(location), slog.String("final_url", final))
	}
	return data, false, nil
}
