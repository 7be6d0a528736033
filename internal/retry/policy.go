package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/schemasync/internal/config"
)

// Policy is the backoff schedule for retried document fetches.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // maximum retry attempts after the first failure
}

// DefaultPolicy is exponential from 1s, capped at 10s, with 2 retries.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffExponential, Initial: time.Second, Max: 10 * time.Second, MaxRetries: 2}
}

// NewPolicy builds a policy; zero or unknown values keep the defaults and
// Initial is clamped to Max.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	if m := config.NormalizeRetryBackoff(string(mode)); m != "" {
		p.Mode = m
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromConfig builds a policy from the http.retry configuration section.
func FromConfig(rc config.RetryConfig) Policy {
	return NewPolicy(rc.Backoff, rc.InitialDelayDuration(), rc.MaxDelayDuration(), rc.MaxRetries)
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Wait blocks for the delay of retryCount or until ctx is done.
func (p Policy) Wait(ctx context.Context, retryCount int) error {
	d := p.Delay(retryCount)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Op is one attempt of a retried operation. It reports whether a failure
// is worth another attempt.
type Op func(ctx context.Context) (retryable bool, err error)

// Do runs op until it succeeds, fails permanently or MaxRetries retries are
// spent, waiting Delay between attempts. onRetry, when non-nil, is called
// with the failed attempt number (1-based) and its error before each wait.
// A context canceled while waiting is returned as ctx.Err().
func (p Policy) Do(ctx context.Context, op Op, onRetry func(attempt int, err error)) error {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := p.Wait(ctx, attempt); err != nil {
				return err
			}
		}
		retryable, err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryable || attempt >= p.MaxRetries {
			return err
		}
		if onRetry != nil {
			onRetry(attempt+1, err)
		}
	}
}
