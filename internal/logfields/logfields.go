package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyURL        = "url"
	KeySource     = "source"
	KeyCategory   = "category"
	KeyCount      = "count"
	KeyMinimum    = "minimum"
	KeyPath       = "path"
	KeyAttempt    = "attempt"
	KeyStatus     = "status"
	KeyOutcome    = "outcome"
	KeySHA256     = "sha256"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Minimum(n int) slog.Attr         { return slog.Int(KeyMinimum, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func SHA256(sum string) slog.Attr     { return slog.String(KeySHA256, sum) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
