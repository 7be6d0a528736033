package errors

import "maps"

// ErrorCategory classifies an error for exit codes and logging.
type ErrorCategory string

const (
	// CategoryConfig covers the configuration file and command-line input.
	CategoryConfig ErrorCategory = "config"
	// CategoryValidation covers documentation drift (counts below a minimum)
	// and documents rejected by the generated schema.
	CategoryValidation ErrorCategory = "validation"
	// CategoryNetwork covers failures retrieving remote documents.
	CategoryNetwork    ErrorCategory = "network"
	CategoryFileSystem ErrorCategory = "filesystem"
	// CategoryExtraction covers documents that cannot be parsed at all.
	CategoryExtraction ErrorCategory = "extraction"
	CategoryHistory    ErrorCategory = "history"
	// CategoryRuntime covers the scheduler and config watcher.
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryConfig:     7,
	CategoryNetwork:    8,
	CategoryInternal:   10,
	CategoryExtraction: 11,
	CategoryFileSystem: 11,
	CategoryRuntime:    12,
	CategoryHistory:    12,
}

// ExitCode is the process exit status for errors of this category.
func (c ErrorCategory) ExitCode() int {
	if code, ok := exitCodes[c]; ok {
		return code
	}
	return 1
}

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal ErrorSeverity = "fatal" // Stops the run
	SeverityError ErrorSeverity = "error" // Fails the current operation
)

// RetryStrategy indicates whether repeating the operation can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryRateLimit  RetryStrategy = "rate_limit"
	RetryUserAction RetryStrategy = "user"
)

// hintKey is the context key read by CLIErrorAdapter.
const hintKey = "hint"

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	value, ok := c[key]
	return value, ok
}

func (c ErrorContext) clone() ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	return out
}
