// Package errors provides the classified error type used across schemasync.
//
// A ClassifiedError carries a category, a severity, a retry strategy and
// structured context. The fluent ErrorBuilder keeps construction uniform, and
// CLIErrorAdapter maps categories onto process exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryNetwork, "fetch failed").
//		Retryable().
//		WithContext("url", pageURL).
//		Build()
package errors
