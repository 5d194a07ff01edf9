package llm

import (
	"strings"

	archerrors "github.com/archloom/archloom/internal/errors"
)

// classify maps a raw provider error string onto the sentinel taxonomy in
// internal/errors, generalizing the teacher's FileAnalyzer.completeWithRetry
// substring checks ("rate_limit", "429", "overloaded") into typed errors
// classifiable with errors.Is rather than ad hoc string matching at every
// call site.
func classify(errStr string) error {
	lower := strings.ToLower(errStr)
	switch {
	case strings.Contains(lower, "rate_limit"), strings.Contains(lower, "429"),
		strings.Contains(lower, "too many requests"), strings.Contains(lower, "overloaded"):
		return archerrors.ErrRateLimited
	case strings.Contains(lower, "context_length"), strings.Contains(lower, "maximum context"),
		strings.Contains(lower, "context window"):
		return archerrors.ErrContextLengthExceeded
	case strings.Contains(lower, "401"), strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "invalid api key"), strings.Contains(lower, "authentication"):
		return archerrors.ErrAuthFailed
	case strings.Contains(lower, "deadline exceeded"), strings.Contains(lower, "timeout"),
		strings.Contains(lower, "timed out"):
		return archerrors.ErrTimeout
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"),
		strings.Contains(lower, "network"):
		return archerrors.ErrNetwork
	default:
		return archerrors.ErrProviderError
	}
}

// wrapClassified wraps err with the classified sentinel while keeping the
// original message visible, so errors.Is(err, archerrors.ErrRateLimited)
// succeeds without losing provider-specific detail.
func wrapClassified(err error) error {
	if err == nil {
		return nil
	}
	sentinel := classify(err.Error())
	return &classifiedError{sentinel: sentinel, detail: err}
}

type classifiedError struct {
	sentinel error
	detail   error
}

func (e *classifiedError) Error() string { return e.detail.Error() }
func (e *classifiedError) Unwrap() error { return e.sentinel }

// classifyOpenAIError classifies an error returned by the go-openai client.
func classifyOpenAIError(err error) error {
	return wrapClassified(err)
}
