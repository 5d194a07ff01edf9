// Package errors declares the typed error taxonomy shared by every stage,
// grounded in the teacher's substring-based error classification in
// indexer.FileAnalyzer.completeWithRetry, generalized into sentinel values
// so callers can classify with errors.Is instead of string matching.
package errors

import (
	"fmt"
	"time"
)

// Sentinel errors for conditions that terminate a run.
var (
	ErrEmptyRepository         = fmt.Errorf("empty repository: no components discovered")
	ErrEmptyLeafSet            = fmt.Errorf("empty leaf set: no leaves to cluster")
	ErrTreeInvariantViolation  = fmt.Errorf("module tree references a component id missing from the component table")
)

// LLM failure subtypes, per spec §7.
var (
	ErrRateLimited          = fmt.Errorf("llm: rate limited")
	ErrContextLengthExceeded = fmt.Errorf("llm: context length exceeded")
	ErrAuthFailed           = fmt.Errorf("llm: authentication failed")
	ErrTimeout              = fmt.Errorf("llm: request timed out")
	ErrNetwork              = fmt.Errorf("llm: network error")
	ErrProviderError        = fmt.Errorf("llm: provider error")
	ErrTruncatedResponse    = fmt.Errorf("llm: response truncated before a parseable result")
)

// ToolAbuse is returned to the agent as a tool result, never raised up the
// call stack — the agent asked for a path or component id outside its
// bounds.
type ToolAbuse struct {
	Tool   string
	Reason string
}

func (e *ToolAbuse) Error() string {
	return fmt.Sprintf("tool abuse in %s: %s", e.Tool, e.Reason)
}

// ParseFailure records a single file's analyzer failure. It is logged and
// never propagated — the graph builder proceeds with empty results for
// that file.
type ParseFailure struct {
	FilePath string
	Err      error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse failure in %s: %v", e.FilePath, e.Err)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

// Fatal wraps an unrecoverable error with the diagnostic context spec §7
// requires on every fatal surface: stage, module path, prompt-token count,
// model, and duration.
type Fatal struct {
	Stage        string
	ModulePath   string
	PromptTokens int
	Model        string
	Duration     time.Duration
	Err          error
}

func (e *Fatal) Error() string {
	return fmt.Sprintf("fatal in stage=%s module=%q model=%s prompt_tokens=%d duration=%s: %v",
		e.Stage, e.ModulePath, e.Model, e.PromptTokens, e.Duration, e.Err)
}

func (e *Fatal) Unwrap() error { return e.Err }
