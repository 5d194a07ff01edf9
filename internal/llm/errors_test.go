package llm

import (
	"errors"
	"fmt"
	"testing"

	archerrors "github.com/archloom/archloom/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"rate limit", "429 too many requests", archerrors.ErrRateLimited},
		{"overloaded", "the model is overloaded", archerrors.ErrRateLimited},
		{"context length", "maximum context length exceeded", archerrors.ErrContextLengthExceeded},
		{"auth", "401 Unauthorized: invalid api key", archerrors.ErrAuthFailed},
		{"timeout", "context deadline exceeded", archerrors.ErrTimeout},
		{"network", "dial tcp: connection refused", archerrors.ErrNetwork},
		{"unknown", "something went sideways", archerrors.ErrProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapClassified(fmt.Errorf(tt.in))
			if !errors.Is(err, tt.want) {
				t.Errorf("classify(%q) did not match %v", tt.in, tt.want)
			}
		})
	}
}

func TestWrapClassifiedNilIsNil(t *testing.T) {
	if wrapClassified(nil) != nil {
		t.Error("expected nil in, nil out")
	}
}
