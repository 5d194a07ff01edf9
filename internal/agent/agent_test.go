package agent

import (
	"context"
	"testing"

	"github.com/archloom/archloom/internal/llm"
	"github.com/archloom/archloom/internal/model"
	"github.com/archloom/archloom/internal/tools"
)

// scriptedProvider returns each response in order, one per Complete call.
type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.calls >= len(p.responses) {
		return &llm.CompletionResponse{Content: "done"}, nil
	}
	content := p.responses[p.calls]
	p.calls++
	return &llm.CompletionResponse{Content: content, InputTokens: 10, OutputTokens: 5}, nil
}

func TestAgentDispatchesToolCallThenFinishes(t *testing.T) {
	dispatcher := &tools.Dispatcher{
		Components:    model.ComponentTable{"a.b.Foo": {ID: "a.b.Foo", SourceCode: "func Foo() {}"}},
		CurrentModule: &model.Module{},
		WorkingDir:    t.TempDir(),
	}

	provider := &scriptedProvider{responses: []string{
		"```tool_call\n{\"tool\": \"read_code_components\", \"arguments\": {\"ids\": [\"a.b.Foo\"]}}\n```",
		"Documentation written. No further action needed.",
	}}

	a := New(provider, "mock-model", "doc_generation", "system prompt", "user prompt", tools.Surface(10, false, 500), dispatcher, nil)
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.state != StateDone {
		t.Errorf("expected Done state, got %q", a.state)
	}
	if provider.calls != 2 {
		t.Errorf("expected 2 completion calls, got %d", provider.calls)
	}
}

func TestAgentFinishesImmediatelyWithNoToolCall(t *testing.T) {
	dispatcher := &tools.Dispatcher{
		Components:    model.ComponentTable{},
		CurrentModule: &model.Module{},
		WorkingDir:    t.TempDir(),
	}
	provider := &scriptedProvider{responses: []string{"no tool call here"}}

	a := New(provider, "mock-model", "doc_generation", "system", "user", tools.Surface(10, false, 500), dispatcher, nil)
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("expected exactly 1 completion call, got %d", provider.calls)
	}
}

func TestParseToolCallRejectsMalformedBlock(t *testing.T) {
	if _, ok := parseToolCall("```tool_call\nnot json\n```"); ok {
		t.Error("expected malformed tool_call block to be rejected")
	}
	if _, ok := parseToolCall("plain text response"); ok {
		t.Error("expected plain text to have no tool call")
	}
}
