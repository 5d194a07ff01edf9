package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/archloom/archloom/internal/model"
)

type stubRunner struct {
	calls []string
}

func (s *stubRunner) RunSubAgent(ctx context.Context, parentPath, name string, m *model.Module, depth int) (bool, error) {
	s.calls = append(s.calls, name)
	return false, nil
}

func TestReadCodeComponentsReturnsSourceOrNotFound(t *testing.T) {
	d := &Dispatcher{
		Components: model.ComponentTable{
			"a.b.Foo": {ID: "a.b.Foo", SourceCode: "func Foo() {}"},
		},
	}
	out := d.ReadCodeComponents([]string{"a.b.Foo", "missing.Id"})
	if !strings.Contains(out, "func Foo() {}") {
		t.Error("expected source code for found id")
	}
	if !strings.Contains(out, "not found") {
		t.Error("expected not-found marker for missing id")
	}
}

func TestGenerateSubModuleDocumentationInsertsChildrenAndDelegates(t *testing.T) {
	runner := &stubRunner{}
	d := &Dispatcher{
		Components: model.ComponentTable{
			"a.b.Foo": {ID: "a.b.Foo"},
			"a.b.Bar": {ID: "a.b.Bar"},
		},
		CurrentModule: &model.Module{},
		CurrentPath:   "a",
		CurrentDepth:  1,
		MinDepth:      2,
		Runner:        runner,
	}

	spec := `{"parser": ["a.b.Foo"], "writer": ["a.b.Bar"]}`
	if _, err := d.GenerateSubModuleDocumentation(context.Background(), spec); err != nil {
		t.Fatalf("GenerateSubModuleDocumentation: %v", err)
	}

	if len(d.CurrentModule.Children) != 2 {
		t.Fatalf("expected 2 children inserted, got %d", len(d.CurrentModule.Children))
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected 2 delegated sub-agent runs, got %d", len(runner.calls))
	}
}

func TestGenerateSubModuleDocumentationRejectsInvalidSpec(t *testing.T) {
	d := &Dispatcher{
		Components:    model.ComponentTable{},
		CurrentModule: &model.Module{},
		Runner:        &stubRunner{},
	}
	if _, err := d.GenerateSubModuleDocumentation(context.Background(), "not json"); err == nil {
		t.Fatal("expected ToolAbuse for invalid spec JSON")
	}
}
