package analyze

import (
	"testing"

	"github.com/archloom/archloom/internal/model"
)

func TestDispatchByExtension(t *testing.T) {
	tests := map[string]string{
		"main.go":       "go",
		"app.py":        "python",
		"index.ts":      "typescript",
		"component.tsx": "typescript",
		"script.js":     "javascript",
		"lib.rs":        "rust",
	}
	for path, wantLang := range tests {
		a := Dispatch(path)
		if a == nil {
			t.Fatalf("Dispatch(%q) returned nil", path)
		}
		if a.Language() != wantLang {
			t.Errorf("Dispatch(%q).Language() = %q, want %q", path, a.Language(), wantLang)
		}
	}
}

func TestDispatchUnknownExtensionReturnsNil(t *testing.T) {
	if a := Dispatch("README.md"); a != nil {
		t.Errorf("expected nil analyzer for unsupported extension, got %v", a)
	}
}

func TestGoAnalyzerExtractsFunctionsMethodsAndTypes(t *testing.T) {
	src := `package example

type Widget struct {
	Name string
}

func (w *Widget) Render() string {
	return helper(w.Name)
}

func helper(name string) string {
	return name
}
`
	a := &GoAnalyzer{}
	components, edges := a.Analyze("/repo/widget.go", []byte(src), "/repo")

	kinds := map[string]model.Kind{}
	for _, c := range components {
		kinds[c.Name] = c.Kind
	}

	if kinds["Widget"] != model.KindStruct {
		t.Errorf("expected Widget to be a struct, got %v", kinds["Widget"])
	}
	if kinds["Widget.Render"] != model.KindMethod {
		t.Errorf("expected Widget.Render to be a method, got %v", kinds["Widget.Render"])
	}
	if kinds["helper"] != model.KindFunction {
		t.Errorf("expected helper to be a function, got %v", kinds["helper"])
	}

	foundCall := false
	for _, e := range edges {
		if e.CalleeID == "helper" {
			foundCall = true
		}
	}
	if !foundCall {
		t.Error("expected an edge from Widget.Render to helper")
	}
}

func TestGoAnalyzerNeverPanicsOnGarbage(t *testing.T) {
	a := &GoAnalyzer{}
	components, edges := a.Analyze("/repo/broken.go", []byte("not even close to valid go {{{"), "/repo")
	_ = components
	_ = edges
}
