package promptfmt

import (
	"strings"
	"testing"

	"github.com/archloom/archloom/internal/model"
)

func buildTree() model.ModuleTree {
	return model.ModuleTree{
		"auth": {Components: []string{"auth.go:Login"}},
		"billing": {Components: []string{"billing.go:Charge"}, Children: model.ModuleTree{
			"invoices": {Components: []string{"billing/invoice.go:Invoice"}},
		}},
		"util": {Components: []string{"util.go:Helper"}},
	}
}

func TestRenderTreeViewFullWhenBelowThreshold(t *testing.T) {
	out := RenderTreeView(buildTree(), "auth", 10)
	if strings.Contains(out, "use list_module_components to view") {
		t.Error("expected full view below threshold, got tiered markers")
	}
	if !strings.Contains(out, "auth.go:Login") {
		t.Error("expected current module's components listed")
	}
}

func TestRenderTreeViewTieredAboveThreshold(t *testing.T) {
	out := RenderTreeView(buildTree(), "auth", 501)

	if !strings.Contains(out, "(current module)") {
		t.Error("expected current module tag")
	}
	if strings.Contains(out, "use list_module_components to view") == false {
		t.Error("expected at least one collapsed non-sibling listing")
	}

	lines := strings.Split(out, "\n")
	for _, l := range lines {
		if strings.Contains(l, "(current module)") && strings.Contains(l, "use list_module_components") {
			t.Error("current module line must not be collapsed")
		}
	}
}

func TestRenderSourceBundleUsesExactSourceCode(t *testing.T) {
	components := model.ComponentTable{
		"a.go:Foo": {ID: "a.go:Foo", RelativePath: "a.go", SourceCode: "func Foo() {}", StartLine: 1, EndLine: 1},
	}
	out := RenderSourceBundle(components, []string{"a.go:Foo"})

	if !strings.Contains(out, "# File: a.go") {
		t.Error("expected file header")
	}
	if !strings.Contains(out, "## Component: a.go:Foo") {
		t.Error("expected component header")
	}
	if !strings.Contains(out, "func Foo() {}") {
		t.Error("expected exact source code inlined")
	}
}

func TestCountTokensAgreesWithEstimateTokens(t *testing.T) {
	components := model.ComponentTable{
		"a.go:Foo": {ID: "a.go:Foo", RelativePath: "a.go", SourceCode: "func Foo() { return }", StartLine: 1, EndLine: 1},
	}
	rendered := RenderSourceBundle(components, []string{"a.go:Foo"})
	if CountTokens(rendered) <= 0 {
		t.Error("expected nonzero token count for nonempty rendering")
	}
}
