package overview

import (
	"strings"
	"testing"

	"github.com/archloom/archloom/internal/model"
)

func TestQuickOverviewListsModulesWithCounts(t *testing.T) {
	tree := model.ModuleTree{
		"auth":    {Components: []string{"a.b.Login", "a.b.Logout"}},
		"billing": {Components: []string{"b.c.Charge"}},
	}
	out := QuickOverview(tree)
	if !strings.Contains(out, "auth") || !strings.Contains(out, "2 components") {
		t.Errorf("expected auth with 2 components in output, got:\n%s", out)
	}
	if !strings.Contains(out, "billing") {
		t.Error("expected billing listed")
	}
}

func TestRenderParentOverviewProducesValidDiagram(t *testing.T) {
	children := []ChildSummary{
		{Name: "auth", DocName: "auth", Summary: "Handles login"},
		{Name: "billing", DocName: "billing"},
	}
	md := RenderParentOverview("root", children)

	if !strings.Contains(md, "[auth](auth.md)") {
		t.Error("expected markdown link to auth.md")
	}
	if err := ValidateDiagram(md, []string{"auth", "billing"}); err != nil {
		t.Fatalf("ValidateDiagram: %v", err)
	}
}

func TestValidateDiagramRejectsMissingClick(t *testing.T) {
	md := "# Root\n\n```mermaid\ngraph TD\n  a[\"auth\"]\n```\n"
	if err := ValidateDiagram(md, []string{"auth"}); err == nil {
		t.Fatal("expected error for missing click directive")
	}
}

func TestValidateDiagramRejectsNonGraphHeader(t *testing.T) {
	md := "```mermaid\nsequenceDiagram\n  A->>B: hi\n```\n"
	if err := ValidateDiagram(md, nil); err == nil {
		t.Fatal("expected error for non graph/flowchart header")
	}
}

func TestValidateDiagramRejectsMultipleBlocks(t *testing.T) {
	md := "```mermaid\ngraph TD\n  a\n```\n\n```mermaid\ngraph TD\n  b\n```\n"
	if err := ValidateDiagram(md, nil); err == nil {
		t.Fatal("expected error for multiple mermaid blocks")
	}
}
