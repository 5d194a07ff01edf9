// Package overview implements C9: the quick structural overview emitted
// right after Stage 2, and the parent-overview Markdown + Mermaid diagram
// synthesized for every non-leaf module once its children are documented.
// Node/edge text generation is grounded in the teacher's
// internal/diagrams/mermaid.go (sanitizeID/escapeMermaid) and
// internal/docs/mermaid_sanitize.go (graph TD/flowchart TD as the only
// supported header, "end" depth tracking) — both reused here for
// deterministic text we generate ourselves rather than LLM output we
// merely clean up, since C9 is explicitly LLM-free in spec §4.9.
package overview

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/archloom/archloom/internal/model"
)

// ChildSummary is one child module's entry in a parent overview: its
// name, the navigable doc id used to build the Markdown link and click
// target, and an optional one-paragraph summary pulled from the child's
// first Markdown heading.
type ChildSummary struct {
	Name    string
	DocName string // filename without extension, e.g. "auth" for auth.md
	Summary string
}

// QuickOverview renders a structure-only Markdown summary of tree with no
// LLM involvement, so a usable artifact exists even if every later stage
// fails. It is always overwritten once the final overview is synthesized.
func QuickOverview(tree model.ModuleTree) string {
	var b strings.Builder
	b.WriteString("# Overview\n\n")
	b.WriteString("_Structural summary, generated before documentation authoring._\n\n")
	writeQuickNode(&b, tree, 0)
	return b.String()
}

func writeQuickNode(b *strings.Builder, tree model.ModuleTree, depth int) {
	for _, name := range sortedKeys(tree) {
		m := tree[name]
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(b, "%s- **%s** (%d components)\n", indent, name, len(m.Components))
		if len(m.Children) > 0 {
			writeQuickNode(b, m.Children, depth+1)
		}
	}
}

// RenderParentOverview builds the Markdown for a non-leaf module: a short
// heading, one line per child, and a graph TD diagram with one node and
// one click directive per child. moduleName is used as the page heading;
// file naming is the caller's concern (internal/artifacts.ModulePath),
// which writes every module's file flat under the working directory so
// the bare `<child>.md` links and click targets built here always
// resolve regardless of the child's depth in the module tree.
func RenderParentOverview(moduleName string, children []ChildSummary) string {
	var b strings.Builder
	heading := moduleName
	if heading == "" {
		heading = "Overview"
	}
	fmt.Fprintf(&b, "# %s\n\n", heading)

	sorted := append([]ChildSummary(nil), children...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, c := range sorted {
		fmt.Fprintf(&b, "- [%s](%s.md)", c.Name, c.DocName)
		if c.Summary != "" {
			fmt.Fprintf(&b, " — %s", c.Summary)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(renderDiagram(moduleName, sorted))
	return b.String()
}

func renderDiagram(moduleName string, children []ChildSummary) string {
	rootID := sanitizeMermaidID(moduleName)
	if rootID == "" {
		rootID = "root"
	}

	var b strings.Builder
	b.WriteString("```mermaid\n")
	b.WriteString("graph TD\n")
	fmt.Fprintf(&b, "  %s[\"%s\"]\n", rootID, escapeMermaidLabel(displayName(moduleName)))
	for _, c := range children {
		childID := sanitizeMermaidID(c.Name)
		fmt.Fprintf(&b, "  %s --> %s[\"%s\"]\n", rootID, childID, escapeMermaidLabel(c.Name))
	}
	for _, c := range children {
		childID := sanitizeMermaidID(c.Name)
		fmt.Fprintf(&b, "  click %s \"%s.md\" \"%s\"\n", childID, c.DocName, escapeMermaidLabel(c.Name))
	}
	b.WriteString("```\n")
	return b.String()
}

func displayName(moduleName string) string {
	if moduleName == "" {
		return "overview"
	}
	return moduleName
}

func sortedKeys(tree model.ModuleTree) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sanitizeMermaidID replaces characters invalid in a Mermaid node id,
// mirroring the teacher's diagrams.sanitizeID.
func sanitizeMermaidID(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ".", "_", "-", "_", " ", "_",
		"(", "_", ")", "_", "[", "_", "]", "_", "{", "_", "}", "_", ":", "_",
	)
	return replacer.Replace(s)
}

// escapeMermaidLabel escapes characters with special meaning inside a
// Mermaid label, mirroring the teacher's diagrams.escapeMermaid.
func escapeMermaidLabel(s string) string {
	replacer := strings.NewReplacer(
		"\"", "#quot;", "(", "#lpar;", ")", "#rpar;",
		"[", "#lsqb;", "]", "#rsqb;", "{", "#lbrace;", "}", "#rbrace;",
		"<", "#lt;", ">", "#gt;",
	)
	return replacer.Replace(s)
}

// ValidateDiagram checks the testable "diagram grammar" property of spec
// §8: exactly one fenced mermaid code block, a graph TD/flowchart TD
// opening line, and one click directive per expected child. It parses
// with goldmark's AST rather than scanning text directly, so the check
// reflects how a real Markdown renderer would see the document.
func ValidateDiagram(markdownContent string, expectedChildren []string) error {
	md := goldmark.New()
	reader := text.NewReader([]byte(markdownContent))
	doc := md.Parser().Parse(reader)

	var mermaidBlocks []string
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lang := string(block.Language([]byte(markdownContent)))
		if lang != "mermaid" {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		for i := 0; i < block.Lines().Len(); i++ {
			line := block.Lines().At(i)
			buf.Write(line.Value([]byte(markdownContent)))
		}
		mermaidBlocks = append(mermaidBlocks, buf.String())
		return ast.WalkContinue, nil
	})
	if err != nil {
		return fmt.Errorf("overview: walking markdown AST: %w", err)
	}

	if len(mermaidBlocks) != 1 {
		return fmt.Errorf("overview: expected exactly one mermaid block, found %d", len(mermaidBlocks))
	}
	body := mermaidBlocks[0]

	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) == 0 {
		return fmt.Errorf("overview: mermaid block is empty")
	}
	header := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(header, "graph TD") && !strings.HasPrefix(header, "flowchart TD") {
		return fmt.Errorf("overview: mermaid block must open with graph TD or flowchart TD, got %q", header)
	}

	if strings.Count(body, "[") != strings.Count(body, "]") {
		return fmt.Errorf("overview: unbalanced [] in mermaid block")
	}
	if strings.Count(body, "{") != strings.Count(body, "}") {
		return fmt.Errorf("overview: unbalanced {} in mermaid block")
	}

	clickCount := strings.Count(body, "\n  click ") + boolToInt(strings.HasPrefix(body, "click "))
	if clickCount != len(expectedChildren) {
		return fmt.Errorf("overview: expected %d click directives, found %d", len(expectedChildren), clickCount)
	}
	for _, child := range expectedChildren {
		if !strings.Contains(body, fmt.Sprintf("\"%s.md\"", child)) {
			return fmt.Errorf("overview: missing click target for child %q", child)
		}
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
