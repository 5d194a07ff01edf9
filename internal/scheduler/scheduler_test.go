package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/archloom/archloom/internal/accounting"
	"github.com/archloom/archloom/internal/llm"
	"github.com/archloom/archloom/internal/model"
	"github.com/archloom/archloom/internal/overview"
)

// autoDocProvider inspects the system prompt for the path the scheduler
// asked to be written (systemPromptFor embeds it as `to "<path>"`) and
// replies with a str_replace_editor create call on the first turn of a
// conversation, then a finishing text reply on the second.
type autoDocProvider struct {
	calls int
}

var docPathRe = regexp.MustCompile(`to "([^"]+\.md)"`)

func (p *autoDocProvider) Name() string { return "auto-doc" }

func (p *autoDocProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	if len(req.Messages) <= 2 {
		path := "module.md"
		if m := docPathRe.FindStringSubmatch(req.Messages[0].Content); m != nil {
			path = m[1]
		}
		content := fmt.Sprintf(
			"```tool_call\n{\"tool\": \"str_replace_editor\", \"arguments\": {\"op\": \"create\", \"path\": %q, \"file_text\": \"# Docs\\n\\nGenerated.\\n\"}}\n```",
			path,
		)
		return &llm.CompletionResponse{Content: content, InputTokens: 100, OutputTokens: 20}, nil
	}
	return &llm.CompletionResponse{Content: "Documentation complete.", InputTokens: 20, OutputTokens: 5}, nil
}

// erroringProvider fails the test if it is ever called, used to assert
// idempotence skips an already-documented module without touching the LLM.
type erroringProvider struct{ t *testing.T }

func (p *erroringProvider) Name() string { return "erroring" }

func (p *erroringProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.t.Fatal("provider should not be called for an already-documented module")
	return nil, fmt.Errorf("unreachable")
}

func singleFileComponents(n int, path string) model.ComponentTable {
	table := model.ComponentTable{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("auth.handler.Thing%d", i)
		table[id] = model.Component{
			ID:           id,
			Name:         fmt.Sprintf("Thing%d", i),
			Kind:         model.KindClass,
			RelativePath: path,
			SourceCode:   fmt.Sprintf("class Thing%d {}", i),
		}
	}
	return table
}

func TestSchedulerDocumentsLeafModuleAndWritesOverview(t *testing.T) {
	dir := t.TempDir()
	components := singleFileComponents(2, "auth/handler.go")
	tree := model.ModuleTree{
		"auth": {Components: idsOf(components)},
	}

	provider := &autoDocProvider{}
	acct := accounting.NewAccountant()
	s := New(dir, components, provider, "mock-model", acct)

	if err := s.Run(context.Background(), tree); err != nil {
		t.Fatalf("Run: %v", err)
	}

	authDoc := filepath.Join(dir, "auth.md")
	if _, err := os.Stat(authDoc); err != nil {
		t.Fatalf("expected auth.md to be written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "overview.md")); err != nil {
		t.Fatalf("expected overview.md to be written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "first_module_tree.json")); err != nil {
		t.Fatalf("expected first_module_tree.json: %v", err)
	}
	if len(acct.Calls()) == 0 {
		t.Error("expected the doc-generation call to be recorded")
	}
}

func TestSchedulerSkipsAlreadyDocumentedModule(t *testing.T) {
	dir := t.TempDir()
	components := singleFileComponents(2, "auth/handler.go")
	tree := model.ModuleTree{
		"auth": {Components: idsOf(components)},
	}

	if err := os.WriteFile(filepath.Join(dir, "auth.md"), []byte("# Auth\n\nAlready documented.\n"), 0o644); err != nil {
		t.Fatalf("seeding existing doc: %v", err)
	}

	provider := &erroringProvider{t: t}
	s := New(dir, components, provider, "mock-model", nil)

	if err := s.Run(context.Background(), tree); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestSchedulerAutoSplitsOversizedLeafModule(t *testing.T) {
	dir := t.TempDir()

	components := model.ComponentTable{}
	bigSource := strings.Repeat("x", 60000)
	dirs := []string{"alpha", "beta"}
	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		d := dirs[i%len(dirs)]
		id := fmt.Sprintf("%s.file%d.Thing", d, i)
		components[id] = model.Component{
			ID:           id,
			Name:         "Thing",
			Kind:         model.KindClass,
			RelativePath: fmt.Sprintf("%s/file%d.go", d, i),
			SourceCode:   bigSource,
		}
		ids = append(ids, id)
	}

	tree := model.ModuleTree{
		"big": {Components: ids},
	}

	provider := &autoDocProvider{}
	s := New(dir, components, provider, "mock-model", accounting.NewAccountant())

	if err := s.Run(context.Background(), tree); err != nil {
		t.Fatalf("Run: %v", err)
	}

	bigDoc := filepath.Join(dir, "big.md")
	content, err := os.ReadFile(bigDoc)
	if err != nil {
		t.Fatalf("expected big.md parent overview: %v", err)
	}

	if err := overview.ValidateDiagram(string(content), []string{"alpha", "beta"}); err != nil {
		t.Fatalf("ValidateDiagram on auto-split overview: %v", err)
	}

	// Every module's Markdown lives flat under dir, so the bare
	// "alpha.md"/"beta.md" links and click targets big.md contains
	// resolve from big.md's own location without a subdirectory prefix.
	for _, child := range []string{"alpha", "beta"} {
		childDoc := filepath.Join(dir, child+".md")
		if _, err := os.Stat(childDoc); err != nil {
			t.Errorf("expected %s to be written: %v", childDoc, err)
		}
		if !strings.Contains(string(content), child+".md") {
			t.Errorf("expected big.md to link %s.md", child)
		}
	}
}

func idsOf(table model.ComponentTable) []string {
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	return ids
}
