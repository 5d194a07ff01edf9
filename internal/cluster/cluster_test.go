package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/archloom/archloom/internal/accounting"
	"github.com/archloom/archloom/internal/llm"
	"github.com/archloom/archloom/internal/model"
)

func bigComponentTable(n int, dirs ...string) model.ComponentTable {
	table := model.ComponentTable{}
	if len(dirs) == 0 {
		dirs = []string{"pkg"}
	}
	for i := 0; i < n; i++ {
		dir := dirs[i%len(dirs)]
		id := fmt.Sprintf("%s/file%d.go:Thing%d", dir, i, i)
		table[id] = model.Component{
			ID:           id,
			Name:         fmt.Sprintf("Thing%d", i),
			Kind:         model.KindStruct,
			RelativePath: fmt.Sprintf("%s/file%d.go", dir, i),
			SourceCode:   "type Thing struct{}",
		}
	}
	return table
}

func idsOf(table model.ComponentTable) []string {
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	return ids
}

func TestClusterBelowMinComponentsReturnsEmpty(t *testing.T) {
	table := bigComponentTable(2)
	tree := Cluster(context.Background(), llm.NewMockProvider("mock"), "mock-model", table, idsOf(table), nil)
	if len(tree) != 0 {
		t.Fatalf("expected empty tree for frontier below MinComponentsForClustering, got %v", tree)
	}
}

func TestClusterSmallFrontierWrapsInMain(t *testing.T) {
	table := bigComponentTable(5)
	tree := Cluster(context.Background(), llm.NewMockProvider("mock"), "mock-model", table, idsOf(table), nil)

	if len(tree) != 1 {
		t.Fatalf("expected single module, got %d", len(tree))
	}
	m, ok := tree["main"]
	if !ok {
		t.Fatalf("expected a 'main' module, got keys %v", keysOf(tree))
	}
	if len(m.Components) != 5 {
		t.Errorf("expected all 5 components under main, got %d", len(m.Components))
	}
}

func TestClusterFallsBackOnUnparseableResponse(t *testing.T) {
	table := bigComponentTable(4000, "alpha", "beta", "gamma")
	mock := llm.NewMockProvider("mock")
	mock.Response.Content = "lol"

	acct := accounting.NewAccountant()
	tree := Cluster(context.Background(), mock, "mock-model", table, idsOf(table), acct)

	if len(tree) == 0 {
		t.Fatal("expected directory fallback to produce a non-empty tree")
	}
	for name := range tree {
		if name != "alpha" && name != "beta" && name != "gamma" {
			t.Errorf("unexpected fallback module name %q", name)
		}
	}
	if len(acct.Calls()) == 0 {
		t.Error("expected the failed LLM call to be recorded")
	}
}

func TestClusterFallsBackOnProviderError(t *testing.T) {
	table := bigComponentTable(4000, "alpha", "beta")
	mock := llm.NewMockProvider("mock")
	mock.Err = fmt.Errorf("provider unavailable")

	tree := Cluster(context.Background(), mock, "mock-model", table, idsOf(table), nil)
	if len(tree) == 0 {
		t.Fatal("expected directory fallback on provider error")
	}
}

func TestTryRepairJSONClosesUnbalancedBraces(t *testing.T) {
	raw := `{"mod": {"path": "mod", "components": ["a", "b"`
	repaired := tryRepairJSON(raw)

	var out map[string]groupedEntry
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		t.Fatalf("expected repaired JSON to parse, got error: %v (repaired=%q)", err, repaired)
	}
	if len(out["mod"].Components) != 2 {
		t.Errorf("expected 2 components recovered, got %v", out["mod"].Components)
	}
}

func keysOf(tree model.ModuleTree) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	return keys
}
