package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	archerrors "github.com/archloom/archloom/internal/errors"
	"github.com/archloom/archloom/internal/model"
)

func TestBuildEmptyRepoReturnsErrEmptyRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := Build(context.Background(), dir, nil, nil, 2)
	if err != archerrors.ErrEmptyRepository {
		t.Fatalf("expected ErrEmptyRepository, got %v", err)
	}
}

func TestBuildSingleFileTwoClasses(t *testing.T) {
	dir := t.TempDir()
	src := `package example

type A struct{}
type B struct{}
`
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(src), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	result, err := Build(context.Background(), dir, nil, nil, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(result.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(result.Components))
	}
	if len(result.Leaves) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(result.Leaves))
	}
}

func TestLeafClosure(t *testing.T) {
	dir := t.TempDir()
	src := `package example

type Widget struct{}

func (w *Widget) Render() string {
	return helper()
}

func helper() string {
	return "x"
}
`
	if err := os.WriteFile(filepath.Join(dir, "widget.go"), []byte(src), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	result, err := Build(context.Background(), dir, nil, nil, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, id := range result.Leaves {
		if len(result.Graph.Callees(id)) != 0 {
			t.Errorf("leaf %q has outgoing resolved edges", id)
		}
		c, ok := result.Components[id]
		if !ok {
			t.Fatalf("leaf %q missing from component table", id)
		}
		if c.Kind != model.KindStruct && c.Kind != model.KindFunction {
			t.Errorf("leaf %q has unexpected kind %v", id, c.Kind)
		}
	}
}
