package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/archloom/archloom/internal/model"
)

func TestWriteJSONThenReadBack(t *testing.T) {
	dir := t.TempDir()
	tree := model.ModuleTree{"auth": {Components: []string{"a.b.Login"}}}

	if err := WriteModuleTree(dir, "module_tree.json", tree); err != nil {
		t.Fatalf("WriteModuleTree: %v", err)
	}

	got, err := ReadModuleTree(dir, "module_tree.json")
	if err != nil {
		t.Fatalf("ReadModuleTree: %v", err)
	}
	if len(got["auth"].Components) != 1 || got["auth"].Components[0] != "a.b.Login" {
		t.Errorf("round-tripped tree mismatch: %+v", got)
	}

	if _, err := os.Stat(filepath.Join(dir, "module_tree.json.tmp")); !os.IsNotExist(err) {
		t.Error("expected temp file to be renamed away, not left behind")
	}
}

func TestSanitizeRepoName(t *testing.T) {
	cases := map[string]string{
		"My-Repo.Name":     "my_repo_name",
		"/abs/path/Thing!!": "thing",
		"":                 "repo",
	}
	for in, want := range cases {
		if got := SanitizeRepoName(in); got != want {
			t.Errorf("SanitizeRepoName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestModulePathRootIsOverview(t *testing.T) {
	path := ModulePath("/work", "main", true)
	if filepath.Base(path) != "overview.md" {
		t.Errorf("expected overview.md at root, got %q", path)
	}
}

func TestModulePathIsFlatRegardlessOfNesting(t *testing.T) {
	path := ModulePath("/work", "tokens", false)
	want := filepath.Join("/work", "tokens.md")
	if path != want {
		t.Errorf("ModulePath = %q, want %q", path, want)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overview.md")
	if Exists(path) {
		t.Error("expected nonexistent file to report false")
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if !Exists(path) {
		t.Error("expected existing file to report true")
	}
}
