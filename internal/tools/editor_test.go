package tools

import (
	"path/filepath"
	"testing"

	archerrors "github.com/archloom/archloom/internal/errors"
	"github.com/archloom/archloom/internal/model"
)

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return &Dispatcher{
		WorkingDir:    t.TempDir(),
		Components:    model.ComponentTable{},
		CurrentModule: &model.Module{},
	}
}

func TestStrReplaceEditorCreateThenView(t *testing.T) {
	d := newDispatcher(t)

	if _, err := d.StrReplaceEditor("create", "module.md", "# Hello\n", "", "", 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := d.StrReplaceEditor("view", "module.md", "", "", "", 0)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if out != "# Hello\n" {
		t.Errorf("view returned %q", out)
	}
}

func TestStrReplaceEditorRejectsPathEscape(t *testing.T) {
	d := newDispatcher(t)

	_, err := d.StrReplaceEditor("create", "../../etc/passwd", "x", "", "", 0)
	var abuse *archerrors.ToolAbuse
	if err == nil {
		t.Fatal("expected ToolAbuse for path escape")
	}
	if !asToolAbuse(err, &abuse) {
		t.Errorf("expected ToolAbuse, got %T: %v", err, err)
	}
}

func TestStrReplaceEditorReplaceRequiresUniqueMatch(t *testing.T) {
	d := newDispatcher(t)
	if _, err := d.StrReplaceEditor("create", "module.md", "foo foo", "", "", 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := d.StrReplaceEditor("replace", "module.md", "", "foo", "bar", 0)
	if err == nil {
		t.Fatal("expected ToolAbuse for ambiguous replace")
	}
}

func TestStrReplaceEditorReplaceUniqueMatchSucceeds(t *testing.T) {
	d := newDispatcher(t)
	if _, err := d.StrReplaceEditor("create", "module.md", "hello world", "", "", 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := d.StrReplaceEditor("replace", "module.md", "", "world", "there", 0); err != nil {
		t.Fatalf("replace: %v", err)
	}
	out, err := d.StrReplaceEditor("view", "module.md", "", "", "", 0)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if out != "hello there" {
		t.Errorf("expected replaced content, got %q", out)
	}
}

func TestResolvePathJoinsUnderWorkingDir(t *testing.T) {
	d := newDispatcher(t)
	resolved, err := d.resolvePath("sub/module.md")
	if err != nil {
		t.Fatalf("resolvePath: %v", err)
	}
	want := filepath.Join(d.WorkingDir, "sub/module.md")
	if resolved != want {
		t.Errorf("resolvePath = %q, want %q", resolved, want)
	}
}

func asToolAbuse(err error, target **archerrors.ToolAbuse) bool {
	if ta, ok := err.(*archerrors.ToolAbuse); ok {
		*target = ta
		return true
	}
	return false
}
