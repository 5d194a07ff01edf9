package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	archerrors "github.com/archloom/archloom/internal/errors"
)

// StrReplaceEditor implements the str_replace_editor tool: create, view,
// insert, and replace-by-exact-match, rooted at WorkingDir. Every write
// goes through an atomic write-tmp-then-rename so a crash mid-write never
// leaves a partial Markdown file behind — the spec lists a general atomic-
// write wrapper as an external collaborator, but no library in the pack
// supplies one, so this is a small in-package helper instead of a pulled
// dependency (see DESIGN.md).
func (d *Dispatcher) StrReplaceEditor(op, path, fileText, oldStr, newStr string, insertLine int) (string, error) {
	resolved, err := d.resolvePath(path)
	if err != nil {
		return "", err
	}

	switch op {
	case "create":
		if err := atomicWrite(resolved, []byte(fileText)); err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}
		return fmt.Sprintf("created %s", path), nil

	case "view":
		content, err := os.ReadFile(resolved)
		if err != nil {
			return "", &archerrors.ToolAbuse{Tool: "str_replace_editor", Reason: fmt.Sprintf("cannot view %s: %v", path, err)}
		}
		return string(content), nil

	case "insert":
		content, err := os.ReadFile(resolved)
		if err != nil {
			return "", &archerrors.ToolAbuse{Tool: "str_replace_editor", Reason: fmt.Sprintf("cannot insert into %s: %v", path, err)}
		}
		lines := strings.Split(string(content), "\n")
		if insertLine < 0 || insertLine > len(lines) {
			return "", &archerrors.ToolAbuse{Tool: "str_replace_editor", Reason: fmt.Sprintf("insert_line %d out of range for %s", insertLine, path)}
		}
		updated := append([]string{}, lines[:insertLine]...)
		updated = append(updated, fileText)
		updated = append(updated, lines[insertLine:]...)
		if err := atomicWrite(resolved, []byte(strings.Join(updated, "\n"))); err != nil {
			return "", fmt.Errorf("insert into %s: %w", path, err)
		}
		return fmt.Sprintf("inserted into %s at line %d", path, insertLine), nil

	case "replace":
		content, err := os.ReadFile(resolved)
		if err != nil {
			return "", &archerrors.ToolAbuse{Tool: "str_replace_editor", Reason: fmt.Sprintf("cannot replace in %s: %v", path, err)}
		}
		count := strings.Count(string(content), oldStr)
		if count == 0 {
			return "", &archerrors.ToolAbuse{Tool: "str_replace_editor", Reason: fmt.Sprintf("old_str not found in %s", path)}
		}
		if count > 1 {
			return "", &archerrors.ToolAbuse{Tool: "str_replace_editor", Reason: fmt.Sprintf("old_str matches %d times in %s, must be unique", count, path)}
		}
		replaced := strings.Replace(string(content), oldStr, newStr, 1)
		if err := atomicWrite(resolved, []byte(replaced)); err != nil {
			return "", fmt.Errorf("replace in %s: %w", path, err)
		}
		return fmt.Sprintf("replaced text in %s", path), nil

	default:
		return "", &archerrors.ToolAbuse{Tool: "str_replace_editor", Reason: fmt.Sprintf("unknown op %q", op)}
	}
}

// resolvePath joins path under WorkingDir and rejects any attempt to
// escape it, surfaced as ToolAbuse rather than propagated as a plain
// filesystem error.
func (d *Dispatcher) resolvePath(path string) (string, error) {
	joined := filepath.Join(d.WorkingDir, path)
	rootWithSep := filepath.Clean(d.WorkingDir) + string(filepath.Separator)
	if !strings.HasPrefix(joined, rootWithSep) && joined != filepath.Clean(d.WorkingDir) {
		return "", &archerrors.ToolAbuse{Tool: "str_replace_editor", Reason: fmt.Sprintf("path %q escapes working directory", path)}
	}
	return joined, nil
}

func atomicWrite(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
