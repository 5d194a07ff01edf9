// Package artifacts writes the JSON/Markdown side-files the pipeline
// persists under the working directory: module_tree.json,
// first_module_tree.json, metadata.json, and the dependency graph dump.
// Every write goes write-tmp-then-rename; spec §1 lists a general
// atomic-write wrapper as an external collaborator, but no library in the
// retrieval pack supplies one (see DESIGN.md), so this stays a small
// stdlib helper rather than a pulled dependency.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/archloom/archloom/internal/model"
)

// GenerationInfo is the generation_info block of metadata.json.
type GenerationInfo struct {
	Timestamp time.Time `json:"timestamp"`
	MainModel string    `json:"main_model"`
	RepoPath  string    `json:"repo_path"`
	CommitID  string    `json:"commit_id,omitempty"`
}

// Statistics is the statistics block of metadata.json.
type Statistics struct {
	TotalComponents int `json:"total_components"`
	LeafNodes       int `json:"leaf_nodes"`
	MaxDepth        int `json:"max_depth"`
}

// Metadata is the full shape of metadata.json.
type Metadata struct {
	GenerationInfo GenerationInfo `json:"generation_info"`
	Statistics     Statistics     `json:"statistics"`
	FilesGenerated []string       `json:"files_generated"`
}

// WriteJSON atomically writes v as indented JSON to path.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("artifacts: marshaling %s: %w", path, err)
	}
	return AtomicWrite(path, data)
}

// AtomicWrite writes content to path via a sibling temp file then rename,
// so a reader never observes a partially written file.
func AtomicWrite(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("artifacts: creating parent dir for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("artifacts: writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("artifacts: renaming %s into place: %w", path, err)
	}
	return nil
}

// WriteModuleTree writes tree to <workingDir>/<name>.json, used for both
// first_module_tree.json (pre-scheduler snapshot) and module_tree.json
// (current, mutated by auto-split).
func WriteModuleTree(workingDir, name string, tree model.ModuleTree) error {
	return WriteJSON(filepath.Join(workingDir, name), tree)
}

// ReadModuleTree loads a previously written module tree, used to resume a
// run from first_module_tree.json.
func ReadModuleTree(workingDir, name string) (model.ModuleTree, error) {
	data, err := os.ReadFile(filepath.Join(workingDir, name))
	if err != nil {
		return nil, err
	}
	var tree model.ModuleTree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("artifacts: parsing %s: %w", name, err)
	}
	return tree, nil
}

// WriteMetadata writes metadata.json.
func WriteMetadata(workingDir string, m Metadata) error {
	return WriteJSON(filepath.Join(workingDir, "metadata.json"), m)
}

// WriteDependencyGraph writes <sanitized_repo_name>_dependency_graph.json.
func WriteDependencyGraph(workingDir, repoName string, g *model.DependencyGraph) error {
	fileName := fmt.Sprintf("%s_dependency_graph.json", SanitizeRepoName(repoName))
	return WriteJSON(filepath.Join(workingDir, fileName), g)
}

var nonWordRe = regexp.MustCompile(`[^a-z0-9_]+`)

// SanitizeRepoName normalizes a repo directory name into a filesystem-
// and id-safe snake_case token.
func SanitizeRepoName(name string) string {
	name = strings.ToLower(filepath.Base(name))
	name = nonWordRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "repo"
	}
	return name
}

// ModulePath returns the on-disk Markdown path for a module. Per spec §6,
// every module's Markdown lives flat under the working directory, named
// only by its own module_name — never nested under its ancestors' path
// segments — so that the bare `<child>.md` links and `click` targets
// C9 emits (internal/overview.RenderParentOverview) always resolve from
// any other module's file, all of which live in the same directory.
// isRoot names the file overview.md instead of "<name>.md", per the same
// spec section's root-naming rule.
func ModulePath(workingDir, name string, isRoot bool) string {
	fileName := name + ".md"
	if isRoot {
		fileName = "overview.md"
	}
	return filepath.Join(workingDir, fileName)
}

// Exists reports whether a file already exists, used for the idempotence
// checkpoint: any module whose Markdown already exists is skipped.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
