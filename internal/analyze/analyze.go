// Package analyze turns one source file into the Components and Edges
// Stage 2 clusters and Stage 3 documents, grounded in
// theRebelliousNerd-codenerd's internal/world/ast_treesitter.go: one
// tree-sitter grammar per language, a CST walk that switches on node
// type, and the same "never raise on a parse error" discipline the
// teacher repo applies to every LLM call.
package analyze

import (
	"path/filepath"
	"strings"

	"github.com/archloom/archloom/internal/model"
)

// Analyzer parses one file's content into the components and edges it
// declares. A parse error is reported by returning (nil, nil) — callers
// never see an error value from Analyze, matching spec §4.1's "never
// raise" contract for Stage 1.
type Analyzer interface {
	Language() string
	Analyze(filePath string, content []byte, repoRoot string) ([]model.Component, []model.Edge)
}

var byExtension = map[string]Analyzer{
	".go":   &GoAnalyzer{},
	".py":   &PythonAnalyzer{},
	".ts":   &TypeScriptAnalyzer{},
	".tsx":  &TypeScriptAnalyzer{},
	".js":   &JavaScriptAnalyzer{},
	".jsx":  &JavaScriptAnalyzer{},
	".rs":   &RustAnalyzer{},
}

// Dispatch selects an Analyzer by file extension, or nil when the
// extension has no registered analyzer — the graph builder skips such
// files rather than treating the absence of a dispatcher as an error.
func Dispatch(filePath string) Analyzer {
	ext := strings.ToLower(filepath.Ext(filePath))
	return byExtension[ext]
}

// relativeID builds the dotted component id spec §3 requires:
// "<module_path>.<qualified_name>" where module_path is relativePath with
// separators replaced by dots and its language extension stripped. Every
// analyzer calls this so cross-file edge resolution in internal/graph can
// rely on deterministic ids derived only from the source tree.
func relativeID(relativePath, name string) string {
	return modulePath(relativePath) + "." + name
}

// modulePath strips relativePath's extension and replaces "/" with ".".
func modulePath(relativePath string) string {
	trimmed := strings.TrimSuffix(relativePath, filepath.Ext(relativePath))
	return strings.ReplaceAll(trimmed, "/", ".")
}

func isExported(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

func relPath(filePath, repoRoot string) string {
	rel, err := filepath.Rel(repoRoot, filePath)
	if err != nil {
		return filePath
	}
	return filepath.ToSlash(rel)
}
