// Package promptfmt renders the module-tree views and per-module source
// bundles that make up every LLM prompt in Stages 2/3, grounded in the
// teacher's internal/indexer/chunk.go (grouping components by file,
// building per-symbol content blocks) and internal/docs/templates.go
// (text/template section assembly). Every rendered string is also what
// internal/accounting.EstimateTokens counts against, so prompt size and
// threshold decisions always agree (spec §8's prompt–threshold property).
package promptfmt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/archloom/archloom/internal/accounting"
	"github.com/archloom/archloom/internal/config"
	"github.com/archloom/archloom/internal/model"
)

// RenderTreeView renders the module tree view passed to the LLM. When
// totalComponents exceeds config.LargeRepoComponentThreshold, the current
// module and its immediate siblings get the full listing and every other
// node is collapsed to a count — the Tiered view of spec §4.6. currentPath
// is the dotted path of the module currently being documented (empty at
// root).
func RenderTreeView(tree model.ModuleTree, currentPath string, totalComponents int) string {
	var b strings.Builder
	tiered := totalComponents > config.LargeRepoComponentThreshold
	renderNode(&b, tree, "", currentPath, tiered, 0)
	return b.String()
}

func renderNode(b *strings.Builder, tree model.ModuleTree, parentPath, currentPath string, tiered bool, depth int) {
	names := sortedKeys(tree)
	currentParent := parentDotted(currentPath)

	for _, name := range names {
		m := tree[name]
		path := joinPath(parentPath, name)
		indent := strings.Repeat("  ", depth)

		isCurrent := path == currentPath
		isSibling := tiered && parentPath == currentParent && !isCurrent

		tag := ""
		if isCurrent {
			tag = " (current module)"
		}

		if !tiered || isCurrent || isSibling {
			fmt.Fprintf(b, "%s- %s%s: %s\n", indent, name, tag, strings.Join(m.Components, ", "))
		} else {
			fmt.Fprintf(b, "%s- %s: %d items (use list_module_components to view)\n", indent, name, len(m.Components))
		}

		if len(m.Children) > 0 {
			renderNode(b, m.Children, path, currentPath, tiered, depth+1)
		}
	}
}

func sortedKeys(tree model.ModuleTree) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func parentDotted(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// RenderSourceBundle groups the given component ids by file and emits
// "# File: <path>" then "## Component: <id>" with a line range and a
// fenced code block containing exactly Component.SourceCode — never a
// whole file, per spec §4.6.
func RenderSourceBundle(components model.ComponentTable, ids []string) string {
	byFile := map[string][]string{}
	for _, id := range ids {
		c, ok := components[id]
		if !ok {
			continue
		}
		byFile[c.RelativePath] = append(byFile[c.RelativePath], id)
	}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "# File: %s\n\n", f)
		fileIDs := byFile[f]
		sort.Slice(fileIDs, func(i, j int) bool {
			return components[fileIDs[i]].StartLine < components[fileIDs[j]].StartLine
		})
		for _, id := range fileIDs {
			c := components[id]
			fmt.Fprintf(&b, "## Component: %s\n", c.ID)
			fmt.Fprintf(&b, "Lines %d-%d\n\n", c.StartLine, c.EndLine)
			fmt.Fprintf(&b, "```%s\n%s\n```\n\n", languageTag(f), c.SourceCode)
		}
	}
	return b.String()
}

func languageTag(relPath string) string {
	switch {
	case strings.HasSuffix(relPath, ".go"):
		return "go"
	case strings.HasSuffix(relPath, ".py"):
		return "python"
	case strings.HasSuffix(relPath, ".ts"), strings.HasSuffix(relPath, ".tsx"):
		return "typescript"
	case strings.HasSuffix(relPath, ".js"), strings.HasSuffix(relPath, ".jsx"):
		return "javascript"
	case strings.HasSuffix(relPath, ".rs"):
		return "rust"
	default:
		return ""
	}
}

// CountTokens measures a rendered prompt exactly the way every threshold
// check in Stage 2/3 does, so the count used for an auto-split decision
// and the text actually sent never disagree.
func CountTokens(rendered string) int {
	return accounting.EstimateTokens(rendered)
}
