// Package cluster implements C5, spec §4.5: a recursive grouping of
// leaf component ids into a module tree, driven by an LLM call per
// frontier with a deterministic directory-based fallback whenever the
// LLM is unavailable, truncates, or produces something unparseable.
// Grounded in the teacher's indexer.DecideRegeneration ("ask the LLM a
// structured question, parse leniently, fall back deterministically on
// any failure") and indexer/analyzer.go's tryRepairJSON/parseAnalysis
// truncation-repair technique, reused here for the clustering payload.
package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/archloom/archloom/internal/accounting"
	"github.com/archloom/archloom/internal/config"
	"github.com/archloom/archloom/internal/llm"
	"github.com/archloom/archloom/internal/model"
)

const (
	openTag  = "<GROUPED_COMPONENTS>"
	closeTag = "</GROUPED_COMPONENTS>"
)

// groupedEntry is one named group from the LLM's response.
type groupedEntry struct {
	Path       string   `json:"path"`
	Components []string `json:"components"`
}

// Cluster recursively clusters frontier (a set of component ids) starting
// at the root, returning the resulting ModuleTree. provider/clusterModel
// drive the LLM call; components is the full table used to validate
// frontier membership after each level.
func Cluster(ctx context.Context, provider llm.Provider, clusterModel string, components model.ComponentTable, frontier []string, acct *accounting.Accountant) model.ModuleTree {
	return clusterAt(ctx, provider, clusterModel, components, frontier, "", true, acct)
}

func clusterAt(ctx context.Context, provider llm.Provider, clusterModel string, components model.ComponentTable, frontier []string, currentPath string, isRoot bool, acct *accounting.Accountant) model.ModuleTree {
	// 1. Early-out guards (spec §4.5 step 1).
	if len(frontier) < config.MinComponentsForClustering {
		return model.ModuleTree{}
	}

	promptBody := buildListing(components, frontier)
	promptTokens := accounting.EstimateTokens(promptBody)

	if promptTokens <= config.MaxTokensPerModule {
		if !isRoot {
			return model.ModuleTree{}
		}
		return model.ModuleTree{
			"main": &model.Module{Components: append([]string(nil), frontier...)},
		}
	}

	// 2. Prompt assembly, truncating the listing line-wise if it would
	// exceed MaxClusteringPromptTokens.
	listing := truncateListing(promptBody, config.MaxClusteringPromptTokens)
	prompt := buildClusterPrompt(listing)

	// 3. LLM call, 30s outermost timeout (spec §5); falls back on expiry.
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	resp, err := provider.Complete(callCtx, llm.CompletionRequest{
		Model:       clusterModel,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   config.MaxLLMOutputTokens,
		Temperature: 0,
	})
	duration := time.Since(start)

	if acct != nil {
		success := err == nil
		var completionTokens int
		if resp != nil {
			completionTokens = resp.OutputTokens
		}
		acct.Record(clusterModel, promptTokens, completionTokens, duration, success, err)
	}

	if err != nil {
		return DirectoryFallback(components, frontier, currentPath, isRoot)
	}

	// 4. Response parsing: detect truncation or parse failure.
	grouped, parseErr := parseGroupedResponse(resp.Content, resp.OutputTokens, config.MaxLLMOutputTokens)
	if parseErr != nil || len(grouped) == 0 {
		return DirectoryFallback(components, frontier, currentPath, isRoot)
	}

	// 5. Tree merge: insert children at currentPath, dropping the
	// per-node path key once merged.
	tree := model.ModuleTree{}
	for name, entry := range grouped {
		validIDs := filterToTable(components, entry.Components)
		tree[name] = &model.Module{Components: validIDs}
	}

	// 6. Recurse into each new child with its components as the next
	// frontier.
	for name, m := range tree {
		childPath := joinDotted(currentPath, name)
		m.Children = clusterAt(ctx, provider, clusterModel, components, m.Components, childPath, false, acct)
	}

	return tree
}

func buildListing(components model.ComponentTable, frontier []string) string {
	byFile := map[string][]string{}
	for _, id := range frontier {
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
		ids := byFile[f]
		sort.Strings(ids)
		fmt.Fprintf(&b, "%s: %s\n", f, strings.Join(ids, ", "))
	}
	return b.String()
}

func truncateListing(listing string, maxTokens int) string {
	if accounting.EstimateTokens(listing) <= maxTokens {
		return listing
	}
	lines := strings.Split(listing, "\n")
	var b strings.Builder
	for _, l := range lines {
		candidate := b.String() + l + "\n"
		if accounting.EstimateTokens(candidate) > maxTokens {
			break
		}
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}

func buildClusterPrompt(listing string) string {
	return fmt.Sprintf(`You are grouping source code components into documentation modules.

Below is a listing of components by file (format "file: id, id, ...").
Group them into logical modules. Respond with, first, a block of this exact form:

%s
{
  "module_name": {"path": "module_name", "components": ["id", "id"]},
  "another_module": {"path": "another_module", "components": ["id"]}
}
%s

Components:
%s`, openTag, closeTag, listing)
}

var tagBodyRe = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(openTag) + `(.*?)` + regexp.QuoteMeta(closeTag))

// parseGroupedResponse extracts and parses the <GROUPED_COMPONENTS> JSON
// body. Truncation is detected when the response is within 100 tokens of
// the model's output cap AND the closing tag is missing (spec §4.5 step
// 4); a truncated or otherwise unclosed response is returned as an error,
// so the caller falls back to the directory split rather than using a
// partial grouping.
func parseGroupedResponse(content string, outputTokens, maxOutputTokens int) (map[string]groupedEntry, error) {
	if match := tagBodyRe.FindStringSubmatch(content); match != nil {
		return parseGroupedJSON(match[1])
	}

	nearCap := maxOutputTokens-outputTokens <= 100
	idx := strings.Index(content, openTag)
	if idx < 0 {
		return nil, fmt.Errorf("missing %s tag", openTag)
	}

	if nearCap {
		return nil, fmt.Errorf("truncated response: missing %s near output cap", closeTag)
	}
	return nil, fmt.Errorf("missing %s tag", closeTag)
}

func parseGroupedJSON(body string) (map[string]groupedEntry, error) {
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, "```") {
		lines := strings.Split(body, "\n")
		if len(lines) >= 2 {
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			body = strings.Join(lines[1:end], "\n")
		}
	}

	var grouped map[string]groupedEntry
	if err := json.Unmarshal([]byte(body), &grouped); err != nil {
		repaired := tryRepairJSON(body)
		if repaired == body {
			return nil, fmt.Errorf("cluster json parse: %w", err)
		}
		if err2 := json.Unmarshal([]byte(repaired), &grouped); err2 != nil {
			return nil, fmt.Errorf("cluster json parse after repair: %w", err2)
		}
	}
	return grouped, nil
}

// tryRepairJSON closes unbalanced braces/brackets left by a truncated
// completion, mirroring the teacher's indexer.tryRepairJSON.
func tryRepairJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	openBraces, openBrackets := 0, 0
	inString, escaped := false, false

	for _, ch := range raw {
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{':
			openBraces++
		case '}':
			openBraces--
		case '[':
			openBrackets++
		case ']':
			openBrackets--
		}
	}

	if openBraces <= 0 && openBrackets <= 0 {
		return raw
	}
	if inString {
		raw += `"`
	}
	trimmed := strings.TrimRight(raw, " \t\n\r")
	if strings.HasSuffix(trimmed, ",") {
		raw = trimmed[:len(trimmed)-1]
	}
	for openBrackets > 0 {
		raw += "]"
		openBrackets--
	}
	for openBraces > 0 {
		raw += "}"
		openBraces--
	}
	return raw
}

func filterToTable(components model.ComponentTable, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := components[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func joinDotted(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
