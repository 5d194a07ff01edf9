// Package scheduler implements C7: topological children-before-parents
// traversal of a module tree, per-module agent lifecycle, pre-flight
// auto-split, and parent-overview synthesis. Grounded in the teacher's
// internal/indexer/pipeline.go for the overall "walk the tree, call the
// LLM, write artifacts, record accounting" shape, generalized from the
// teacher's flat per-file loop into the spec's recursive module tree
// traversal.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/archloom/archloom/internal/accounting"
	"github.com/archloom/archloom/internal/agent"
	"github.com/archloom/archloom/internal/artifacts"
	"github.com/archloom/archloom/internal/cluster"
	"github.com/archloom/archloom/internal/config"
	archerrors "github.com/archloom/archloom/internal/errors"
	"github.com/archloom/archloom/internal/llm"
	"github.com/archloom/archloom/internal/model"
	"github.com/archloom/archloom/internal/overview"
	"github.com/archloom/archloom/internal/promptfmt"
	"github.com/archloom/archloom/internal/tools"
)

const stageDocGeneration = "doc_generation"

// Scheduler drives Stage 3/4 over an already-clustered module tree.
type Scheduler struct {
	WorkingDir      string
	Components      model.ComponentTable
	Provider        llm.Provider
	MainModel       string
	Accountant      *accounting.Accountant
	TotalComponents int

	// mu guards the auto-split's children assignment and every
	// module_tree.json flush. Children inserted by
	// generate_sub_module_documentation (tools.Dispatcher) and by
	// RunSubAgent's forced directory split are assigned without it;
	// modules are processed one at a time.
	mu   sync.Mutex
	tree model.ModuleTree
}

// New builds a Scheduler over an already-built component table.
func New(workingDir string, components model.ComponentTable, provider llm.Provider, mainModel string, acct *accounting.Accountant) *Scheduler {
	return &Scheduler{
		WorkingDir:      workingDir,
		Components:      components,
		Provider:        provider,
		MainModel:       mainModel,
		Accountant:      acct,
		TotalComponents: len(components),
	}
}

// Run processes tree to completion: persists first_module_tree.json,
// documents every module leaves-first, then synthesizes the root
// overview. Fatal per spec §4.7/§7 on EmptyComponentTable/EmptyLeafSet
// or an unrecoverable provider error.
func (s *Scheduler) Run(ctx context.Context, tree model.ModuleTree) error {
	if len(s.Components) == 0 {
		return archerrors.ErrEmptyRepository
	}
	if len(tree) == 0 {
		return archerrors.ErrEmptyLeafSet
	}

	s.tree = tree
	if err := artifacts.WriteModuleTree(s.WorkingDir, "first_module_tree.json", tree); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	quickPath := artifacts.ModulePath(s.WorkingDir, "", true)
	_ = writeFile(quickPath, overview.QuickOverview(tree))

	for _, name := range sortedKeys(tree) {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := tree[name]
		if err := s.processModule(ctx, "", name, m, 0); err != nil {
			return fmt.Errorf("scheduler: module %q: %w", name, err)
		}
	}

	children := make([]overview.ChildSummary, 0, len(tree))
	for _, name := range sortedKeys(tree) {
		children = append(children, overview.ChildSummary{
			Name:    name,
			DocName: name,
			Summary: firstHeadingSummary(s.WorkingDir, name),
		})
	}
	rootOverview := overview.RenderParentOverview("", children)
	if err := writeFile(quickPath, rootOverview); err != nil {
		return fmt.Errorf("scheduler: writing overview.md: %w", err)
	}

	return nil
}

// processModule documents one module at parentPath/name, recursing into
// its children first, honoring idempotence, classification, pre-flight
// auto-split, and the agent run, in the order spec §4.7 requires.
func (s *Scheduler) processModule(ctx context.Context, parentPath, name string, m *model.Module, depth int) error {
	currentPath := joinDotted(parentPath, name)
	docPath := artifacts.ModulePath(s.WorkingDir, name, false)

	// Idempotence: this module's Markdown (its own doc, or a non-leaf's
	// synthesized parent overview, both live flat under the working dir,
	// named only by module_name per spec §6) already exists from a prior
	// run.
	if artifacts.Exists(docPath) {
		return nil
	}

	// Children-before-parents: document every child first.
	for _, childName := range sortedKeys(m.Children) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.processModule(ctx, currentPath, childName, m.Children[childName], depth+1); err != nil {
			return err
		}
	}

	if len(m.Children) > 0 {
		return s.synthesizeParentOverview(name, m)
	}

	return s.documentLeafOrComplex(ctx, parentPath, name, m, depth)
}

func (s *Scheduler) documentLeafOrComplex(ctx context.Context, parentPath, name string, m *model.Module, depth int) error {
	complex := isComplex(s.Components, m)
	currentPath := joinDotted(parentPath, name)

	prompt := s.buildPrompt(currentPath, m, complex)
	promptTokens := promptfmt.CountTokens(prompt)

	if promptTokens > config.MaxLLMContext && depth < config.MaxAutoSplitDepth {
		return s.autoSplitAndRecurse(ctx, parentPath, name, m, depth, complex)
	}

	return s.runAgent(ctx, parentPath, name, m, depth, complex, prompt)
}

func (s *Scheduler) buildPrompt(currentPath string, m *model.Module, complex bool) string {
	treeView := promptfmt.RenderTreeView(s.tree, currentPath, s.TotalComponents)
	bundle := promptfmt.RenderSourceBundle(s.Components, m.Components)

	role := "leaf module"
	if complex {
		role = "complex module spanning multiple files"
	}
	return fmt.Sprintf(
		"You are documenting the %q module, a %s.\n\nModule tree:\n%s\n\nSource:\n%s",
		currentPath, role, treeView, bundle,
	)
}

func (s *Scheduler) runAgent(ctx context.Context, parentPath, name string, m *model.Module, depth int, complex bool, prompt string) error {
	currentPath := joinDotted(parentPath, name)
	docPath := artifacts.ModulePath(s.WorkingDir, name, false)
	relDocPath := name + ".md"

	dispatcher := &tools.Dispatcher{
		WorkingDir:      s.WorkingDir,
		Components:      s.Components,
		CurrentModule:   m,
		CurrentPath:     currentPath,
		CurrentDepth:    depth,
		MinDepth:        config.MinDepth,
		TotalComponents: s.TotalComponents,
		Runner:          s,
	}

	toolSurface := tools.Surface(s.TotalComponents, complex, config.LargeRepoComponentThreshold)
	systemPrompt := systemPromptFor(complex, relDocPath)

	a := agent.New(s.Provider, s.MainModel, stageDocGeneration, systemPrompt, prompt, toolSurface, dispatcher, s.Accountant)
	if err := a.Run(ctx); err != nil {
		return err
	}

	if !artifacts.Exists(docPath) {
		// The agent may have relied on generate_sub_module_documentation
		// exclusively; in that case there is nothing further to write
		// here, the children already have their own Markdown.
		if len(m.Children) == 0 {
			return fmt.Errorf("agent finished without writing %s", relDocPath)
		}
	}

	if err := s.persistTree(); err != nil {
		return err
	}
	return nil
}

func systemPromptFor(complex bool, relDocPath string) string {
	if complex {
		return fmt.Sprintf(
			"Write architecture documentation for this module to %q using str_replace_editor. "+
				"It spans multiple files; if it is too large for one document, delegate sub-sections "+
				"with generate_sub_module_documentation instead of writing everything yourself.",
			relDocPath,
		)
	}
	return fmt.Sprintf(
		"Write architecture documentation for this module to %q using str_replace_editor. "+
			"It is a single-file leaf module; do not delegate.",
		relDocPath,
	)
}

// RunSubAgent implements tools.SubAgentRunner: it is invoked by a
// dispatcher's generate_sub_module_documentation call to recursively
// document one delegated sub-module.
func (s *Scheduler) RunSubAgent(ctx context.Context, parentPath, name string, m *model.Module, depth int) (bool, error) {
	complex := isComplex(s.Components, m)
	belowFloor := depth < config.MinDepth
	if belowFloor && len(m.Components) >= 2 {
		complex = true
	}

	prompt := s.buildPrompt(joinDotted(parentPath, name), m, complex)
	if err := s.runAgent(ctx, parentPath, name, m, depth, complex, prompt); err != nil {
		return false, err
	}

	if len(m.Children) == 0 && belowFloor {
		fallbackTree := cluster.DirectoryFallback(s.Components, m.Components, joinDotted(parentPath, name), false)
		if len(fallbackTree) > 1 {
			m.Children = fallbackTree
			if err := s.persistTree(); err != nil {
				return false, err
			}
			for _, childName := range sortedKeys(m.Children) {
				if err := s.processModule(ctx, joinDotted(parentPath, name), childName, m.Children[childName], depth+1); err != nil {
					return true, err
				}
			}
			return true, nil
		}
	}

	return len(m.Children) > 0, nil
}

// autoSplitAndRecurse implements spec §4.7 step 4: a directory split via
// cluster.DirectoryFallback, which buckets ids by their top-level
// directory (first path segment, or first two) rather than by the
// segment at the current depth, or token-budget chunking if that yields
// <= 1 group; insert the sub-modules under the current module, persist, recurse, then
// synthesize a parent overview and return without calling the LLM at this
// level.
func (s *Scheduler) autoSplitAndRecurse(ctx context.Context, parentPath, name string, m *model.Module, depth int, complex bool) error {
	currentPath := joinDotted(parentPath, name)

	split := cluster.DirectoryFallback(s.Components, m.Components, currentPath, false)
	if len(split) <= 1 {
		split = chunkByTokens(s.Components, m.Components, config.TargetTokensPerChunk)
	}

	s.mu.Lock()
	m.Children = split
	s.mu.Unlock()
	if err := s.persistTree(); err != nil {
		return err
	}

	for _, childName := range sortedKeys(split) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.processModule(ctx, currentPath, childName, split[childName], depth+1); err != nil {
			return err
		}
	}

	return s.synthesizeParentOverview(name, m)
}

// synthesizeParentOverview writes the Markdown+diagram for a non-leaf
// module, named only by name per spec §6's flat layout: every module's
// file lives directly under the working directory regardless of its
// depth in the tree, so the bare `<child>.md` links and click targets
// overview.RenderParentOverview emits always resolve.
func (s *Scheduler) synthesizeParentOverview(name string, m *model.Module) error {
	children := make([]overview.ChildSummary, 0, len(m.Children))
	for _, childName := range sortedKeys(m.Children) {
		children = append(children, overview.ChildSummary{
			Name:    childName,
			DocName: childName,
			Summary: firstHeadingSummary(s.WorkingDir, childName),
		})
	}
	md := overview.RenderParentOverview(name, children)
	path := artifacts.ModulePath(s.WorkingDir, name, false)
	return writeFile(path, md)
}

func (s *Scheduler) persistTree() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return artifacts.WriteModuleTree(s.WorkingDir, "module_tree.json", s.tree)
}

// isComplex implements spec §4.7 step 2: a module is complex iff its
// component set spans multiple files AND includes more than one
// component.
func isComplex(components model.ComponentTable, m *model.Module) bool {
	if len(m.Components) <= 1 {
		return false
	}
	files := map[string]bool{}
	for _, id := range m.Components {
		if c, ok := components[id]; ok {
			files[c.RelativePath] = true
		}
	}
	return len(files) > 1
}

// chunkByTokens groups ids into part_1, part_2, ... chunks each targeting
// targetTokens of rendered source, per spec §4.7 step 4's fallback when a
// directory split collapses to one group. Ids are sorted first so naming
// is stable for a fixed input id set (spec §9 Open Question iii notes
// this is the limit of the stability guarantee).
func chunkByTokens(components model.ComponentTable, ids []string, targetTokens int) model.ModuleTree {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	tree := model.ModuleTree{}
	part := 1
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		tree[fmt.Sprintf("part_%d", part)] = &model.Module{Components: current}
		part++
		current = nil
		currentTokens = 0
	}

	for _, id := range sorted {
		c, ok := components[id]
		tokens := 1
		if ok {
			tokens = promptfmt.CountTokens(c.SourceCode)
		}
		if currentTokens > 0 && currentTokens+tokens > targetTokens {
			flush()
		}
		current = append(current, id)
		currentTokens += tokens
	}
	flush()

	return tree
}

func firstHeadingSummary(workingDir, name string) string {
	path := artifacts.ModulePath(workingDir, name, false)
	content, err := readFile(path)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			continue
		}
		if line != "" {
			return line
		}
	}
	return ""
}

func writeFile(path, content string) error {
	return artifacts.AtomicWrite(path, []byte(content))
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func joinDotted(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func sortedKeys(tree model.ModuleTree) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
