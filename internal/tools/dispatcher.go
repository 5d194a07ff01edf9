package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	archerrors "github.com/archloom/archloom/internal/errors"
	"github.com/archloom/archloom/internal/model"
)

// SubAgentRunner is implemented by internal/scheduler and invoked by
// Dispatcher.GenerateSubModuleDocumentation for each named sub-module.
// The dependency runs dispatcher -> runner rather than scheduler ->
// dispatcher -> scheduler, avoiding an import cycle while keeping the
// recursive delegation spec §4.8 describes entirely in the tool call.
type SubAgentRunner interface {
	RunSubAgent(ctx context.Context, parentPath, name string, m *model.Module, depth int) (childrenCreated bool, err error)
}

// Dispatcher is the agent's entire side channel into system state: the
// component table (read-only), the module tree (children are inserted
// into the current module in place, without locking), and the working
// directory an editor call is rooted at.
type Dispatcher struct {
	WorkingDir      string
	Components      model.ComponentTable
	CurrentModule   *model.Module
	CurrentPath     string
	CurrentDepth    int
	MinDepth        int
	TotalComponents int
	Runner          SubAgentRunner
}

// ReadCodeComponents returns each requested id's source, or a "not found"
// marker, never an error — an agent asking for a bad id is handled the
// same way an editor handles a bad path: reported back as tool output.
func (d *Dispatcher) ReadCodeComponents(ids []string) string {
	out := ""
	for _, id := range ids {
		c, ok := d.Components[id]
		if !ok {
			out += fmt.Sprintf("## %s\nnot found\n\n", id)
			continue
		}
		out += fmt.Sprintf("## %s\n```\n%s\n```\n\n", id, c.SourceCode)
	}
	return out
}

// ListModuleComponents returns module's ids grouped by file. Only ever
// called when the navigation tools are in the agent's surface.
func (d *Dispatcher) ListModuleComponents(m *model.Module) string {
	byFile := map[string][]string{}
	for _, id := range m.Components {
		c, ok := d.Components[id]
		path := c.RelativePath
		if !ok {
			path = "(unknown)"
		}
		byFile[path] = append(byFile[path], id)
	}
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	out := ""
	for _, f := range files {
		out += fmt.Sprintf("%s: %v\n", f, byFile[f])
	}
	return out
}

// GetModuleSummary returns counts, file paths, and a sample of up to 10 ids.
func (d *Dispatcher) GetModuleSummary(m *model.Module) string {
	files := map[string]bool{}
	for _, id := range m.Components {
		if c, ok := d.Components[id]; ok {
			files[c.RelativePath] = true
		}
	}
	sample := m.Components
	if len(sample) > 10 {
		sample = sample[:10]
	}
	return fmt.Sprintf("components=%d files=%d sample=%v", len(m.Components), len(files), sample)
}

// subModuleSpec is the payload shape for generate_sub_module_documentation.
type subModuleSpec map[string][]string

// GenerateSubModuleDocumentation parses spec as {name -> [ids]}, inserts
// each as a child of the current module, and delegates to Runner per spec
// §4.8. The Runner gives a sub-module below MinDepth a complex sub-agent
// once it has >= 2 ids and, if that sub-agent creates no further
// children, forces a directory split to reach the minimum depth; the
// result line notes a sub-module that still ends up with no children.
func (d *Dispatcher) GenerateSubModuleDocumentation(ctx context.Context, specJSON string) (string, error) {
	var spec subModuleSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return "", &archerrors.ToolAbuse{Tool: "generate_sub_module_documentation", Reason: "spec is not a valid {name: [ids]} JSON object"}
	}
	if len(spec) == 0 {
		return "", &archerrors.ToolAbuse{Tool: "generate_sub_module_documentation", Reason: "spec has no entries"}
	}

	names := make([]string, 0, len(spec))
	for name := range spec {
		names = append(names, name)
	}
	sort.Strings(names)

	results := ""
	for _, name := range names {
		ids := validIDs(d.Components, spec[name])
		if d.CurrentModule.Children == nil {
			d.CurrentModule.Children = model.ModuleTree{}
		}
		child := &model.Module{Components: ids}
		d.CurrentModule.Children[name] = child

		childrenCreated, err := d.Runner.RunSubAgent(ctx, d.CurrentPath, name, child, d.CurrentDepth+1)
		if err != nil {
			return results, err
		}

		belowFloor := d.CurrentDepth+1 < d.MinDepth
		if belowFloor && !childrenCreated && len(ids) >= 2 {
			results += fmt.Sprintf("%s: sub-agent produced no children below MIN_DEPTH and a directory split yielded a single group\n", name)
		} else {
			results += fmt.Sprintf("%s: documented %d components\n", name, len(ids))
		}
	}
	return results, nil
}

func validIDs(components model.ComponentTable, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := components[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
