// Package tools defines the fixed five-tool surface given to a
// documentation agent (spec §4.8) and dispatches calls against it. Tool
// schemas are declared with mark3labs/mcp-go's builders exactly the way
// the teacher declares its MCP tool surface in internal/mcp/tools.go and
// crossrepo_tools.go, but dispatch here is in-process: internal/agent
// reads a fenced tool_call JSON block from each completion's text and
// routes it straight to a Dispatcher method rather than through an MCP
// transport.
package tools

import "github.com/mark3labs/mcp-go/mcp"

// ReadCodeComponentsTool returns the source of each requested component id.
var ReadCodeComponentsTool = mcp.NewTool("read_code_components",
	mcp.WithDescription("Return the source code of each listed component id, or a not-found marker for ids that do not exist."),
	mcp.WithArray("ids",
		mcp.Required(),
		mcp.Description("Component ids to fetch source for"),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

// StrReplaceEditorTool is a constrained file editor rooted at the working
// directory.
var StrReplaceEditorTool = mcp.NewTool("str_replace_editor",
	mcp.WithDescription("Create, view, insert into, or replace-by-exact-match a file rooted at the working directory. Writes are atomic."),
	mcp.WithString("op",
		mcp.Required(),
		mcp.Description("Operation to perform"),
		mcp.Enum("create", "view", "insert", "replace"),
	),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("File path relative to the working directory"),
	),
	mcp.WithString("file_text",
		mcp.Description("Full content for create, or inserted text for insert"),
	),
	mcp.WithString("old_str",
		mcp.Description("Exact text to replace (op=replace)"),
	),
	mcp.WithString("new_str",
		mcp.Description("Replacement text (op=replace)"),
	),
	mcp.WithNumber("insert_line",
		mcp.Description("Line number to insert after (op=insert, 0 for start of file)"),
	),
)

// GenerateSubModuleDocumentationTool delegates a named group of component
// ids to a freshly created sub-agent.
var GenerateSubModuleDocumentationTool = mcp.NewTool("generate_sub_module_documentation",
	mcp.WithDescription("Split the current module's remaining work into named sub-modules, each documented by its own sub-agent."),
	mcp.WithString("spec",
		mcp.Required(),
		mcp.Description(`JSON object mapping sub-module name to its component ids, e.g. {"parser": ["a.b.Parse"], "writer": ["a.b.Write"]}`),
	),
)

// ListModuleComponentsTool returns a named module's full id list grouped
// by file. Present only above LargeRepoComponentThreshold.
var ListModuleComponentsTool = mcp.NewTool("list_module_components",
	mcp.WithDescription("Return the full component id list of a named module, grouped by file."),
	mcp.WithString("module_name",
		mcp.Required(),
		mcp.Description("Name of an immediate child of the current module; any other name returns the current module"),
	),
)

// GetModuleSummaryTool returns counts, file paths, and a sample of ids for
// a named module. Present only above LargeRepoComponentThreshold.
var GetModuleSummaryTool = mcp.NewTool("get_module_summary",
	mcp.WithDescription("Return component counts, file paths, and a sample of ids for a named module."),
	mcp.WithString("module_name",
		mcp.Required(),
		mcp.Description("Name of an immediate child of the current module; any other name returns the current module"),
	),
)

// Surface returns the tool schemas visible to an agent. The navigation
// tools (list_module_components, get_module_summary) are included only
// when totalComponents exceeds the large-repo threshold, and
// generate_sub_module_documentation is included only for complex modules.
func Surface(totalComponents int, complex bool, largeRepoThreshold int) []mcp.Tool {
	t := []mcp.Tool{ReadCodeComponentsTool, StrReplaceEditorTool}
	if complex {
		t = append(t, GenerateSubModuleDocumentationTool)
	}
	if totalComponents > largeRepoThreshold {
		t = append(t, ListModuleComponentsTool, GetModuleSummaryTool)
	}
	return t
}
