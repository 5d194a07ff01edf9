// Package agent drives one documentation agent through a single LLM
// completion loop, routing fenced tool-call blocks to
// internal/tools.Dispatcher until the model replies with no further tool
// call. The explicit AwaitingPrompt -> AwaitingToolResult* -> Done state
// machine is the shape spec §9's Design Notes calls for; it is new code
// with no direct teacher analogue (the teacher's internal/indexer
// pipeline is single-shot, never multi-turn), so it is grounded instead
// in the same "structured tag contract, parsed leniently" idiom already
// used for clustering (internal/cluster) and for the teacher's own
// <GROUPED_COMPONENTS>-style completions — applied here to a
// ```tool_call``` fenced JSON block instead of a tag pair, since the
// payload needs to name which tool and carry arbitrary arguments.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/archloom/archloom/internal/accounting"
	"github.com/archloom/archloom/internal/llm"
	"github.com/archloom/archloom/internal/model"
	"github.com/archloom/archloom/internal/tools"
)

// State is one of the three phases of a single agent run.
type State string

const (
	StateAwaitingPrompt     State = "awaiting_prompt"
	StateAwaitingToolResult State = "awaiting_tool_result"
	StateDone               State = "done"
)

// maxTurns bounds a single agent run so a model stuck issuing tool calls
// forever cannot loop indefinitely; it is generous relative to any
// realistic documentation task.
const maxTurns = 40

// Agent documents one module: it owns the conversation, the fixed tool
// surface, and the dispatcher those tools are routed to.
type Agent struct {
	Provider     llm.Provider
	Model        string
	Stage        string
	Dispatcher   *tools.Dispatcher
	Tools        []mcp.Tool
	SystemPrompt string
	Accountant   *accounting.Accountant

	messages []llm.Message
	state    State
}

// New builds an Agent with its system prompt extended to describe the
// given tool surface, since none of the teacher's raw-HTTP provider
// clients implement native function-calling.
func New(provider llm.Provider, modelName, stage, systemPrompt, userPrompt string, toolSurface []mcp.Tool, dispatcher *tools.Dispatcher, acct *accounting.Accountant) *Agent {
	return &Agent{
		Provider:     provider,
		Model:        modelName,
		Stage:        stage,
		Dispatcher:   dispatcher,
		Tools:        toolSurface,
		SystemPrompt: systemPrompt + "\n\n" + renderToolSurface(toolSurface),
		Accountant:   acct,
		messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt + "\n\n" + renderToolSurface(toolSurface)},
			{Role: llm.RoleUser, Content: userPrompt},
		},
		state: StateAwaitingPrompt,
	}
}

// Run drives the state machine to completion: each AwaitingPrompt turn
// issues one LLM call; a response containing a tool_call block moves to
// AwaitingToolResult, dispatches it, appends the result, and returns to
// AwaitingPrompt; a response without one moves to Done and Run returns.
func (a *Agent) Run(ctx context.Context) error {
	for turn := 0; turn < maxTurns; turn++ {
		switch a.state {
		case StateAwaitingPrompt:
			resp, err := a.complete(ctx)
			if err != nil {
				return fmt.Errorf("agent turn %d: %w", turn, err)
			}
			a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})

			call, ok := parseToolCall(resp.Content)
			if !ok {
				a.state = StateDone
				return nil
			}
			a.state = StateAwaitingToolResult

			result, dispatchErr := a.dispatch(ctx, call)
			if dispatchErr != nil {
				result = fmt.Sprintf("error: %v", dispatchErr)
			}
			a.messages = append(a.messages, llm.Message{Role: llm.RoleUser, Content: "Tool result:\n" + result})
			a.state = StateAwaitingPrompt

		case StateDone:
			return nil

		default:
			return fmt.Errorf("agent: unexpected state %q", a.state)
		}
	}
	return fmt.Errorf("agent: exceeded %d turns without completing", maxTurns)
}

func (a *Agent) complete(ctx context.Context) (*llm.CompletionResponse, error) {
	start := time.Now()
	resp, err := a.Provider.Complete(ctx, llm.CompletionRequest{
		Model:    a.Model,
		Messages: a.messages,
	})
	duration := time.Since(start)

	if a.Accountant != nil {
		a.Accountant.SetStage(a.Stage)
		var completionTokens, promptTokens int
		if resp != nil {
			completionTokens = resp.OutputTokens
			promptTokens = resp.InputTokens
		}
		a.Accountant.Record(a.Model, promptTokens, completionTokens, duration, err == nil, err)
	}
	return resp, err
}

// toolCallBlock is the payload of a ```tool_call``` fenced block.
type toolCallBlock struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

var toolCallRe = regexp.MustCompile("(?s)```tool_call\\s*\\n(.*?)```")

func parseToolCall(content string) (toolCallBlock, bool) {
	match := toolCallRe.FindStringSubmatch(content)
	if match == nil {
		return toolCallBlock{}, false
	}
	var call toolCallBlock
	if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &call); err != nil {
		return toolCallBlock{}, false
	}
	if call.Tool == "" {
		return toolCallBlock{}, false
	}
	return call, true
}

func (a *Agent) dispatch(ctx context.Context, call toolCallBlock) (string, error) {
	d := a.Dispatcher
	switch call.Tool {
	case "read_code_components":
		var args struct {
			IDs []string `json:"ids"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return "", fmt.Errorf("read_code_components: %w", err)
		}
		return d.ReadCodeComponents(args.IDs), nil

	case "str_replace_editor":
		var args struct {
			Op         string `json:"op"`
			Path       string `json:"path"`
			FileText   string `json:"file_text"`
			OldStr     string `json:"old_str"`
			NewStr     string `json:"new_str"`
			InsertLine int    `json:"insert_line"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return "", fmt.Errorf("str_replace_editor: %w", err)
		}
		return d.StrReplaceEditor(args.Op, args.Path, args.FileText, args.OldStr, args.NewStr, args.InsertLine)

	case "generate_sub_module_documentation":
		var args struct {
			Spec json.RawMessage `json:"spec"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return "", fmt.Errorf("generate_sub_module_documentation: %w", err)
		}
		return d.GenerateSubModuleDocumentation(ctx, string(args.Spec))

	case "list_module_components":
		var args struct {
			ModuleName string `json:"module_name"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return "", fmt.Errorf("list_module_components: %w", err)
		}
		m := findModule(d.CurrentModule, args.ModuleName)
		if m == nil {
			return "", fmt.Errorf("list_module_components: module %q not found", args.ModuleName)
		}
		return d.ListModuleComponents(m), nil

	case "get_module_summary":
		var args struct {
			ModuleName string `json:"module_name"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return "", fmt.Errorf("get_module_summary: %w", err)
		}
		m := findModule(d.CurrentModule, args.ModuleName)
		if m == nil {
			return "", fmt.Errorf("get_module_summary: module %q not found", args.ModuleName)
		}
		return d.GetModuleSummary(m), nil

	default:
		return "", fmt.Errorf("unknown tool %q", call.Tool)
	}
}

// findModule looks up name among root's immediate children, falling back
// to root itself when name matches nothing — the navigation tools only
// ever address the current subtree the agent already has in view.
func findModule(root *model.Module, name string) *model.Module {
	if root == nil {
		return nil
	}
	if m, ok := root.Children[name]; ok {
		return m
	}
	return root
}

func renderToolSurface(toolSurface []mcp.Tool) string {
	var b strings.Builder
	b.WriteString("Available tools. To call one, respond with nothing else but a single fenced block:\n")
	b.WriteString("```tool_call\n{\"tool\": \"<name>\", \"arguments\": { ... }}\n```\n\n")
	for _, tool := range toolSurface {
		schema, err := json.Marshal(tool)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%s\n", schema)
	}
	return b.String()
}
