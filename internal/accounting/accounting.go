// Package accounting tracks token usage and estimated cost across every
// LLM call in a run, grounded in the teacher's internal/llm/cost.go
// (EstimateCost, EstimateTokens, the per-model pricing table) generalized
// into a stage-aware, explicitly constructed accountant rather than the
// teacher's package-level functions.
package accounting

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/archloom/archloom/internal/model"
)

// modelPricing holds per-model pricing in USD per 1M tokens.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// priceTable maps model identifiers to their pricing.
var priceTable = map[string]modelPricing{
	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-4-5-20251001":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
	"claude-opus-4-6":            {InputPerMillion: 15.00, OutputPerMillion: 75.00},

	"gpt-4o":      {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini": {InputPerMillion: 0.15, OutputPerMillion: 0.60},

	"gemini-2.0-flash": {InputPerMillion: 0.10, OutputPerMillion: 0.40},
	"gemini-1.5-pro":   {InputPerMillion: 1.25, OutputPerMillion: 5.00},
}

// unknownModelPricing is the documented fallback rate applied to a model
// absent from priceTable, per spec §4.3. Set to the gpt-4o-mini rate: a
// conservative mid-range estimate rather than the teacher's silent 0.
var unknownModelPricing = modelPricing{InputPerMillion: 0.15, OutputPerMillion: 0.60}

// EstimateCost returns the estimated cost in USD for the given model and
// token counts, falling back to unknownModelPricing for unrecognized
// models rather than reporting zero cost.
func EstimateCost(modelName string, inputTokens, outputTokens int) float64 {
	pricing, ok := priceTable[modelName]
	if !ok {
		pricing = unknownModelPricing
	}
	inputCost := float64(inputTokens) / 1_000_000.0 * pricing.InputPerMillion
	outputCost := float64(outputTokens) / 1_000_000.0 * pricing.OutputPerMillion
	return inputCost + outputCost
}

// EstimateTokens approximates a token count for text at one token per
// four characters, the same heuristic every prompt-budget guard in
// Stage 2/3 checks against.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}

// StageTotal is the aggregated token/cost/call count for one pipeline
// stage.
type StageTotal struct {
	Stage            string
	Calls            int
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
}

// Accountant is an explicitly constructed, explicitly threaded record of
// every LLM call made during a run. It is never a package-level
// singleton: callers construct one with NewAccountant and pass it down
// through C4/C5/C7, per spec §9's preference for explicit state over
// ambient globals.
type Accountant struct {
	mu    sync.Mutex
	stage string
	calls []model.LLMCall
}

// NewAccountant returns an empty accountant.
func NewAccountant() *Accountant {
	return &Accountant{}
}

// SetStage labels subsequent Record calls with the given stage name until
// changed again. Stage names are caller-defined (e.g. "analyze",
// "cluster", "document").
func (a *Accountant) SetStage(stage string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stage = stage
}

// Record appends one LLM call outcome to the log, stamping it with the
// current stage.
func (a *Accountant) Record(modelName string, promptTokens, completionTokens int, duration time.Duration, success bool, callErr error) {
	call := model.LLMCall{
		Model:            modelName,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		Duration:         duration,
		Success:          success,
	}
	if callErr != nil {
		call.Error = callErr.Error()
	}

	a.mu.Lock()
	call.Stage = a.stage
	a.calls = append(a.calls, call)
	a.mu.Unlock()
}

// Calls returns a copy of the recorded call log.
func (a *Accountant) Calls() []model.LLMCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.LLMCall(nil), a.calls...)
}

// StageTotals aggregates recorded calls per stage, in first-seen order.
func (a *Accountant) StageTotals() []StageTotal {
	a.mu.Lock()
	calls := append([]model.LLMCall(nil), a.calls...)
	a.mu.Unlock()

	order := []string{}
	totals := map[string]*StageTotal{}
	for _, c := range calls {
		t, ok := totals[c.Stage]
		if !ok {
			t = &StageTotal{Stage: c.Stage}
			totals[c.Stage] = t
			order = append(order, c.Stage)
		}
		t.Calls++
		t.PromptTokens += c.PromptTokens
		t.CompletionTokens += c.CompletionTokens
		t.CostUSD += EstimateCost(c.Model, c.PromptTokens, c.CompletionTokens)
	}

	out := make([]StageTotal, 0, len(order))
	for _, s := range order {
		out = append(out, *totals[s])
	}
	return out
}

// GrandTotal sums StageTotals across every stage.
func (a *Accountant) GrandTotal() StageTotal {
	total := StageTotal{Stage: "total"}
	for _, s := range a.StageTotals() {
		total.Calls += s.Calls
		total.PromptTokens += s.PromptTokens
		total.CompletionTokens += s.CompletionTokens
		total.CostUSD += s.CostUSD
	}
	return total
}

// FormatSummary renders a human-readable per-stage and grand-total
// breakdown, suitable for CLI output or a run's metadata.json.
func (a *Accountant) FormatSummary() string {
	var b strings.Builder
	stages := a.StageTotals()

	for _, s := range stages {
		fmt.Fprintf(&b, "%-12s calls=%-4d prompt=%-8d completion=%-8d cost=$%.4f\n",
			s.Stage, s.Calls, s.PromptTokens, s.CompletionTokens, s.CostUSD)
	}
	total := a.GrandTotal()
	fmt.Fprintf(&b, "%-12s calls=%-4d prompt=%-8d completion=%-8d cost=$%.4f\n",
		"TOTAL", total.Calls, total.PromptTokens, total.CompletionTokens, total.CostUSD)
	return b.String()
}

// outputTokensPerComponent is the assumed documentation output size used
// by DryRun, one estimate per discovered component.
const outputTokensPerComponent = 600

// DryRunEstimate is a no-LLM-calls cost projection for a discovered
// component table, grounded in the teacher's Pipeline.DryRun.
type DryRunEstimate struct {
	Components       int
	EstimatedInput   int
	EstimatedOutput  int
	EstimatedCostUSD float64
}

// DryRun estimates the cost of documenting every component in table
// against modelName without making any API calls: input tokens come from
// EstimateTokens over each component's source, output tokens assume a
// fixed per-component budget.
func DryRun(table model.ComponentTable, modelName string) DryRunEstimate {
	est := DryRunEstimate{Components: len(table)}
	for _, c := range table {
		est.EstimatedInput += EstimateTokens(c.SourceCode)
		est.EstimatedOutput += outputTokensPerComponent
	}
	est.EstimatedCostUSD = EstimateCost(modelName, est.EstimatedInput, est.EstimatedOutput)
	return est
}
