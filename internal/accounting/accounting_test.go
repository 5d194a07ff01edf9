package accounting

import (
	"errors"
	"testing"
	"time"

	"github.com/archloom/archloom/internal/model"
)

func TestEstimateCostKnownModel(t *testing.T) {
	cost := EstimateCost("gpt-4o-mini", 1_000_000, 1_000_000)
	want := 0.15 + 0.60
	if cost != want {
		t.Errorf("expected cost %.4f, got %.4f", want, cost)
	}
}

func TestEstimateCostUnknownModelUsesDocumentedDefault(t *testing.T) {
	cost := EstimateCost("some-future-model", 1_000_000, 0)
	if cost != unknownModelPricing.InputPerMillion {
		t.Errorf("expected unknown-model default rate, got %.4f", cost)
	}
	if cost == 0 {
		t.Fatal("unknown model must not silently cost 0")
	}
}

func TestEstimateTokensRoundsUpForShortText(t *testing.T) {
	if got := EstimateTokens("abc"); got != 1 {
		t.Errorf("expected 1 token for short text, got %d", got)
	}
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", got)
	}
}

func TestAccountantStageTotals(t *testing.T) {
	a := NewAccountant()

	a.SetStage("analyze")
	a.Record("gpt-4o-mini", 100, 50, time.Millisecond, true, nil)
	a.Record("gpt-4o-mini", 200, 75, time.Millisecond, true, nil)

	a.SetStage("cluster")
	a.Record("gpt-4o", 1000, 200, time.Millisecond, false, errors.New("boom"))

	totals := a.StageTotals()
	if len(totals) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(totals))
	}

	if totals[0].Stage != "analyze" || totals[0].Calls != 2 {
		t.Errorf("unexpected analyze stage totals: %+v", totals[0])
	}
	if totals[0].PromptTokens != 300 || totals[0].CompletionTokens != 125 {
		t.Errorf("unexpected analyze token totals: %+v", totals[0])
	}

	if totals[1].Stage != "cluster" || totals[1].Calls != 1 {
		t.Errorf("unexpected cluster stage totals: %+v", totals[1])
	}

	grand := a.GrandTotal()
	if grand.Calls != 3 {
		t.Errorf("expected 3 total calls, got %d", grand.Calls)
	}

	calls := a.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 recorded calls, got %d", len(calls))
	}
	if calls[2].Error != "boom" {
		t.Errorf("expected recorded error message, got %q", calls[2].Error)
	}
}

func TestDryRunEstimatesWithoutCalls(t *testing.T) {
	table := model.ComponentTable{
		"a": {ID: "a", SourceCode: "func A() {}"},
		"b": {ID: "b", SourceCode: "func B() { return }"},
	}

	est := DryRun(table, "gpt-4o-mini")
	if est.Components != 2 {
		t.Errorf("expected 2 components, got %d", est.Components)
	}
	if est.EstimatedOutput != 2*outputTokensPerComponent {
		t.Errorf("expected output tokens %d, got %d", 2*outputTokensPerComponent, est.EstimatedOutput)
	}
	if est.EstimatedCostUSD <= 0 {
		t.Error("expected nonzero estimated cost")
	}
}
