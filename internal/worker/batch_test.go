package worker

import (
	"context"
	"fmt"
	"testing"

	"github.com/halcyonhealth/dashforge/internal/pipeline"
)

// stubRunner succeeds for every source except those listed in fail
type stubRunner struct {
	fail map[string]bool
}

func (r *stubRunner) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	if r.fail[req.Prompt] {
		return nil, fmt.Errorf("extraction failed for %s", req.Prompt)
	}
	return &pipeline.Result{Attempts: 1}, nil
}

func TestBatchProcessor_Process(t *testing.T) {
	runner := &stubRunner{fail: map[string]bool{"bad-source": true}}
	processor := NewBatchProcessor(runner, 4)

	requests := map[string]pipeline.Request{
		"vendor-a": {Prompt: "vendor-a"},
		"vendor-b": {Prompt: "vendor-b"},
		"bad":      {Prompt: "bad-source"},
	}

	results := processor.Process(context.Background(), requests)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	failures := 0
	bySource := make(map[string]*ExtractResult)
	for _, r := range results {
		bySource[r.Source] = r
		if r.GetError() != nil {
			failures++
		}
	}

	if failures != 1 {
		t.Errorf("expected 1 failure, got %d", failures)
	}
	if bySource["bad"] == nil || bySource["bad"].Err == nil {
		t.Error("expected the bad source to carry its error")
	}
	if bySource["vendor-a"] == nil || bySource["vendor-a"].Result == nil {
		t.Error("expected vendor-a to carry a result")
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&stubRunner{}, 2)

	if results := processor.Process(context.Background(), nil); results != nil {
		t.Errorf("expected nil results for empty batch, got %v", results)
	}
}

func TestExtractJob_Execute(t *testing.T) {
	job := &ExtractJob{
		Source:  "vendor-a",
		Request: pipeline.Request{Prompt: "vendor-a"},
		Runner:  &stubRunner{},
	}

	result := job.Execute(context.Background())
	er, ok := result.(*ExtractResult)
	if !ok {
		t.Fatalf("expected *ExtractResult, got %T", result)
	}
	if er.Source != "vendor-a" || er.Err != nil || er.Result == nil {
		t.Errorf("unexpected result: %+v", er)
	}
}
