package worker

import (
	"context"

	"github.com/halcyonhealth/dashforge/internal/pipeline"
)

// Runner runs one extraction job. Satisfied by *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// ExtractJob is one document set's extraction
type ExtractJob struct {
	Source  string // Identifier for reporting
	Request pipeline.Request
	Runner  Runner
}

// Execute runs the extraction
func (j *ExtractJob) Execute(ctx context.Context) Result {
	result, err := j.Runner.Run(ctx, j.Request)
	return &ExtractResult{Source: j.Source, Result: result, Err: err}
}

// ExtractResult is the outcome of one extraction job
type ExtractResult struct {
	Source string
	Result *pipeline.Result
	Err    error
}

// GetError returns the job's error
func (r *ExtractResult) GetError() error {
	return r.Err
}

// BatchProcessor runs many independent extraction jobs concurrently. Each job
// owns its document set and retry state, so no coordination is needed.
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{runner: runner, concurrency: concurrency}
}

// Process runs all requests and returns per-source results
func (b *BatchProcessor) Process(ctx context.Context, requests map[string]pipeline.Request) []*ExtractResult {
	if len(requests) == 0 {
		return nil
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for source, req := range requests {
		pool.Submit(&ExtractJob{Source: source, Request: req, Runner: b.runner})
	}

	raw := pool.Wait()
	results := make([]*ExtractResult, 0, len(raw))
	for _, r := range raw {
		if er, ok := r.(*ExtractResult); ok {
			results = append(results, er)
		}
	}
	return results
}
