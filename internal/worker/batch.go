package worker

import (
	"context"
	"time"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

// Starter defines the interface for launching and awaiting agent runs
type Starter interface {
	StartRun(ctx context.Context, brdID string, sources []model.Source, projectContext string) (string, error)
	WaitForRun(ctx context.Context, runID string, pollInterval time.Duration) (*model.AgentRun, error)
}

// GenerateSpec describes one BRD generation in a batch
type GenerateSpec struct {
	BRDID          string         `json:"brd_id"`
	Sources        []model.Source `json:"sources"`
	ProjectContext string         `json:"project_context,omitempty"`
}

// GenerateJob runs one BRD generation to completion
type GenerateJob struct {
	Spec         GenerateSpec
	Starter      Starter
	PollInterval time.Duration
}

// Execute executes the generation job
func (j *GenerateJob) Execute(ctx context.Context) Result {
	runID, err := j.Starter.StartRun(ctx, j.Spec.BRDID, j.Spec.Sources, j.Spec.ProjectContext)
	if err != nil {
		return &GenerateResult{BRDID: j.Spec.BRDID, Error: err}
	}

	run, err := j.Starter.WaitForRun(ctx, runID, j.PollInterval)
	if err != nil {
		return &GenerateResult{BRDID: j.Spec.BRDID, RunID: runID, Error: err}
	}

	return &GenerateResult{BRDID: j.Spec.BRDID, RunID: runID, Run: run}
}

// GenerateResult represents the result of a generation job
type GenerateResult struct {
	BRDID string
	RunID string
	Run   *model.AgentRun
	Error error
}

// GetError returns the error from the generation result
func (r *GenerateResult) GetError() error {
	return r.Error
}

// BatchProcessor runs multiple BRD generations concurrently
type BatchProcessor struct {
	starter      Starter
	concurrency  int
	pollInterval time.Duration
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(starter Starter, concurrency int, pollInterval time.Duration) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{
		starter:      starter,
		concurrency:  concurrency,
		pollInterval: pollInterval,
	}
}

// Process runs every spec through the worker pool and collects results.
// Submission and collection overlap, so a batch larger than the queue
// capacity cannot stall, and cancelling the context abandons the
// remaining work with the results gathered so far.
func (b *BatchProcessor) Process(ctx context.Context, specs []GenerateSpec) []*GenerateResult {
	if len(specs) == 0 {
		return []*GenerateResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		for _, spec := range specs {
			pool.Submit(&GenerateJob{
				Spec:         spec,
				Starter:      b.starter,
				PollInterval: b.pollInterval,
			})
		}
	}()

	results := make([]*GenerateResult, 0, len(specs))
	for range specs {
		select {
		case r := <-pool.results:
			if gr, ok := r.(*GenerateResult); ok {
				results = append(results, gr)
			}
		case <-ctx.Done():
			return results
		}
	}
	return results
}
