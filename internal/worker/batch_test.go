package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

// fakeStarter completes runs instantly without a database or agent loop
type fakeStarter struct {
	runs     atomic.Int32
	failBRDs map[string]bool
	delay    time.Duration
}

func (f *fakeStarter) StartRun(ctx context.Context, brdID string, sources []model.Source, projectContext string) (string, error) {
	if f.failBRDs[brdID] {
		return "", fmt.Errorf("cannot start %s", brdID)
	}
	n := f.runs.Add(1)
	return fmt.Sprintf("run-%d", n), nil
}

func (f *fakeStarter) WaitForRun(ctx context.Context, runID string, pollInterval time.Duration) (*model.AgentRun, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return &model.AgentRun{ID: runID, Status: model.RunDone}, nil
}

func specsFor(ids ...string) []GenerateSpec {
	specs := make([]GenerateSpec, len(ids))
	for i, id := range ids {
		specs[i] = GenerateSpec{
			BRDID:   id,
			Sources: []model.Source{{Type: model.SourceDocument, Content: "content"}},
		}
	}
	return specs
}

func TestProcess_AllSucceed(t *testing.T) {
	starter := &fakeStarter{}
	p := NewBatchProcessor(starter, 3, time.Millisecond)

	results := p.Process(context.Background(), specsFor("a", "b", "c"))

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Error != nil {
			t.Errorf("Unexpected error for %s: %v", r.BRDID, r.Error)
		}
		if r.Run == nil || r.Run.Status != model.RunDone {
			t.Errorf("Expected done run for %s", r.BRDID)
		}
	}
}

func TestProcess_MixedOutcomes(t *testing.T) {
	starter := &fakeStarter{failBRDs: map[string]bool{"bad": true}}
	p := NewBatchProcessor(starter, 2, time.Millisecond)

	results := p.Process(context.Background(), specsFor("good", "bad"))

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	byID := map[string]*GenerateResult{}
	for _, r := range results {
		byID[r.BRDID] = r
	}
	if byID["good"].Error != nil {
		t.Errorf("Expected good to succeed: %v", byID["good"].Error)
	}
	if byID["bad"].Error == nil {
		t.Error("Expected bad to fail")
	}
}

func TestProcess_LargeBatchDoesNotStall(t *testing.T) {
	// Far more specs than queue capacity at concurrency 2
	starter := &fakeStarter{}
	p := NewBatchProcessor(starter, 2, time.Millisecond)

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = fmt.Sprintf("brd-%d", i)
	}

	done := make(chan []*GenerateResult, 1)
	go func() { done <- p.Process(context.Background(), specsFor(ids...)) }()

	select {
	case results := <-done:
		if len(results) != len(ids) {
			t.Errorf("Expected %d results, got %d", len(ids), len(results))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Process stalled on a large batch")
	}
}

func TestProcess_ContextCancelReturnsPartial(t *testing.T) {
	starter := &fakeStarter{delay: 5 * time.Second}
	p := NewBatchProcessor(starter, 1, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan []*GenerateResult, 1)
	go func() { done <- p.Process(ctx, specsFor("slow-1", "slow-2")) }()

	select {
	case results := <-done:
		// Whatever was collected before the cancel must carry errors
		for _, r := range results {
			if r.Error == nil {
				t.Errorf("Expected cancelled run %s to carry an error", r.BRDID)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Process did not return after context cancel")
	}
}

func TestProcess_EmptySpecs(t *testing.T) {
	p := NewBatchProcessor(&fakeStarter{}, 2, time.Millisecond)

	results := p.Process(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Expected empty results, got %d", len(results))
	}
}
