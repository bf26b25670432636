package agent

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
	"github.com/chaitenyachand/ProjectIQ/internal/store"
)

// Runner owns run lifecycle: it creates the run record, executes the
// loop as a detached background task, and commits the terminal status.
// Callers get a run id immediately and poll for status; they are never
// blocked on reasoning-engine round trips.
type Runner struct {
	store        *store.Store
	orchestrator *Orchestrator
	logger       *slog.Logger
}

// NewRunner creates a run manager
func NewRunner(st *store.Store, orchestrator *Orchestrator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:        st,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// StartRun records a new run and launches the agent loop in the
// background, returning the run id immediately
func (r *Runner) StartRun(ctx context.Context, brdID string, sources []model.Source, projectContext string) (string, error) {
	runID, err := newRunID()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}

	run := &model.AgentRun{
		ID:        runID,
		BRDID:     brdID,
		Status:    model.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := r.store.CreateRun(ctx, run); err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	// Detached from the caller's context: the run outlives the request
	go r.execute(context.Background(), runID, brdID, sources, projectContext)

	return runID, nil
}

// execute runs the loop and writes the terminal status exactly once
func (r *Runner) execute(ctx context.Context, runID, brdID string, sources []model.Source, projectContext string) {
	summary := r.orchestrator.Run(ctx, runID, brdID, sources, projectContext)

	status := model.RunDone
	if !summary.Success {
		status = model.RunFailed
	}

	output, err := json.Marshal(summary)
	if err != nil {
		output = []byte(fmt.Sprintf(`{"success":%t}`, summary.Success))
	}

	if err := r.store.FinishRun(ctx, runID, status, string(output)); err != nil {
		r.logger.Error("could not record run outcome", "run_id", runID, "error", err)
	}
}

// Status polls one run
func (r *Runner) Status(ctx context.Context, runID string) (*model.AgentRun, error) {
	return r.store.GetRun(ctx, runID)
}

// WaitForRun polls until the run reaches a terminal status or the
// context expires
func (r *Runner) WaitForRun(ctx context.Context, runID string, pollInterval time.Duration) (*model.AgentRun, error) {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		run, err := r.store.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		if run.Status != model.RunRunning {
			return run, nil
		}

		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-ticker.C:
		}
	}
}

// newRunID generates an opaque 128-bit hex run identifier
func newRunID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
