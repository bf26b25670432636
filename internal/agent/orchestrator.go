package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/chaitenyachand/ProjectIQ/internal/llm"
	"github.com/chaitenyachand/ProjectIQ/internal/model"
	"github.com/chaitenyachand/ProjectIQ/internal/worker"
)

// Orchestrator drives the decision oracle through bounded steps and
// commits a terminal run outcome. It never raises past its boundary:
// every run resolves to a RunSummary.
type Orchestrator struct {
	oracle       llm.Provider
	dispatcher   *Dispatcher
	limiter      *worker.KeyedLimiter
	maxSteps     int
	previewChars int
	logger       *slog.Logger
}

// NewOrchestrator creates the agent loop
func NewOrchestrator(oracle llm.Provider, dispatcher *Dispatcher, limiter *worker.KeyedLimiter, cfg model.AgentConfig, logger *slog.Logger) *Orchestrator {
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 10
	}
	previewChars := cfg.SourcePreviewChars
	if previewChars <= 0 {
		previewChars = 500
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		oracle:       oracle,
		dispatcher:   dispatcher,
		limiter:      limiter,
		maxSteps:     maxSteps,
		previewChars: previewChars,
		logger:       logger,
	}
}

// Run executes the agent loop for one BRD. The loop ends when the
// oracle signals completion, the save tool reports success, or the
// step ceiling is reached. If the loop ends without an explicit
// successful save but content was extracted, a fallback save runs
// exactly once; no run with extracted content may silently vanish.
func (o *Orchestrator) Run(ctx context.Context, runID, brdID string, sources []model.Source, projectContext string) (summary *model.RunSummary) {
	state := &runState{sources: sources}
	steps := 0

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("agent loop panicked", "run_id", runID, "panic", r)
			summary = o.summarize(runID, brdID, state, steps, fmt.Sprintf("agent loop panicked: %v", r))
		}
	}()

	turns := []llm.Turn{initialTurn(brdID, sources, projectContext, o.previewChars)}
	var loopErr string

	for step := 0; step < o.maxSteps; step++ {
		steps = step + 1
		o.logger.Info("agent step", "run_id", runID, "step", steps, "max_steps", o.maxSteps)

		decision, err := o.decide(ctx, turns)
		if err != nil {
			o.logger.Error("oracle request failed", "run_id", runID, "error", err)
			loopErr = err.Error()
			break
		}

		turns = appendTurn(turns, assistantTurn(decision))

		if decision.Action == llm.ActionTerminate {
			// Natural completion is not the same as a saved BRD; the
			// fallback below still runs if content was never persisted
			o.logger.Info("agent completed", "run_id", runID, "stop_reason", decision.StopReason)
			break
		}
		if decision.Action != llm.ActionInvoke {
			o.logger.Warn("unexpected stop reason", "run_id", runID, "stop_reason", decision.StopReason)
			break
		}

		// Execute all tool calls of this turn strictly sequentially,
		// in emission order
		results := make([]llm.ToolResult, 0, len(decision.ToolCalls))
		for _, call := range decision.ToolCalls {
			output := o.executeCall(ctx, runID, brdID, call, state)
			results = append(results, llm.ToolResult{
				CallID:  call.ID,
				Name:    call.Name,
				Content: string(output),
			})
		}
		turns = appendTurn(turns, toolResultTurn(results))

		if state.done {
			break
		}
	}

	// Fallback safety net: content extracted but never saved
	if state.brd != nil && !state.done {
		o.logger.Warn("agent ended without successful save, saving manually", "run_id", runID)
		o.fallbackSave(ctx, runID, brdID, state)
	}

	if !state.done && loopErr == "" && state.saveErr != "" {
		loopErr = state.saveErr
	}

	return o.summarize(runID, brdID, state, steps, loopErr)
}

// decide performs one rate-limited oracle round trip
func (o *Orchestrator) decide(ctx context.Context, turns []llm.Turn) (*llm.Decision, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx, o.oracle.Name()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	decision, err := o.oracle.Decide(ctx, llm.DecideRequest{
		Turns: turns,
		Tools: Schemas(),
	})
	if err != nil {
		return nil, fmt.Errorf("oracle decide: %w", err)
	}
	return decision, nil
}

// executeCall validates the tool name, backfills omitted arguments
// from run state, and dispatches. Unknown tools and backfill failures
// yield structured error results, never aborts.
func (o *Orchestrator) executeCall(ctx context.Context, runID, brdID string, call llm.ToolCall, state *runState) json.RawMessage {
	kind, err := ParseToolKind(call.Name)
	if err != nil {
		o.logger.Warn("oracle named unknown tool", "run_id", runID, "tool", call.Name)
		return errorResult(err)
	}

	input, err := o.backfillArgs(kind, call.Arguments, brdID, state)
	if err != nil {
		return errorResult(fmt.Errorf("resolve %s arguments: %w", kind, err))
	}

	return o.dispatcher.Execute(ctx, runID, kind, input, state)
}

// backfillArgs substitutes the most recent known artifact for any
// required argument the oracle omitted. The oracle is never expected
// to re-transmit large payloads.
func (o *Orchestrator) backfillArgs(kind ToolKind, args json.RawMessage, brdID string, state *runState) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &fields); err != nil {
			return nil, fmt.Errorf("parse arguments: %w", err)
		}
	}

	switch kind {
	case ToolFilterNoise:
		if emptyField(fields["sources"]) {
			if err := setField(fields, "sources", state.sources); err != nil {
				return nil, err
			}
		}

	case ToolExtractBRD, ToolAnalyzeSentiment:
		if emptyField(fields["sources"]) {
			sources := state.filteredSources
			if sources == nil {
				sources = state.sources
			}
			if err := setField(fields, "sources", sources); err != nil {
				return nil, err
			}
		}

	case ToolDetectConflicts:
		if emptyField(fields["requirements"]) && state.brd != nil {
			if err := setField(fields, "requirements", requirementsOf(state.brd)); err != nil {
				return nil, err
			}
		}

	case ToolSaveBRD:
		if emptyField(fields["brd_id"]) {
			if err := setField(fields, "brd_id", brdID); err != nil {
				return nil, err
			}
		}
		if emptyField(fields["brd_content"]) && state.brd != nil {
			if err := setField(fields, "brd_content", state.brd); err != nil {
				return nil, err
			}
		}
		if emptyField(fields["conflicts"]) && state.conflicts != nil {
			if err := setField(fields, "conflicts", state.conflicts); err != nil {
				return nil, err
			}
		}
		if emptyField(fields["sentiment"]) && state.sentiment != nil {
			if err := setField(fields, "sentiment", state.sentiment); err != nil {
				return nil, err
			}
		}
	}

	return json.Marshal(fields)
}

// fallbackSave persists extracted content after a loop that never saw
// a successful save. A fallback failure marks the run failed: done
// never reflects an unsaved BRD.
func (o *Orchestrator) fallbackSave(ctx context.Context, runID, brdID string, state *runState) {
	input, err := json.Marshal(saveInput{
		BRDID:     brdID,
		Content:   state.brd,
		Conflicts: state.conflicts,
		Sentiment: state.sentiment,
	})
	if err != nil {
		state.saveErr = fmt.Sprintf("serialize fallback save: %v", err)
		return
	}

	output := o.dispatcher.Execute(ctx, runID, ToolSaveBRD, input, state)
	if !state.done {
		o.logger.Error("fallback save failed", "run_id", runID, "output", string(output))
	}
}

// summarize builds the terminal result summary
func (o *Orchestrator) summarize(runID, brdID string, state *runState, steps int, loopErr string) *model.RunSummary {
	summary := &model.RunSummary{
		Success:      state.brd != nil && state.done,
		BRDID:        brdID,
		Steps:        steps,
		Conflicts:    len(state.conflicts),
		HasSentiment: state.sentiment != nil,
		Error:        loopErr,
	}
	if summary.Error == "" && !summary.Success {
		if state.brd == nil {
			summary.Error = "no content was extracted"
		} else {
			summary.Error = "extracted content could not be saved"
		}
	}

	o.logger.Info("agent run finished",
		"run_id", runID,
		"success", summary.Success,
		"steps", summary.Steps,
		"conflicts", summary.Conflicts,
		"has_sentiment", summary.HasSentiment)

	return summary
}

func emptyField(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	switch string(raw) {
	case "null", `""`, "[]", "{}":
		return true
	}
	return false
}

func setField(fields map[string]json.RawMessage, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	fields[key] = encoded
	return nil
}

// requirementsOf projects the BRD sections the conflict detector scans
func requirementsOf(brd *model.BRD) map[string]any {
	return map[string]any{
		"functional_requirements":     brd.FunctionalRequirements,
		"non_functional_requirements": brd.NonFunctionalRequirements,
		"business_objectives":         brd.BusinessObjectives,
	}
}
