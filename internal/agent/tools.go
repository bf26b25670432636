package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaitenyachand/ProjectIQ/internal/conflict"
	"github.com/chaitenyachand/ProjectIQ/internal/extract"
	"github.com/chaitenyachand/ProjectIQ/internal/llm"
	"github.com/chaitenyachand/ProjectIQ/internal/model"
	"github.com/chaitenyachand/ProjectIQ/internal/prioritize"
	"github.com/chaitenyachand/ProjectIQ/internal/sentiment"
	"github.com/chaitenyachand/ProjectIQ/internal/store"
)

// ToolKind enumerates the closed set of tools the oracle may invoke
type ToolKind string

const (
	ToolFilterNoise      ToolKind = "filter_noise"
	ToolExtractBRD       ToolKind = "extract_brd"
	ToolDetectConflicts  ToolKind = "detect_conflicts"
	ToolAnalyzeSentiment ToolKind = "analyze_sentiment"
	ToolSaveBRD          ToolKind = "save_brd"
)

// UnknownToolError is returned when the oracle names a tool outside
// the closed set
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ParseToolKind validates a tool name against the closed set
func ParseToolKind(name string) (ToolKind, error) {
	switch ToolKind(name) {
	case ToolFilterNoise, ToolExtractBRD, ToolDetectConflicts, ToolAnalyzeSentiment, ToolSaveBRD:
		return ToolKind(name), nil
	default:
		return "", &UnknownToolError{Name: name}
	}
}

// Static input schemas, one per tool kind, exposed to the oracle
var toolSchemas = []llm.ToolSchema{
	{
		Name: string(ToolFilterNoise),
		Description: "Filter irrelevant/noisy content from input sources using the ML relevance classifier. " +
			"Call this FIRST before any other tool. " +
			"Input: list of source objects. Output: filtered sources with relevance scores.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"sources": {
					"type": "array",
					"description": "List of source objects with type, content, metadata fields"
				}
			},
			"required": ["sources"]
		}`),
	},
	{
		Name: string(ToolExtractBRD),
		Description: "Extract structured BRD content (functional requirements, non-functional requirements, " +
			"business objectives, stakeholders, assumptions, success metrics, timeline) " +
			"from the filtered sources.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"sources": {
					"type": "array",
					"description": "Filtered source objects from filter_noise output"
				}
			},
			"required": ["sources"]
		}`),
	},
	{
		Name: string(ToolDetectConflicts),
		Description: "Identify conflicting or contradictory requirements in the extracted BRD. " +
			"Call this after extract_brd when there are 5+ requirements.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"requirements": {
					"type": "object",
					"description": "Object with functional_requirements, non_functional_requirements, business_objectives arrays"
				}
			},
			"required": ["requirements"]
		}`),
	},
	{
		Name: string(ToolAnalyzeSentiment),
		Description: "Analyze stakeholder sentiment from the source communications. " +
			"Call this after extract_brd to understand stakeholder concerns.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"sources": {
					"type": "array",
					"description": "Original or filtered source objects"
				}
			},
			"required": ["sources"]
		}`),
	},
	{
		Name: string(ToolSaveBRD),
		Description: "Persist the completed BRD to the database. Call this LAST after all other tools. " +
			"Pass the complete BRD content including any conflicts and sentiment data.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"brd_id":      {"type": "string"},
				"brd_content": {"type": "object"},
				"conflicts":   {"type": "array"},
				"sentiment":   {"type": "object"}
			},
			"required": ["brd_id", "brd_content"]
		}`),
	},
}

// Schemas returns the fixed tool schema set for the oracle
func Schemas() []llm.ToolSchema {
	return toolSchemas
}

// Typed tool inputs

type sourcesInput struct {
	Sources []model.Source `json:"sources"`
}

type requirementsInput struct {
	Requirements conflict.Requirements `json:"requirements"`
}

type saveInput struct {
	BRDID     string                 `json:"brd_id"`
	Content   *model.BRD             `json:"brd_content"`
	Conflicts []model.Conflict       `json:"conflicts"`
	Sentiment *model.SentimentReport `json:"sentiment"`
}

// runState is the orchestrator's scratch record. Updates are
// last-write-wins per tool kind.
type runState struct {
	sources         []model.Source
	filteredSources []model.Source
	brd             *model.BRD
	conflicts       []model.Conflict
	sentiment       *model.SentimentReport
	done            bool
	saveErr         string
}

// Dispatcher executes tools and records every invocation in the step
// log. It never propagates a tool failure: any error becomes a
// structured {"error": ...} result the oracle can adapt to.
type Dispatcher struct {
	filterer  *prioritize.Filterer
	extractor *extract.Extractor
	detector  *conflict.Detector
	analyzer  *sentiment.Analyzer
	store     *store.Store
	logger    *slog.Logger
}

// NewDispatcher creates a tool dispatcher
func NewDispatcher(
	filterer *prioritize.Filterer,
	extractor *extract.Extractor,
	detector *conflict.Detector,
	analyzer *sentiment.Analyzer,
	st *store.Store,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		filterer:  filterer,
		extractor: extractor,
		detector:  detector,
		analyzer:  analyzer,
		store:     st,
		logger:    logger,
	}
}

// errorResult serializes a tool failure
func errorResult(err error) json.RawMessage {
	out, _ := json.Marshal(map[string]string{"error": err.Error()})
	return out
}

// Execute runs one tool call, updates the scratch state, and appends
// the step log row. Execution is synchronous and single-threaded per
// run, keeping state mutation and log ordering deterministic.
func (d *Dispatcher) Execute(ctx context.Context, runID string, kind ToolKind, input json.RawMessage, state *runState) json.RawMessage {
	d.logger.Info("executing tool", "run_id", runID, "tool", string(kind))

	result := d.run(ctx, kind, input, state)
	d.logStep(ctx, runID, kind, input, result)
	return result
}

// run executes the tool body, converting every failure (including
// panics from tool internals) into a structured error result
func (d *Dispatcher) run(ctx context.Context, kind ToolKind, input json.RawMessage, state *runState) (result json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", string(kind), "panic", r)
			result = errorResult(fmt.Errorf("tool %s panicked: %v", kind, r))
		}
	}()

	switch kind {
	case ToolFilterNoise:
		return d.runFilterNoise(ctx, input, state)
	case ToolExtractBRD:
		return d.runExtractBRD(ctx, input, state)
	case ToolDetectConflicts:
		return d.runDetectConflicts(ctx, input, state)
	case ToolAnalyzeSentiment:
		return d.runAnalyzeSentiment(ctx, input, state)
	case ToolSaveBRD:
		return d.runSaveBRD(ctx, input, state)
	default:
		return errorResult(&UnknownToolError{Name: string(kind)})
	}
}

func (d *Dispatcher) runFilterNoise(ctx context.Context, input json.RawMessage, state *runState) json.RawMessage {
	var in sourcesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return errorResult(fmt.Errorf("invalid filter_noise input: %w", err))
	}
	if len(in.Sources) == 0 {
		out, _ := json.Marshal(prioritize.FilterResult{FilteredSources: []model.Source{}})
		return out
	}

	result := d.filterer.Filter(ctx, in.Sources)
	state.filteredSources = result.FilteredSources

	out, err := json.Marshal(result)
	if err != nil {
		return errorResult(fmt.Errorf("serialize filter result: %w", err))
	}
	return out
}

func (d *Dispatcher) runExtractBRD(ctx context.Context, input json.RawMessage, state *runState) json.RawMessage {
	var in sourcesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return errorResult(fmt.Errorf("invalid extract_brd input: %w", err))
	}

	brd, err := d.extractor.Extract(ctx, in.Sources)
	if err != nil {
		return errorResult(err)
	}
	state.brd = brd

	out, err := json.Marshal(map[string]*model.BRD{"brd_content": brd})
	if err != nil {
		return errorResult(fmt.Errorf("serialize brd: %w", err))
	}
	return out
}

func (d *Dispatcher) runDetectConflicts(ctx context.Context, input json.RawMessage, state *runState) json.RawMessage {
	var in requirementsInput
	if err := json.Unmarshal(input, &in); err != nil {
		return errorResult(fmt.Errorf("invalid detect_conflicts input: %w", err))
	}

	conflicts, err := d.detector.Detect(ctx, in.Requirements)
	if err != nil {
		return errorResult(err)
	}
	state.conflicts = conflicts

	out, err := json.Marshal(map[string]any{"conflicts": conflicts, "count": len(conflicts)})
	if err != nil {
		return errorResult(fmt.Errorf("serialize conflicts: %w", err))
	}
	return out
}

func (d *Dispatcher) runAnalyzeSentiment(ctx context.Context, input json.RawMessage, state *runState) json.RawMessage {
	var in sourcesInput
	if err := json.Unmarshal(input, &in); err != nil {
		return errorResult(fmt.Errorf("invalid analyze_sentiment input: %w", err))
	}

	report, err := d.analyzer.Analyze(ctx, in.Sources)
	if err != nil {
		return errorResult(err)
	}
	state.sentiment = report

	out, err := json.Marshal(map[string]*model.SentimentReport{"sentiment": report})
	if err != nil {
		return errorResult(fmt.Errorf("serialize sentiment: %w", err))
	}
	return out
}

func (d *Dispatcher) runSaveBRD(ctx context.Context, input json.RawMessage, state *runState) json.RawMessage {
	var in saveInput
	if err := json.Unmarshal(input, &in); err != nil {
		return errorResult(fmt.Errorf("invalid save_brd input: %w", err))
	}
	if in.BRDID == "" || in.Content == nil {
		return errorResult(fmt.Errorf("save_brd requires brd_id and brd_content"))
	}

	if err := d.store.UpsertBRD(ctx, in.BRDID, in.Content, in.Conflicts, in.Sentiment); err != nil {
		// A failed save leaves the run not-done; the oracle may retry
		state.saveErr = err.Error()
		out, _ := json.Marshal(map[string]any{"success": false, "error": err.Error()})
		return out
	}

	state.done = true
	state.saveErr = ""
	out, _ := json.Marshal(map[string]any{"success": true, "brd_id": in.BRDID})
	return out
}

// logStep appends the invocation to the step log. A logging failure is
// itself caught and only warned about: it never fails the tool call.
func (d *Dispatcher) logStep(ctx context.Context, runID string, kind ToolKind, input, output json.RawMessage) {
	if d.store == nil {
		return
	}

	step := model.AgentStep{
		RunID:     runID,
		ToolName:  string(kind),
		Input:     string(input),
		Output:    string(output),
		Timestamp: time.Now().UTC(),
	}
	if err := d.store.AppendStep(ctx, step); err != nil {
		d.logger.Warn("could not log agent step", "run_id", runID, "tool", string(kind), "error", err)
	}
}
