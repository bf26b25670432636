package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

func TestParseToolKind(t *testing.T) {
	valid := []string{"filter_noise", "extract_brd", "detect_conflicts", "analyze_sentiment", "save_brd"}
	for _, name := range valid {
		kind, err := ParseToolKind(name)
		if err != nil {
			t.Errorf("ParseToolKind(%q) failed: %v", name, err)
		}
		if string(kind) != name {
			t.Errorf("ParseToolKind(%q) = %q", name, kind)
		}
	}

	_, err := ParseToolKind("drop_database")
	var unknownErr *UnknownToolError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Expected UnknownToolError, got %v", err)
	}
	if unknownErr.Name != "drop_database" {
		t.Errorf("Expected offending name in error, got %q", unknownErr.Name)
	}
}

func TestSchemas_CoverEveryTool(t *testing.T) {
	schemas := Schemas()
	if len(schemas) != 5 {
		t.Fatalf("Expected 5 tool schemas, got %d", len(schemas))
	}
	for _, s := range schemas {
		if _, err := ParseToolKind(s.Name); err != nil {
			t.Errorf("Schema names unknown tool %q", s.Name)
		}
		var decoded map[string]any
		if err := json.Unmarshal(s.InputSchema, &decoded); err != nil {
			t.Errorf("Schema %s carries invalid JSON: %v", s.Name, err)
		}
	}
}

func TestExecute_InvalidInputYieldsErrorResult(t *testing.T) {
	st := testStore(t)
	d := testDispatcher(st, &stubCompleter{response: extractResponse})
	state := &runState{}

	out := d.Execute(context.Background(), "run-t1", ToolFilterNoise, json.RawMessage(`not json`), state)

	var result map[string]string
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("Expected structured error result, got %s", out)
	}
	if !strings.Contains(result["error"], "invalid filter_noise input") {
		t.Errorf("Unexpected error result: %v", result)
	}

	// Failures are step-logged too
	steps, err := st.ListSteps(context.Background(), "run-t1")
	if err != nil {
		t.Fatalf("ListSteps failed: %v", err)
	}
	if len(steps) != 1 || steps[0].ToolName != "filter_noise" {
		t.Errorf("Expected the failed call in the step log, got %+v", steps)
	}
}

func TestExecute_FilterUpdatesState(t *testing.T) {
	st := testStore(t)
	d := testDispatcher(st, &stubCompleter{response: extractResponse})
	state := &runState{}

	input, _ := json.Marshal(sourcesInput{Sources: testRunSources()})
	out := d.Execute(context.Background(), "run-t2", ToolFilterNoise, input, state)

	if len(state.filteredSources) == 0 {
		t.Fatal("Expected filtered sources in scratch state")
	}

	var result struct {
		TotalInput    int `json:"total_input"`
		TotalRelevant int `json:"total_relevant"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("Parse result: %v", err)
	}
	if result.TotalInput != 2 || result.TotalRelevant != 2 {
		t.Errorf("Unexpected filter totals: %+v", result)
	}
}

func TestExecute_SaveRequiresIDAndContent(t *testing.T) {
	st := testStore(t)
	d := testDispatcher(st, &stubCompleter{response: extractResponse})
	state := &runState{}

	out := d.Execute(context.Background(), "run-t3", ToolSaveBRD, json.RawMessage(`{"brd_id": "x"}`), state)

	var result map[string]string
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("Parse result: %v", err)
	}
	if !strings.Contains(result["error"], "save_brd requires") {
		t.Errorf("Expected validation error, got %v", result)
	}
	if state.done {
		t.Error("Expected rejected save to leave the run not-done")
	}
}

func TestExecute_SaveMarksDone(t *testing.T) {
	st := testStore(t)
	d := testDispatcher(st, &stubCompleter{response: extractResponse})
	state := &runState{}

	input, _ := json.Marshal(saveInput{
		BRDID:   "brd-t4",
		Content: &model.BRD{ExecutiveSummary: "Done"},
	})
	out := d.Execute(context.Background(), "run-t4", ToolSaveBRD, input, state)

	var result struct {
		Success bool   `json:"success"`
		BRDID   string `json:"brd_id"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("Parse result: %v", err)
	}
	if !result.Success || result.BRDID != "brd-t4" {
		t.Errorf("Unexpected save result: %+v", result)
	}
	if !state.done {
		t.Error("Expected successful save to mark the run done")
	}

	if _, err := st.GetBRD(context.Background(), "brd-t4"); err != nil {
		t.Errorf("Expected persisted BRD: %v", err)
	}
}

func TestExecute_ToolPanicBecomesErrorResult(t *testing.T) {
	st := testStore(t)
	// A dispatcher with no filterer panics on the nil dereference; the
	// panic must surface as a structured result, not escape
	d := NewDispatcher(nil, nil, nil, nil, st, testLogger())
	state := &runState{}

	input, _ := json.Marshal(sourcesInput{Sources: testRunSources()})
	out := d.Execute(context.Background(), "run-t5", ToolFilterNoise, input, state)

	var result map[string]string
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("Expected structured error result, got %s", out)
	}
	if !strings.Contains(result["error"], "panicked") {
		t.Errorf("Expected panic to be captured, got %v", result)
	}
}

func TestExecute_EmptySourcesShortCircuit(t *testing.T) {
	st := testStore(t)
	d := testDispatcher(st, &stubCompleter{response: extractResponse})
	state := &runState{}

	out := d.Execute(context.Background(), "run-t6", ToolFilterNoise, json.RawMessage(`{"sources": []}`), state)

	var result struct {
		FilteredSources []model.Source `json:"filtered_sources"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		t.Fatalf("Parse result: %v", err)
	}
	if len(result.FilteredSources) != 0 {
		t.Errorf("Expected empty filter result, got %+v", result.FilteredSources)
	}
}
