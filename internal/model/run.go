package model

import "time"

// RunStatus is the lifecycle state of an agent run.
// Transitions are strictly forward: running → done | failed,
// set exactly once at loop exit.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunDone    RunStatus = "done"
	RunFailed  RunStatus = "failed"
)

// AgentRun records one orchestrated BRD generation
type AgentRun struct {
	ID         string     `json:"run_id"`
	BRDID      string     `json:"brd_id"`
	Status     RunStatus  `json:"status"`
	Output     string     `json:"output,omitempty"` // Serialized RunSummary or error
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// AgentStep is one tool invocation, logged for explainability.
// Append-only: one row per invocation, success or failure,
// never updated or deleted.
type AgentStep struct {
	RunID     string    `json:"run_id"`
	ToolName  string    `json:"tool_name"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// RunSummary is the orchestrator's terminal result
type RunSummary struct {
	Success      bool   `json:"success"`
	BRDID        string `json:"brd_id"`
	Steps        int    `json:"steps"`
	Conflicts    int    `json:"conflicts"`
	HasSentiment bool   `json:"has_sentiment"`
	Error        string `json:"error,omitempty"`
}
