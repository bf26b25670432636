// Package store persists BRD documents, agent runs, and the
// append-only step log in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

// Store manages the SQLite database
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at path and creates the
// schema if it does not exist
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS brds (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			conflicts TEXT,
			sentiment TEXT,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS agent_runs (
			id TEXT PRIMARY KEY,
			brd_id TEXT NOT NULL,
			status TEXT NOT NULL,
			output TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_brd_id ON agent_runs(brd_id)`,
		`CREATE TABLE IF NOT EXISTS agent_steps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			tool_name TEXT NOT NULL,
			input TEXT,
			output TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_steps_run_id ON agent_steps(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// BRDRecord is one persisted BRD row
type BRDRecord struct {
	ID        string
	Content   *model.BRD
	Conflicts []model.Conflict
	Sentiment *model.SentimentReport
	UpdatedAt time.Time
}

// UpsertBRD writes the document, conflicts, and sentiment for a BRD id
func (s *Store) UpsertBRD(ctx context.Context, id string, content *model.BRD, conflicts []model.Conflict, sentiment *model.SentimentReport) error {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("marshal BRD content: %w", err)
	}

	var conflictsJSON, sentimentJSON []byte
	if conflicts != nil {
		if conflictsJSON, err = json.Marshal(conflicts); err != nil {
			return fmt.Errorf("marshal conflicts: %w", err)
		}
	}
	if sentiment != nil {
		if sentimentJSON, err = json.Marshal(sentiment); err != nil {
			return fmt.Errorf("marshal sentiment: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO brds (id, content, conflicts, sentiment, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			conflicts = excluded.conflicts,
			sentiment = excluded.sentiment,
			updated_at = excluded.updated_at`,
		id, string(contentJSON), nullable(conflictsJSON), nullable(sentimentJSON),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert brd %s: %w", id, err)
	}

	return nil
}

// GetBRD reads one BRD by id
func (s *Store) GetBRD(ctx context.Context, id string) (*BRDRecord, error) {
	var (
		contentJSON   string
		conflictsJSON sql.NullString
		sentimentJSON sql.NullString
		updatedAt     string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT content, conflicts, sentiment, updated_at FROM brds WHERE id = ?`, id).
		Scan(&contentJSON, &conflictsJSON, &sentimentJSON, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("read brd %s: %w", id, err)
	}

	rec := &BRDRecord{ID: id}
	rec.Content = &model.BRD{}
	if err := json.Unmarshal([]byte(contentJSON), rec.Content); err != nil {
		return nil, fmt.Errorf("parse brd content %s: %w", id, err)
	}
	if conflictsJSON.Valid && conflictsJSON.String != "" {
		if err := json.Unmarshal([]byte(conflictsJSON.String), &rec.Conflicts); err != nil {
			return nil, fmt.Errorf("parse brd conflicts %s: %w", id, err)
		}
	}
	if sentimentJSON.Valid && sentimentJSON.String != "" {
		rec.Sentiment = &model.SentimentReport{}
		if err := json.Unmarshal([]byte(sentimentJSON.String), rec.Sentiment); err != nil {
			return nil, fmt.Errorf("parse brd sentiment %s: %w", id, err)
		}
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		rec.UpdatedAt = t
	}

	return rec, nil
}

// CreateRun inserts a new agent run in the running state
func (s *Store) CreateRun(ctx context.Context, run *model.AgentRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_runs (id, brd_id, status, output, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.BRDID, string(run.Status), run.Output,
		run.StartedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun records the terminal status and output of a run
func (s *Store) FinishRun(ctx context.Context, runID string, status model.RunStatus, output string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE agent_runs SET status = ?, output = ?, finished_at = ? WHERE id = ?`,
		string(status), output, time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// GetRun reads one run by id
func (s *Store) GetRun(ctx context.Context, runID string) (*model.AgentRun, error) {
	var (
		run        model.AgentRun
		status     string
		output     sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, brd_id, status, output, started_at, finished_at FROM agent_runs WHERE id = ?`, runID).
		Scan(&run.ID, &run.BRDID, &status, &output, &startedAt, &finishedAt)
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", runID, err)
	}

	run.Status = model.RunStatus(status)
	run.Output = output.String
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		run.StartedAt = t
	}
	if finishedAt.Valid {
		if t, err := time.Parse(time.RFC3339, finishedAt.String); err == nil {
			run.FinishedAt = &t
		}
	}

	return &run, nil
}

// AppendStep inserts one step log row. Rows are append-only: nothing
// updates or deletes them.
func (s *Store) AppendStep(ctx context.Context, step model.AgentStep) error {
	ts := step.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_steps (run_id, tool_name, input, output, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		step.RunID, step.ToolName, step.Input, step.Output, ts.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append step for run %s: %w", step.RunID, err)
	}
	return nil
}

// ListSteps returns the step log for a run in insertion order
func (s *Store) ListSteps(ctx context.Context, runID string) ([]model.AgentStep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, tool_name, input, output, created_at
		FROM agent_steps WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps for run %s: %w", runID, err)
	}
	defer rows.Close()

	var steps []model.AgentStep
	for rows.Next() {
		var (
			step      model.AgentStep
			createdAt string
		)
		if err := rows.Scan(&step.RunID, &step.ToolName, &step.Input, &step.Output, &createdAt); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			step.Timestamp = t
		}
		steps = append(steps, step)
	}

	return steps, rows.Err()
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
