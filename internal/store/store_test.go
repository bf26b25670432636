package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndGetBRD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	brd := &model.BRD{
		ExecutiveSummary: "Initial summary",
		FunctionalRequirements: []model.Requirement{
			{ID: "FR-1", Title: "Dashboards", SourceQuote: "better dashboards", CitationVerified: true},
		},
	}
	conflicts := []model.Conflict{
		{ID: "C-1", Type: model.ConflictDirect, Severity: model.ConflictHigh, Requirement1ID: "FR-1", Requirement2ID: "FR-2"},
	}
	sentiment := model.NeutralSentiment()

	require.NoError(t, s.UpsertBRD(ctx, "brd-1", brd, conflicts, sentiment))

	rec, err := s.GetBRD(ctx, "brd-1")
	require.NoError(t, err)
	assert.Equal(t, "Initial summary", rec.Content.ExecutiveSummary)
	require.Len(t, rec.Content.FunctionalRequirements, 1)
	assert.True(t, rec.Content.FunctionalRequirements[0].CitationVerified)
	require.Len(t, rec.Conflicts, 1)
	assert.Equal(t, model.ConflictDirect, rec.Conflicts[0].Type)
	require.NotNil(t, rec.Sentiment)
	assert.Equal(t, "neutral", rec.Sentiment.Overall)
	assert.False(t, rec.UpdatedAt.IsZero())
}

func TestUpsertBRD_SecondWriteReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertBRD(ctx, "brd-1", &model.BRD{ExecutiveSummary: "v1"}, nil, nil))
	require.NoError(t, s.UpsertBRD(ctx, "brd-1", &model.BRD{ExecutiveSummary: "v2"}, nil, nil))

	rec, err := s.GetBRD(ctx, "brd-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", rec.Content.ExecutiveSummary)
	assert.Nil(t, rec.Conflicts)
	assert.Nil(t, rec.Sentiment)
}

func TestGetBRD_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBRD(context.Background(), "missing")
	assert.Error(t, err)
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := time.Now().UTC()
	run := &model.AgentRun{
		ID:        "run-1",
		BRDID:     "brd-1",
		Status:    model.RunRunning,
		StartedAt: started,
	}
	require.NoError(t, s.CreateRun(ctx, run))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunRunning, got.Status)
	assert.Equal(t, "brd-1", got.BRDID)
	assert.Nil(t, got.FinishedAt)

	require.NoError(t, s.FinishRun(ctx, "run-1", model.RunDone, `{"success":true}`))

	got, err = s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunDone, got.Status)
	assert.Equal(t, `{"success":true}`, got.Output)
	require.NotNil(t, got.FinishedAt)
	assert.False(t, got.FinishedAt.Before(got.StartedAt))
}

func TestCreateRun_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &model.AgentRun{ID: "run-1", BRDID: "brd-1", Status: model.RunRunning, StartedAt: time.Now().UTC()}
	require.NoError(t, s.CreateRun(ctx, run))
	assert.Error(t, s.CreateRun(ctx, run))
}

func TestStepLog_AppendOnlyOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tools := []string{"filter_noise", "extract_brd", "detect_conflicts", "save_brd"}
	for _, tool := range tools {
		require.NoError(t, s.AppendStep(ctx, model.AgentStep{
			RunID:    "run-1",
			ToolName: tool,
			Input:    `{}`,
			Output:   `{"ok":true}`,
		}))
	}
	// Steps for another run must not leak in
	require.NoError(t, s.AppendStep(ctx, model.AgentStep{RunID: "run-2", ToolName: "filter_noise"}))

	steps, err := s.ListSteps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, steps, len(tools))
	for i, tool := range tools {
		assert.Equal(t, tool, steps[i].ToolName)
		assert.False(t, steps[i].Timestamp.IsZero())
	}
}

func TestListSteps_EmptyRun(t *testing.T) {
	s := newTestStore(t)

	steps, err := s.ListSteps(context.Background(), "no-steps")
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestNewStore_CreatesSchemaIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.UpsertBRD(context.Background(), "brd-1", &model.BRD{ExecutiveSummary: "kept"}, nil, nil))
	require.NoError(t, s.Close())

	// Reopening must keep existing rows
	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	rec, err := s.GetBRD(context.Background(), "brd-1")
	require.NoError(t, err)
	assert.Equal(t, "kept", rec.Content.ExecutiveSummary)
}
