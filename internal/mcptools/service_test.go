package mcptools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalesce-dev/coalesce/internal/change"
	"github.com/coalesce-dev/coalesce/internal/engine"
	"github.com/coalesce-dev/coalesce/internal/history"
	"github.com/coalesce-dev/coalesce/internal/resolve"
	"github.com/coalesce-dev/coalesce/internal/rules"
)

func newService(caller resolve.Caller, store history.Store) *MergeService {
	idx := rules.IndexRules(rules.DefaultRules())
	eng := engine.New(idx, resolve.NewResolver(caller), false)
	return NewMergeService(eng, idx, store)
}

func conflictingTasks() []engine.TaskInput {
	analysis := func(start, end int) change.FileAnalysis {
		return change.FileAnalysis{
			FilePath: "main.go",
			Changes: []change.SemanticChange{
				{Type: change.ModifyFunction, Target: "run", Location: "function:run", LineStart: start, LineEnd: end},
			},
		}
	}
	return []engine.TaskInput{
		{Snapshot: change.TaskSnapshot{TaskID: "task-a"}, Analyses: []change.FileAnalysis{analysis(10, 30)}},
		{Snapshot: change.TaskSnapshot{TaskID: "task-b"}, Analyses: []change.FileAnalysis{analysis(20, 40)}},
	}
}

func TestDetectConflicts_Tool(t *testing.T) {
	svc := newService(nil, nil)

	_, out, err := svc.DetectConflicts(context.Background(), nil, DetectConflictsInput{
		Tasks: conflictingTasks(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, out.Total)
	assert.Equal(t, 1, out.Files)
	require.Len(t, out.Conflicts, 1)
	assert.Equal(t, "function:run", out.Conflicts[0].Location)
	assert.Equal(t, change.SeverityCritical, out.Conflicts[0].Severity)
}

func TestDetectConflicts_Tool_NoTasks(t *testing.T) {
	svc := newService(nil, nil)
	_, _, err := svc.DetectConflicts(context.Background(), nil, DetectConflictsInput{})
	require.Error(t, err)
}

func TestMergeTasks_Tool_RecordsRun(t *testing.T) {
	store := history.NewMemoryStore()
	svc := newService(resolve.CallerFunc(func(_ context.Context, _ string) (string, error) {
		return "```go\nmerged\n```", nil
	}), store)

	_, out, err := svc.MergeTasks(context.Background(), nil, MergeTasksInput{
		Tasks: conflictingTasks(),
	})
	require.NoError(t, err)

	assert.True(t, out.Report.Success)
	require.NotEmpty(t, out.RunID)

	run, err := store.GetRun(context.Background(), out.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 1, run.ConflictsDetected)
	assert.True(t, run.Success)
}

func TestMergeTasks_Tool_NoStore(t *testing.T) {
	svc := newService(nil, nil)

	_, out, err := svc.MergeTasks(context.Background(), nil, MergeTasksInput{
		Tasks: conflictingTasks(),
	})
	require.NoError(t, err)
	assert.Empty(t, out.RunID)
	assert.False(t, out.Report.Success, "no caller means escalation")
}

func TestGetRunStatus_Tool(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	require.NoError(t, store.AddRun(ctx, history.RunRecord{ID: "run-1", StartedAt: time.Now()}))
	require.NoError(t, store.AddConflict(ctx, history.ConflictRecord{RunID: "run-1", Location: "function:run"}))

	svc := newService(nil, store)

	_, out, err := svc.GetRunStatus(ctx, nil, GetRunStatusInput{RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", out.Run.ID)
	require.Len(t, out.Conflicts, 1)
}

func TestGetRunStatus_Tool_NotFound(t *testing.T) {
	svc := newService(nil, history.NewMemoryStore())
	_, _, err := svc.GetRunStatus(context.Background(), nil, GetRunStatusInput{RunID: "run-404"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetRunStatus_Tool_NoStore(t *testing.T) {
	svc := newService(nil, nil)
	_, _, err := svc.GetRunStatus(context.Background(), nil, GetRunStatusInput{RunID: "run-1"})
	require.Error(t, err)
}

func TestListRuns_Tool(t *testing.T) {
	ctx := context.Background()
	store := history.NewMemoryStore()
	require.NoError(t, store.AddRun(ctx, history.RunRecord{ID: "run-1", StartedAt: time.Now()}))
	require.NoError(t, store.AddConflict(ctx, history.ConflictRecord{RunID: "run-1", Resolved: true}))

	svc := newService(nil, store)

	_, out, err := svc.ListRuns(ctx, nil, ListRunsInput{})
	require.NoError(t, err)
	require.Len(t, out.Runs, 1)
	assert.Equal(t, 1, out.Stats.RunCount)
	assert.Equal(t, 1, out.Stats.ResolvedCount)
}

func TestNewMergeMCPServer(t *testing.T) {
	server := NewMergeMCPServer(newService(nil, nil))
	require.NotNil(t, server)
}
