package mcptools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/coalesce-dev/coalesce/internal/change"
	"github.com/coalesce-dev/coalesce/internal/detect"
	"github.com/coalesce-dev/coalesce/internal/engine"
	"github.com/coalesce-dev/coalesce/internal/history"
	"github.com/coalesce-dev/coalesce/internal/rules"
)

// MergeService handles MCP tool calls for the coalesce server mode. It wraps
// the merge engine and records completed runs in the history store when one
// is configured.
type MergeService struct {
	engine  *engine.Engine
	rules   *rules.Index
	history history.Store
}

// NewMergeService creates a MergeService. history may be nil, in which case
// merge runs are not recorded.
func NewMergeService(eng *engine.Engine, idx *rules.Index, store history.Store) *MergeService {
	return &MergeService{engine: eng, rules: idx, history: store}
}

// DetectConflicts runs conflict detection over the supplied task analyses
// without attempting any resolution.
func (s *MergeService) DetectConflicts(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input DetectConflictsInput,
) (*mcp.CallToolResult, DetectConflictsOutput, error) {
	if len(input.Tasks) == 0 {
		return nil, DetectConflictsOutput{}, fmt.Errorf("tasks is required")
	}

	perFile := groupByFile(input.Tasks)
	var all []change.ConflictRegion
	for _, analyses := range perFile {
		all = append(all, detect.DetectConflicts(analyses, s.rules)...)
		all = append(all, detect.DetectImplicitConflicts(analyses)...)
	}

	return nil, DetectConflictsOutput{
		Conflicts: all,
		Total:     len(all),
		Files:     len(perFile),
	}, nil
}

// MergeTasks executes a full merge run and returns its report. When a
// history store is configured the run is recorded and its ID returned.
func (s *MergeService) MergeTasks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MergeTasksInput,
) (*mcp.CallToolResult, MergeTasksOutput, error) {
	if len(input.Tasks) == 0 {
		return nil, MergeTasksOutput{}, fmt.Errorf("tasks is required")
	}

	rep := s.engine.Merge(ctx, engine.Input{
		Tasks:         input.Tasks,
		BaselineCodes: input.BaselineCodes,
		Batch:         input.Batch,
	})

	out := MergeTasksOutput{Report: *rep}
	if s.history != nil {
		runID, err := history.RecordReport(ctx, s.history, rep)
		if err != nil {
			return nil, MergeTasksOutput{}, fmt.Errorf("record run: %w", err)
		}
		out.RunID = runID
	}

	return nil, out, nil
}

// GetRunStatus looks up a recorded run and its conflict records.
func (s *MergeService) GetRunStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetRunStatusInput,
) (*mcp.CallToolResult, GetRunStatusOutput, error) {
	if s.history == nil {
		return nil, GetRunStatusOutput{}, fmt.Errorf("no history store configured")
	}
	if input.RunID == "" {
		return nil, GetRunStatusOutput{}, fmt.Errorf("runId is required")
	}

	run, err := s.history.GetRun(ctx, input.RunID)
	if err != nil {
		return nil, GetRunStatusOutput{}, fmt.Errorf("get run: %w", err)
	}
	if run == nil {
		return nil, GetRunStatusOutput{}, fmt.Errorf("run %s not found", input.RunID)
	}

	conflicts, err := s.history.RunConflicts(ctx, input.RunID)
	if err != nil {
		return nil, GetRunStatusOutput{}, fmt.Errorf("run conflicts: %w", err)
	}

	return nil, GetRunStatusOutput{Run: *run, Conflicts: conflicts}, nil
}

// ListRuns returns the most recent recorded runs plus aggregate stats.
func (s *MergeService) ListRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListRunsInput,
) (*mcp.CallToolResult, ListRunsOutput, error) {
	if s.history == nil {
		return nil, ListRunsOutput{}, fmt.Errorf("no history store configured")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	runs, err := s.history.ListRuns(ctx, limit)
	if err != nil {
		return nil, ListRunsOutput{}, fmt.Errorf("list runs: %w", err)
	}

	stats, err := s.history.Stats(ctx)
	if err != nil {
		return nil, ListRunsOutput{}, fmt.Errorf("stats: %w", err)
	}

	return nil, ListRunsOutput{Runs: runs, Stats: *stats}, nil
}

// groupByFile regroups task analyses into the per-file map shape the
// detector consumes.
func groupByFile(tasks []engine.TaskInput) map[string]map[string]change.FileAnalysis {
	perFile := make(map[string]map[string]change.FileAnalysis)
	for _, t := range tasks {
		for _, analysis := range t.Analyses {
			byTask := perFile[analysis.FilePath]
			if byTask == nil {
				byTask = make(map[string]change.FileAnalysis)
				perFile[analysis.FilePath] = byTask
			}
			byTask[t.Snapshot.TaskID] = analysis
		}
	}
	return perFile
}
