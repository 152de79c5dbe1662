package mcptools

// --- MCP Tool Types for the coalesce server mode (--serve-mcp) ---
// These tools are exposed when the binary runs as an MCP server for coding
// agents, letting a coordinator call structured tools instead of shelling out.

import (
	"github.com/coalesce-dev/coalesce/internal/change"
	"github.com/coalesce-dev/coalesce/internal/engine"
	"github.com/coalesce-dev/coalesce/internal/history"
	"github.com/coalesce-dev/coalesce/internal/report"
)

// DetectConflictsInput is the input for the detect_conflicts MCP tool.
type DetectConflictsInput struct {
	Tasks []engine.TaskInput `json:"tasks" jsonschema:"task snapshots with their per-file change analyses"`
}

// DetectConflictsOutput is the result of the detect_conflicts MCP tool.
type DetectConflictsOutput struct {
	Conflicts []change.ConflictRegion `json:"conflicts"`
	Total     int                     `json:"total"`
	Files     int                     `json:"files"`
}

// MergeTasksInput is the input for the merge_tasks MCP tool.
type MergeTasksInput struct {
	Tasks         []engine.TaskInput `json:"tasks" jsonschema:"task snapshots with their per-file change analyses"`
	BaselineCodes map[string]string  `json:"baselineCodes,omitempty" jsonschema:"pre-edit code keyed by conflict location"`
	Batch         bool               `json:"batch,omitempty" jsonschema:"resolve all of a file's conflicts with one AI call"`
}

// MergeTasksOutput is the result of the merge_tasks MCP tool.
type MergeTasksOutput struct {
	RunID  string             `json:"runId,omitempty"`
	Report report.MergeReport `json:"report"`
}

// GetRunStatusInput is the input for the get_run_status MCP tool.
type GetRunStatusInput struct {
	RunID string `json:"runId" jsonschema:"identifier of a recorded merge run"`
}

// GetRunStatusOutput is the result of the get_run_status MCP tool.
type GetRunStatusOutput struct {
	Run       history.RunRecord      `json:"run"`
	Conflicts []history.ConflictRecord `json:"conflicts,omitempty"`
}

// ListRunsInput is the input for the list_runs MCP tool.
type ListRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return (default 20)"`
}

// ListRunsOutput is the result of the list_runs MCP tool.
type ListRunsOutput struct {
	Runs  []history.RunRecord `json:"runs"`
	Stats history.RunStats    `json:"stats"`
}
