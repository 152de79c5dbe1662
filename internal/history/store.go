// Package history persists merge-run outcomes so repeated runs over the same
// codebase can be audited and queried later.
package history

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/coalesce-dev/coalesce/internal/report"
)

// RunRecord summarizes one completed merge run.
type RunRecord struct {
	ID                string    `json:"id"`
	StartedAt         time.Time `json:"started_at"`
	CompletedAt       time.Time `json:"completed_at"`
	Tasks             []string  `json:"tasks"`
	FilesProcessed    int       `json:"files_processed"`
	ConflictsDetected int       `json:"conflicts_detected"`
	Success           bool      `json:"success"`
}

// ConflictRecord is one conflict region observed during a run.
type ConflictRecord struct {
	RunID    string   `json:"run_id"`
	FilePath string   `json:"file_path"`
	Location string   `json:"location"`
	Severity string   `json:"severity"`
	Tasks    []string `json:"tasks"`
	Resolved bool     `json:"resolved"`
	Decision string   `json:"decision"`
}

// RunStats aggregates across all recorded runs.
type RunStats struct {
	RunCount      int `json:"run_count"`
	ConflictCount int `json:"conflict_count"`
	ResolvedCount int `json:"resolved_count"`
}

// Store is the interface for the merge-history backend.
// Implementations: KuzuStore (persistent, CGO), MemoryStore (testing and
// non-CGO builds).
type Store interface {
	io.Closer

	// InitSchema is called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations.
	AddRun(ctx context.Context, run RunRecord) error
	AddConflict(ctx context.Context, c ConflictRecord) error

	// Read operations.
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	RunConflicts(ctx context.Context, runID string) ([]ConflictRecord, error)

	// Stats.
	Stats(ctx context.Context) (*RunStats, error)
}

// RecordReport stores one merge report as a run plus its conflict records
// and returns the generated run ID.
func RecordReport(ctx context.Context, store Store, rep *report.MergeReport) (string, error) {
	runID := uuid.NewString()

	completed := rep.StartedAt
	if rep.CompletedAt != nil {
		completed = *rep.CompletedAt
	}

	run := RunRecord{
		ID:                runID,
		StartedAt:         rep.StartedAt,
		CompletedAt:       completed,
		Tasks:             rep.TasksMerged,
		FilesProcessed:    rep.Stats.FilesProcessed,
		ConflictsDetected: rep.Stats.ConflictsDetected,
		Success:           rep.Success,
	}
	if err := store.AddRun(ctx, run); err != nil {
		return "", err
	}

	for _, res := range rep.FileResults {
		for _, c := range res.ConflictsResolved {
			rec := ConflictRecord{
				RunID:    runID,
				FilePath: c.FilePath,
				Location: c.Location,
				Severity: string(c.Severity),
				Tasks:    c.TasksInvolved,
				Resolved: true,
				Decision: string(res.Decision),
			}
			if err := store.AddConflict(ctx, rec); err != nil {
				return "", err
			}
		}
		for _, c := range res.ConflictsRemaining {
			rec := ConflictRecord{
				RunID:    runID,
				FilePath: c.FilePath,
				Location: c.Location,
				Severity: string(c.Severity),
				Tasks:    c.TasksInvolved,
				Resolved: false,
				Decision: string(res.Decision),
			}
			if err := store.AddConflict(ctx, rec); err != nil {
				return "", err
			}
		}
	}
	return runID, nil
}
