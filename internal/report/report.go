// Package report aggregates per-file merge outcomes and run-level counters
// into a persistable merge report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coalesce-dev/coalesce/internal/change"
)

// MergeResult is the outcome of one merge attempt for one file.
type MergeResult struct {
	Decision           change.MergeDecision    `json:"decision"`
	FilePath           string                  `json:"file_path"`
	MergedContent      *string                 `json:"merged_content"`
	ConflictsResolved  []change.ConflictRegion `json:"conflicts_resolved"`
	ConflictsRemaining []change.ConflictRegion `json:"conflicts_remaining"`
	AICallsMade        int                     `json:"ai_calls_made"`
	TokensUsed         int                     `json:"tokens_used"`
	Error              *string                 `json:"error"`
}

// MergeStats holds run-level counters for one merge run.
type MergeStats struct {
	FilesProcessed        int     `json:"files_processed"`
	FilesAutoMerged       int     `json:"files_auto_merged"`
	FilesAIMerged         int     `json:"files_ai_merged"`
	FilesNeedReview       int     `json:"files_need_review"`
	FilesFailed           int     `json:"files_failed"`
	ConflictsDetected     int     `json:"conflicts_detected"`
	ConflictsAutoResolved int     `json:"conflicts_auto_resolved"`
	ConflictsAIResolved   int     `json:"conflicts_ai_resolved"`
	AICallsMade           int     `json:"ai_calls_made"`
	EstimatedTokensUsed   int     `json:"estimated_tokens_used"`
	DurationSeconds       float64 `json:"duration_seconds"`
}

// SuccessRate is the fraction of processed files merged without human
// intervention. A run with no files counts as fully successful.
func (s MergeStats) SuccessRate() float64 {
	if s.FilesProcessed == 0 {
		return 1.0
	}
	return float64(s.FilesAutoMerged+s.FilesAIMerged) / float64(s.FilesProcessed)
}

// AutoMergeRate is the fraction of detected conflicts resolved by rules
// alone. A run with no conflicts counts as fully auto-merged.
func (s MergeStats) AutoMergeRate() float64 {
	if s.ConflictsDetected == 0 {
		return 1.0
	}
	return float64(s.ConflictsAutoResolved) / float64(s.ConflictsDetected)
}

// MergeReport is the auditable record of one merge run, built incrementally
// over the run's lifetime.
type MergeReport struct {
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at"`
	TasksMerged []string               `json:"tasks_merged"`
	FileResults map[string]MergeResult `json:"file_results"`
	Stats       MergeStats             `json:"stats"`
	Success     bool                   `json:"success"`
	Error       *string                `json:"error"`
}

// NewMergeReport returns a report stamped with the given start time and an
// empty result map.
func NewMergeReport(startedAt time.Time) *MergeReport {
	return &MergeReport{
		StartedAt:   startedAt,
		FileResults: make(map[string]MergeResult),
	}
}

// AddResult records the outcome for one file.
func (r *MergeReport) AddResult(res MergeResult) {
	r.FileResults[res.FilePath] = res
}

// Complete stamps the completion time and final status.
func (r *MergeReport) Complete(at time.Time, success bool, errMsg string) {
	t := at
	r.CompletedAt = &t
	r.Success = success
	if errMsg != "" {
		r.Error = &errMsg
	}
	r.Stats.DurationSeconds = at.Sub(r.StartedAt).Seconds()
}

// Save writes the report as indented UTF-8 JSON. The destination's parent
// directory must already exist: downstream tooling prepares the report
// location in advance, so a missing directory is an error, never something
// to create silently.
func (r *MergeReport) Save(path string) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("report: parent directory %s does not exist: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("report: parent path %s is not a directory", dir)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// Load reads a previously saved report.
func Load(path string) (*MergeReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: read %s: %w", path, err)
	}
	var r MergeReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: parse %s: %w", path, err)
	}
	return &r, nil
}
