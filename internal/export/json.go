package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/coalesce-dev/coalesce/internal/change"
	"github.com/coalesce-dev/coalesce/internal/report"
)

// MergeSummary is a flattened view of a merge report for downstream tooling
// that wants one row per conflict instead of the nested report shape.
type MergeSummary struct {
	ExportedAt    string        `json:"exportedAt"`
	TasksMerged   []string      `json:"tasksMerged"`
	Success       bool          `json:"success"`
	SuccessRate   float64       `json:"successRate"`
	AutoMergeRate float64       `json:"autoMergeRate"`
	Files         []FileSummary `json:"files"`
	Conflicts     []ConflictRow `json:"conflicts,omitempty"`
}

// FileSummary describes the outcome for one file.
type FileSummary struct {
	Path        string `json:"path"`
	Decision    string `json:"decision"`
	Resolved    int    `json:"resolved"`
	Remaining   int    `json:"remaining"`
	AICallsMade int    `json:"aiCallsMade"`
	TokensUsed  int    `json:"tokensUsed"`
	Error       string `json:"error,omitempty"`
}

// ConflictRow describes one unresolved conflict.
type ConflictRow struct {
	File        string   `json:"file"`
	Location    string   `json:"location"`
	Tasks       []string `json:"tasks"`
	ChangeTypes []string `json:"changeTypes"`
	Severity    string   `json:"severity"`
	Reason      string   `json:"reason"`
}

// Summarize flattens a merge report. Files are ordered by path so output is
// stable across runs.
func Summarize(rep *report.MergeReport) *MergeSummary {
	summary := &MergeSummary{
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
		TasksMerged:   rep.TasksMerged,
		Success:       rep.Success,
		SuccessRate:   rep.Stats.SuccessRate(),
		AutoMergeRate: rep.Stats.AutoMergeRate(),
	}

	paths := make([]string, 0, len(rep.FileResults))
	for path := range rep.FileResults {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		res := rep.FileResults[path]
		fs := FileSummary{
			Path:        path,
			Decision:    string(res.Decision),
			Resolved:    len(res.ConflictsResolved),
			Remaining:   len(res.ConflictsRemaining),
			AICallsMade: res.AICallsMade,
			TokensUsed:  res.TokensUsed,
		}
		if res.Error != nil {
			fs.Error = *res.Error
		}
		summary.Files = append(summary.Files, fs)

		for _, region := range res.ConflictsRemaining {
			summary.Conflicts = append(summary.Conflicts, ConflictRow{
				File:        path,
				Location:    region.Location,
				Tasks:       region.TasksInvolved,
				ChangeTypes: changeTypeNames(region.ChangeTypes),
				Severity:    string(region.Severity),
				Reason:      region.Reason,
			})
		}
	}

	return summary
}

// WriteSummary writes the flattened summary as indented JSON, or a Mermaid
// diagram when the path ends in .mmd.
func WriteSummary(rep *report.MergeReport, path string) error {
	if strings.HasSuffix(path, ".mmd") {
		if err := os.WriteFile(path, []byte(GenerateMermaid(rep)), 0o644); err != nil {
			return fmt.Errorf("write mermaid export: %w", err)
		}
		return nil
	}

	data, err := json.MarshalIndent(Summarize(rep), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func changeTypeNames(types []change.ChangeType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}
