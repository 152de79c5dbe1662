//go:build cgo

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coalesce-dev/coalesce/internal/analyzer"
	"github.com/coalesce-dev/coalesce/internal/engine"
)

// analysisManifest describes where each task's edited files live relative to
// a shared baseline tree.
type analysisManifest struct {
	BaselineDir string         `json:"baseline_dir"`
	Tasks       []manifestTask `json:"tasks"`
}

type manifestTask struct {
	TaskID string   `json:"task_id"`
	Intent string   `json:"intent,omitempty"`
	Dir    string   `json:"dir"`
	Files  []string `json:"files"`
}

// runAnalyze diffs each task's files against the baseline tree and writes a
// merge input bundle to stdout.
func runAnalyze(flags cliFlags) error {
	data, err := os.ReadFile(flags.Analyze)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var manifest analysisManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.BaselineDir == "" {
		return fmt.Errorf("manifest is missing baseline_dir")
	}

	a := analyzer.New()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var in engine.Input
	for _, task := range manifest.Tasks {
		pairs := make([]analyzer.FilePair, 0, len(task.Files))
		for _, file := range task.Files {
			baseline, err := os.ReadFile(filepath.Join(manifest.BaselineDir, file))
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("read baseline %s: %w", file, err)
			}
			modified, err := os.ReadFile(filepath.Join(task.Dir, file))
			if err != nil {
				return fmt.Errorf("read %s for task %s: %w", file, task.TaskID, err)
			}
			pairs = append(pairs, analyzer.FilePair{
				Path:     file,
				Baseline: baseline,
				Modified: modified,
			})
		}

		analyses, err := a.AnalyzeTask(ctx, pairs)
		if err != nil {
			return fmt.Errorf("analyze task %s: %w", task.TaskID, err)
		}

		ti := engine.TaskInput{Analyses: analyses}
		ti.Snapshot.TaskID = task.TaskID
		ti.Snapshot.TaskIntent = task.Intent
		ti.Snapshot.StartedAt = time.Now().UTC()
		for _, fa := range analyses {
			ti.Snapshot.Changes = append(ti.Snapshot.Changes, fa.Changes...)
		}
		in.Tasks = append(in.Tasks, ti)
	}

	out, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}
