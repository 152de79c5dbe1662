package resolve

import (
	"path/filepath"
	"strings"

	"github.com/coalesce-dev/coalesce/internal/change"
)

// TaskContext is one task's contribution to a resolution prompt: its
// identity, stated intent, and only the changes at the conflicted location.
type TaskContext struct {
	TaskID  string
	Intent  string
	Changes []change.SemanticChange
}

// ResolutionContext is everything the reasoning service needs to merge one
// conflict region.
type ResolutionContext struct {
	Conflict        change.ConflictRegion
	BaselineCode    string
	Tasks           []TaskContext
	Language        string
	EstimatedTokens int
}

// BuildContext assembles the resolution context for one conflict. For every
// snapshot of an involved task it keeps only the changes at the conflict's
// location; edits elsewhere are noise for this merge. Empty intents render
// as change.NoIntent.
func BuildContext(conflict change.ConflictRegion, baselineCode string, snapshots []change.TaskSnapshot) ResolutionContext {
	involved := make(map[string]bool, len(conflict.TasksInvolved))
	for _, id := range conflict.TasksInvolved {
		involved[id] = true
	}

	var tasks []TaskContext
	for _, snap := range snapshots {
		if !involved[snap.TaskID] {
			continue
		}
		var relevant []change.SemanticChange
		for _, c := range snap.Changes {
			if c.Location == conflict.Location {
				relevant = append(relevant, c)
			}
		}
		tasks = append(tasks, TaskContext{
			TaskID:  snap.TaskID,
			Intent:  snap.Intent(),
			Changes: relevant,
		})
	}

	return ResolutionContext{
		Conflict:        conflict,
		BaselineCode:    baselineCode,
		Tasks:           tasks,
		Language:        languageForPath(conflict.FilePath),
		EstimatedTokens: estimateTokens(baselineCode, tasks),
	}
}

// languageForPath infers a language tag from the file extension.
func languageForPath(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "text"
	}
	return strings.ToLower(ext)
}

// estimateTokens is a cheap character-count heuristic, not a real tokenizer.
// Four characters per token is close enough to keep budget checks honest.
func estimateTokens(baselineCode string, tasks []TaskContext) int {
	chars := len(baselineCode)
	for _, t := range tasks {
		chars += len(t.Intent)
		for _, c := range t.Changes {
			chars += len(c.Target) + len(c.ContentAfter)
		}
	}
	return (chars + 3) / 4
}
