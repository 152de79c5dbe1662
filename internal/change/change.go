// Package change defines the value types that describe semantic edits made
// by concurrent agent tasks: individual changes, per-file and per-task edit
// sets, and the merge vocabulary (strategies, severities, decisions) shared
// by the detector, resolver, and report packages.
package change

import "time"

// --- Enums ---

// ChangeType classifies a single semantic edit.
type ChangeType string

const (
	// Additive kinds.
	AddImport   ChangeType = "add_import"
	AddFunction ChangeType = "add_function"
	AddMethod   ChangeType = "add_method"
	AddClass    ChangeType = "add_class"
	AddVariable ChangeType = "add_variable"
	AddHookCall ChangeType = "add_hook_call"

	// Modifying kinds.
	ModifyFunction ChangeType = "modify_function"
	ModifyMethod   ChangeType = "modify_method"
	ModifyClass    ChangeType = "modify_class"

	// Removing kinds.
	RemoveFunction ChangeType = "remove_function"

	// Structural kinds.
	WrapJSX ChangeType = "wrap_jsx"
)

// IsAdditive reports whether the change only introduces new code.
func (t ChangeType) IsAdditive() bool {
	switch t {
	case AddImport, AddFunction, AddMethod, AddClass, AddVariable, AddHookCall:
		return true
	}
	return false
}

// IsModifying reports whether the change rewrites an existing symbol.
func (t ChangeType) IsModifying() bool {
	switch t {
	case ModifyFunction, ModifyMethod, ModifyClass:
		return true
	}
	return false
}

// IsRemoving reports whether the change deletes an existing symbol.
func (t ChangeType) IsRemoving() bool {
	return t == RemoveFunction
}

// IsStructural reports whether the change rearranges surrounding structure
// rather than a single symbol.
func (t ChangeType) IsStructural() bool {
	return t == WrapJSX
}

// MergeStrategy names a deterministic or delegated way to combine two edits.
type MergeStrategy string

const (
	// CombineImports merges import lists by set union.
	CombineImports MergeStrategy = "combine_imports"

	// AppendBoth keeps both edits, one after the other.
	AppendBoth MergeStrategy = "append_both"

	// AIRequired means the combination needs an AI-assisted textual merge.
	AIRequired MergeStrategy = "ai_required"

	// ManualOnly means no automated path exists; a human must merge.
	ManualOnly MergeStrategy = "manual_only"
)

// ConflictSeverity ranks how risky a detected conflict is.
type ConflictSeverity string

const (
	SeverityLow      ConflictSeverity = "low"
	SeverityMedium   ConflictSeverity = "medium"
	SeverityHigh     ConflictSeverity = "high"
	SeverityCritical ConflictSeverity = "critical"
)

// MergeDecision is the outcome of one merge attempt for one file.
type MergeDecision string

const (
	DecisionAutoMerged       MergeDecision = "auto_merged"
	DecisionAIMerged         MergeDecision = "ai_merged"
	DecisionNeedsHumanReview MergeDecision = "needs_human_review"
	DecisionFailed           MergeDecision = "failed"
)

// --- Models ---

// LocationFileTop is the location key for file-level edits such as imports.
const LocationFileTop = "file_top"

// SemanticChange describes one semantic edit: what kind, which symbol, where.
// Line numbers are 1-based and inclusive. Values are immutable once produced
// and owned by the task that produced them.
type SemanticChange struct {
	Type         ChangeType `json:"change_type"`
	Target       string     `json:"target"`
	Location     string     `json:"location"`
	LineStart    int        `json:"line_start"`
	LineEnd      int        `json:"line_end"`
	ContentAfter string     `json:"content_after,omitempty"`
}

// FileAnalysis is one task's ordered edits to one file.
type FileAnalysis struct {
	FilePath string           `json:"file_path"`
	Changes  []SemanticChange `json:"changes"`
}

// TaskSnapshot captures one task's identity, stated intent, and full edit
// set across every file it touched. Created once at analysis time and
// read-only afterward.
type TaskSnapshot struct {
	TaskID     string           `json:"task_id"`
	TaskIntent string           `json:"task_intent"`
	StartedAt  time.Time        `json:"started_at"`
	Changes    []SemanticChange `json:"changes"`
}

// NoIntent is rendered wherever a task's intent is empty.
const NoIntent = "No intent specified"

// Intent returns the task's stated intent, or NoIntent when it is empty.
func (s TaskSnapshot) Intent() string {
	if s.TaskIntent == "" {
		return NoIntent
	}
	return s.TaskIntent
}

// ConflictRegion records that two or more tasks edited the same location of
// the same file in a way that needs reconciling. Produced by the detector;
// consumed, never mutated, by the resolver and report packages.
type ConflictRegion struct {
	FilePath      string           `json:"file_path"`
	Location      string           `json:"location"`
	TasksInvolved []string         `json:"tasks_involved"`
	ChangeTypes   []ChangeType     `json:"change_types"`
	Severity      ConflictSeverity `json:"severity"`
	CanAutoMerge  bool             `json:"can_auto_merge"`
	MergeStrategy *MergeStrategy   `json:"merge_strategy"`
	Reason        string           `json:"reason"`
}
