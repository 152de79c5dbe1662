package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coalesce-dev/coalesce/internal/change"
)

func TestParseFencedBlock(t *testing.T) {
	body, ok := parseFencedBlock("Here you go:\n```python\ndef merged(): pass\n```\nDone.")
	require.True(t, ok)
	assert.Equal(t, "def merged(): pass", body)
}

func TestParseFencedBlock_NoLanguageTag(t *testing.T) {
	body, ok := parseFencedBlock("```\nline one\nline two\n```")
	require.True(t, ok)
	assert.Equal(t, "line one\nline two", body)
}

func TestParseFencedBlock_FirstBlockWins(t *testing.T) {
	body, ok := parseFencedBlock("```go\nfirst\n```\n```go\nsecond\n```")
	require.True(t, ok)
	assert.Equal(t, "first", body)
}

func TestParseFencedBlock_NoBlock(t *testing.T) {
	_, ok := parseFencedBlock("I cannot merge these changes safely.")
	assert.False(t, ok)
}

func TestParseBatchSection(t *testing.T) {
	response := "## Location: file_top\n```ts\nimport React from 'react';\n```\n\n" +
		"## Location: function:Page\n```ts\nconst Page = () => <Layout />;\n```\n"

	top, ok := parseBatchSection(response, "file_top")
	require.True(t, ok)
	assert.Equal(t, "import React from 'react';", top)

	page, ok := parseBatchSection(response, "function:Page")
	require.True(t, ok)
	assert.Equal(t, "const Page = () => <Layout />;", page)
}

func TestParseBatchSection_MissingLocation(t *testing.T) {
	response := "## Location: file_top\n```ts\nimport React from 'react';\n```\n"
	_, ok := parseBatchSection(response, "function:Page")
	assert.False(t, ok)
}

func TestParseBatchSection_BlockInLaterSectionNotStolen(t *testing.T) {
	// The first section has no block of its own; the parser must not borrow
	// the next section's block.
	response := "## Location: file_top\nno code here\n\n" +
		"## Location: function:Page\n```ts\nconst Page = () => null;\n```\n"
	_, ok := parseBatchSection(response, "file_top")
	assert.False(t, ok)
}

func TestBuildPrompt_ContainsContext(t *testing.T) {
	rc := BuildContext(change.ConflictRegion{
		FilePath:      "main.go",
		Location:      "function:run",
		TasksInvolved: []string{"task-a"},
		Severity:      change.SeverityHigh,
		Reason:        "both tasks rewrote the same function body",
	}, "func run() {}\n", []change.TaskSnapshot{
		{
			TaskID:     "task-a",
			TaskIntent: "add retry logic",
			Changes: []change.SemanticChange{
				{Type: change.ModifyFunction, Target: "run", Location: "function:run", ContentAfter: "func run() { retry() }"},
			},
		},
	})

	prompt := buildPrompt(rc)
	assert.Contains(t, prompt, "main.go")
	assert.Contains(t, prompt, `"function:run"`)
	assert.Contains(t, prompt, "add retry logic")
	assert.Contains(t, prompt, "func run() {}")
	assert.Contains(t, prompt, "fenced go code block")
}

func TestBuildBatchPrompt_SectionPerLocation(t *testing.T) {
	contexts := []ResolutionContext{
		{Conflict: change.ConflictRegion{Location: "file_top"}},
		{Conflict: change.ConflictRegion{Location: "function:Page"}},
	}

	prompt := buildBatchPrompt("app/page.tsx", "tsx", contexts)
	assert.Contains(t, prompt, "2 conflicted locations")
	assert.Contains(t, prompt, "## Location: file_top")
	assert.Contains(t, prompt, "## Location: function:Page")
}
