package resolve

import (
	"fmt"
	"regexp"
	"strings"
)

// fencedBlockRe matches the first fenced code block, with or without a
// language tag, capturing the inner text.
var fencedBlockRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n(.*?)```")

// buildPrompt renders the resolution prompt for a single conflict.
func buildPrompt(rc ResolutionContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Merge the following concurrent edits to %s at %q.\n\n",
		rc.Conflict.FilePath, rc.Conflict.Location)
	fmt.Fprintf(&b, "Conflict severity: %s. %s\n\n", rc.Conflict.Severity, rc.Conflict.Reason)

	writeBaseline(&b, rc.Language, rc.BaselineCode)
	writeTaskSections(&b, rc.Tasks)

	fmt.Fprintf(&b, "Produce one merged version of the %q region that preserves every task's intent. ", rc.Conflict.Location)
	fmt.Fprintf(&b, "Reply with exactly one fenced %s code block containing the merged code.\n", rc.Language)

	return b.String()
}

// buildBatchPrompt renders one prompt covering all conflicts of a file. Each
// conflict gets a "## Location:" section; the response must answer with one
// fenced block per section, in any order, under matching headers.
func buildBatchPrompt(filePath, language string, contexts []ResolutionContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Merge the following concurrent edits to %s. ", filePath)
	fmt.Fprintf(&b, "The file has %d conflicted locations; resolve each one.\n\n", len(contexts))

	for _, rc := range contexts {
		fmt.Fprintf(&b, "## Location: %s\n\n", rc.Conflict.Location)
		fmt.Fprintf(&b, "Severity: %s. %s\n\n", rc.Conflict.Severity, rc.Conflict.Reason)
		writeBaseline(&b, language, rc.BaselineCode)
		writeTaskSections(&b, rc.Tasks)
	}

	b.WriteString("Reply with one section per location, formatted exactly as:\n\n")
	fmt.Fprintf(&b, "## Location: <location>\n```%s\n<merged code>\n```\n", language)

	return b.String()
}

func writeBaseline(b *strings.Builder, language, baseline string) {
	if baseline == "" {
		return
	}
	fmt.Fprintf(b, "Baseline code:\n```%s\n%s\n```\n\n", language, strings.TrimSuffix(baseline, "\n"))
}

func writeTaskSections(b *strings.Builder, tasks []TaskContext) {
	for _, t := range tasks {
		fmt.Fprintf(b, "Task %s intent: %s\n", t.TaskID, t.Intent)
		for _, c := range t.Changes {
			fmt.Fprintf(b, "- %s %s (lines %d-%d)\n", c.Type, c.Target, c.LineStart, c.LineEnd)
			if c.ContentAfter != "" {
				fmt.Fprintf(b, "```\n%s\n```\n", strings.TrimSuffix(c.ContentAfter, "\n"))
			}
		}
		b.WriteString("\n")
	}
}

// parseFencedBlock extracts the inner text of the first fenced code block.
func parseFencedBlock(response string) (string, bool) {
	m := fencedBlockRe.FindStringSubmatch(response)
	if m == nil {
		return "", false
	}
	return strings.TrimSuffix(m[1], "\n"), true
}

// parseBatchSection finds the fenced block following "## Location: <loc>" in
// a batch response.
func parseBatchSection(response, location string) (string, bool) {
	headerRe := regexp.MustCompile(`## Location:[ \t]*` + regexp.QuoteMeta(location) + `[ \t]*\n`)
	loc := headerRe.FindStringIndex(response)
	if loc == nil {
		return "", false
	}
	rest := response[loc[1]:]

	// The block must belong to this section, not a later one.
	if next := strings.Index(rest, "## Location:"); next >= 0 {
		rest = rest[:next]
	}
	return parseFencedBlock(rest)
}
