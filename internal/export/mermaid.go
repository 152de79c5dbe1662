package export

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coalesce-dev/coalesce/internal/change"
	"github.com/coalesce-dev/coalesce/internal/report"
)

// GenerateMermaid produces a Mermaid graph TD diagram from a merge report.
// Unresolved conflict regions are grouped into per-file subgraphs; the tasks
// involved in each region point at it.
func GenerateMermaid(rep *report.MergeReport) string {
	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	type edge struct{ task, region string }
	var edges []edge
	var severityClasses []string

	paths := make([]string, 0, len(rep.FileResults))
	for path := range rep.FileResults {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		res := rep.FileResults[path]
		if len(res.ConflictsRemaining) == 0 {
			continue
		}
		fileKey := "file:" + path
		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%.40s\"]\n", getID(fileKey), shortPath(path)))
		for _, region := range res.ConflictsRemaining {
			regionKey := fileKey + "#" + region.Location
			id := getID(regionKey)
			sb.WriteString(fmt.Sprintf("    %s[\"%s (%s)\"]\n", id, region.Location, region.Severity))
			severityClasses = append(severityClasses, fmt.Sprintf("  class %s %s\n", id, severityClass(region.Severity)))
			for _, task := range region.TasksInvolved {
				edges = append(edges, edge{task: task, region: regionKey})
			}
		}
		sb.WriteString("  end\n")
	}

	// Emit task nodes in a stable order, then edges.
	taskSet := make(map[string]bool)
	for _, e := range edges {
		taskSet[e.task] = true
	}
	tasks := make([]string, 0, len(taskSet))
	for task := range taskSet {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)
	for _, task := range tasks {
		sb.WriteString(fmt.Sprintf("  %s([\"%s\"])\n", getID("task:"+task), task))
	}
	for _, e := range edges {
		sb.WriteString(fmt.Sprintf("  %s --> %s\n", getID("task:"+e.task), getID(e.region)))
	}

	sb.WriteString("  classDef critical fill:#f66,stroke:#900\n")
	sb.WriteString("  classDef high fill:#fa6,stroke:#930\n")
	sb.WriteString("  classDef medium fill:#fd9,stroke:#960\n")
	sb.WriteString("  classDef low fill:#dfd,stroke:#090\n")
	for _, line := range severityClasses {
		sb.WriteString(line)
	}

	return sb.String()
}

func severityClass(sev change.ConflictSeverity) string {
	switch sev {
	case change.SeverityCritical:
		return "critical"
	case change.SeverityHigh:
		return "high"
	case change.SeverityMedium:
		return "medium"
	default:
		return "low"
	}
}

// shortPath returns the last 2 path segments for readability.
func shortPath(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= 2 {
		return path
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
