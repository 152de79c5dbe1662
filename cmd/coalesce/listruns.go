package main

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// runListRuns prints the recorded merge runs from the history store.
func runListRuns(flags cliFlags) error {
	if flags.History == "" {
		return fmt.Errorf("usage: coalesce -list-runs -history <path>")
	}

	store, err := openHistoryStore(flags.History)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}

	runs, err := store.ListRuns(ctx, 20)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for _, run := range runs {
		status := "failed"
		if run.Success {
			status = "ok"
		}
		fmt.Printf("  %s  %s  %d file(s), %d conflict(s)  [%s]  tasks: %s\n",
			run.ID,
			run.StartedAt.Format(time.RFC3339),
			run.FilesProcessed,
			run.ConflictsDetected,
			status,
			strings.Join(run.Tasks, ", "))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	fmt.Printf("\n  %d run(s), %d conflict(s) observed, %d resolved\n",
		stats.RunCount, stats.ConflictCount, stats.ResolvedCount)
	return nil
}
