//go:build cgo

package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path, so merge history survives across sessions. KuzuDB creates the
// leaf directory itself.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// taskSep joins task ID lists into one STRING column.
const taskSep = ","

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Run(
		id STRING,
		started_at TIMESTAMP,
		completed_at TIMESTAMP,
		tasks STRING,
		files_processed INT64,
		conflicts_detected INT64,
		success BOOLEAN,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Conflict(
		id STRING,
		run_id STRING,
		file_path STRING,
		location STRING,
		severity STRING,
		tasks STRING,
		resolved BOOLEAN,
		decision STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS OBSERVED(FROM Run TO Conflict)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// AddRun inserts a Run node.
func (s *KuzuStore) AddRun(_ context.Context, run RunRecord) error {
	return s.exec(
		`CREATE (r:Run {
			id: $id,
			started_at: $started,
			completed_at: $completed,
			tasks: $tasks,
			files_processed: $files,
			conflicts_detected: $conflicts,
			success: $success
		})`,
		map[string]any{
			"id":        run.ID,
			"started":   run.StartedAt,
			"completed": run.CompletedAt,
			"tasks":     strings.Join(run.Tasks, taskSep),
			"files":     int64(run.FilesProcessed),
			"conflicts": int64(run.ConflictsDetected),
			"success":   run.Success,
		},
	)
}

// AddConflict inserts a Conflict node and links it to its run.
func (s *KuzuStore) AddConflict(_ context.Context, c ConflictRecord) error {
	id := conflictID(c)
	err := s.exec(
		`CREATE (c:Conflict {
			id: $id,
			run_id: $run,
			file_path: $fp,
			location: $loc,
			severity: $sev,
			tasks: $tasks,
			resolved: $resolved,
			decision: $decision
		})`,
		map[string]any{
			"id":       id,
			"run":      c.RunID,
			"fp":       c.FilePath,
			"loc":      c.Location,
			"sev":      c.Severity,
			"tasks":    strings.Join(c.Tasks, taskSep),
			"resolved": c.Resolved,
			"decision": c.Decision,
		},
	)
	if err != nil {
		return err
	}
	return s.exec(
		`MATCH (r:Run {id: $run}), (c:Conflict {id: $id})
		 CREATE (r)-[:OBSERVED]->(c)`,
		map[string]any{"run": c.RunID, "id": id},
	)
}

// conflictID builds the composite primary key for a conflict record.
func conflictID(c ConflictRecord) string {
	return c.RunID + ":" + c.FilePath + ":" + c.Location
}

// GetRun returns the run with the given ID, or nil if not found.
func (s *KuzuStore) GetRun(_ context.Context, id string) (*RunRecord, error) {
	rows, err := s.query(
		`MATCH (r:Run {id: $id})
		 RETURN r.id, r.started_at, r.completed_at, r.tasks, r.files_processed, r.conflicts_detected, r.success`,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	run := rowToRun(rows[0])
	return &run, nil
}

// ListRuns returns runs newest-first, up to limit.
func (s *KuzuStore) ListRuns(_ context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.query(
		`MATCH (r:Run)
		 RETURN r.id, r.started_at, r.completed_at, r.tasks, r.files_processed, r.conflicts_detected, r.success
		 ORDER BY r.started_at DESC
		 LIMIT $lim`,
		map[string]any{"lim": int64(limit)},
	)
	if err != nil {
		return nil, err
	}
	out := make([]RunRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToRun(r))
	}
	return out, nil
}

// RunConflicts returns all conflict records observed during one run.
func (s *KuzuStore) RunConflicts(_ context.Context, runID string) ([]ConflictRecord, error) {
	rows, err := s.query(
		`MATCH (r:Run {id: $run})-[:OBSERVED]->(c:Conflict)
		 RETURN c.run_id, c.file_path, c.location, c.severity, c.tasks, c.resolved, c.decision`,
		map[string]any{"run": runID},
	)
	if err != nil {
		return nil, err
	}
	out := make([]ConflictRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, ConflictRecord{
			RunID:    toString(r[0]),
			FilePath: toString(r[1]),
			Location: toString(r[2]),
			Severity: toString(r[3]),
			Tasks:    splitTasks(toString(r[4])),
			Resolved: toBool(r[5]),
			Decision: toString(r[6]),
		})
	}
	return out, nil
}

// Stats returns counts across all recorded runs.
func (s *KuzuStore) Stats(_ context.Context) (*RunStats, error) {
	runs, err := s.countWhere("MATCH (r:Run) RETURN count(r)")
	if err != nil {
		return nil, err
	}
	conflicts, err := s.countWhere("MATCH (c:Conflict) RETURN count(c)")
	if err != nil {
		return nil, err
	}
	resolved, err := s.countWhere("MATCH (c:Conflict) WHERE c.resolved RETURN count(c)")
	if err != nil {
		return nil, err
	}
	return &RunStats{
		RunCount:      runs,
		ConflictCount: conflicts,
		ResolvedCount: resolved,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (s *KuzuStore) countWhere(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

func rowToRun(r []any) RunRecord {
	return RunRecord{
		ID:                toString(r[0]),
		StartedAt:         toTime(r[1]),
		CompletedAt:       toTime(r[2]),
		Tasks:             splitTasks(toString(r[3])),
		FilesProcessed:    toInt(r[4]),
		ConflictsDetected: toInt(r[5]),
		Success:           toBool(r[6]),
	}
}

func splitTasks(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, taskSep)
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func toTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
