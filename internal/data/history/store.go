// Package history persists check run snapshots in SQLite for trend reports.
package history

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"archcheck/internal/core/errors"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultProject     = "default"
	defaultBusyTimeout = 2 * time.Second
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open creates or opens the history database at path. A zero busyTimeout
// uses two seconds.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errors.New(errors.CodeValidationError, "history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, errors.AddContext(
			errors.Newf(errors.CodeValidationError, "history path %q is a directory, expected file", cleanPath),
			errors.CtxPath, cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveSnapshot stores snapshot under projectKey. A missing run id or timestamp
// is filled in; saving the same run id again replaces the row.
func (s *Store) SaveSnapshot(projectKey string, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectKey = normalizeProject(projectKey)
	if snapshot.RunID == "" {
		snapshot.RunID = uuid.NewString()
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return errors.Newf(errors.CodeValidationError, "unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	query := `
INSERT INTO runs (
  run_id, project_key, schema_version, ts_utc, unit_count, package_count, edge_count, module_count,
  unit_cycle, package_cycle, undeclared_count, unused_count, uncovered_count,
  avg_fan_out, max_fan_in, max_fan_out, passed
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  project_key=excluded.project_key,
  schema_version=excluded.schema_version,
  ts_utc=excluded.ts_utc,
  unit_count=excluded.unit_count,
  package_count=excluded.package_count,
  edge_count=excluded.edge_count,
  module_count=excluded.module_count,
  unit_cycle=excluded.unit_cycle,
  package_cycle=excluded.package_cycle,
  undeclared_count=excluded.undeclared_count,
  unused_count=excluded.unused_count,
  uncovered_count=excluded.uncovered_count,
  avg_fan_out=excluded.avg_fan_out,
  max_fan_in=excluded.max_fan_in,
  max_fan_out=excluded.max_fan_out,
  passed=excluded.passed
`
	return s.withRetry("save snapshot", func() error {
		_, err := s.db.Exec(
			query,
			snapshot.RunID,
			projectKey,
			snapshot.SchemaVersion,
			snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
			snapshot.UnitCount,
			snapshot.PackageCount,
			snapshot.EdgeCount,
			snapshot.ModuleCount,
			snapshot.UnitCycle,
			snapshot.PackageCycle,
			snapshot.UndeclaredCount,
			snapshot.UnusedCount,
			snapshot.UncoveredCount,
			snapshot.AvgFanOut,
			snapshot.MaxFanIn,
			snapshot.MaxFanOut,
			boolToInt(snapshot.Passed),
		)
		return err
	})
}

// LoadSnapshots returns the project's snapshots taken at or after since,
// oldest first. A zero since loads everything.
func (s *Store) LoadSnapshots(projectKey string, since time.Time) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT
  run_id, project_key, schema_version, ts_utc, unit_count, package_count, edge_count, module_count,
  unit_cycle, package_cycle, undeclared_count, unused_count, uncovered_count,
  avg_fan_out, max_fan_in, max_fan_out, passed
FROM runs
WHERE project_key = ?`
	args := []any{normalizeProject(projectKey)}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, run_id ASC"

	var rows *sql.Rows
	err := s.withRetry("load snapshots", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsRaw    string
			passed   int
			snapshot Snapshot
		)
		if err := rows.Scan(
			&snapshot.RunID,
			&snapshot.ProjectKey,
			&snapshot.SchemaVersion,
			&tsRaw,
			&snapshot.UnitCount,
			&snapshot.PackageCount,
			&snapshot.EdgeCount,
			&snapshot.ModuleCount,
			&snapshot.UnitCycle,
			&snapshot.PackageCycle,
			&snapshot.UndeclaredCount,
			&snapshot.UnusedCount,
			&snapshot.UncoveredCount,
			&snapshot.AvgFanOut,
			&snapshot.MaxFanIn,
			&snapshot.MaxFanOut,
			&passed,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
		}
		snapshot.Timestamp = ts.UTC()
		snapshot.Passed = passed != 0
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snapshots, nil
}

// Prune deletes the project's snapshots older than before and reports how
// many were removed.
func (s *Store) Prune(projectKey string, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.withRetry("prune snapshots", func() error {
		res, err := s.db.Exec(`DELETE FROM runs WHERE project_key = ? AND ts_utc < ?`,
			normalizeProject(projectKey), before.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// IsCorruptError reports whether err looks like a damaged database file.
func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || stderrors.Is(err, os.ErrInvalid)
}

func normalizeProject(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return defaultProject
	}
	return key
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
