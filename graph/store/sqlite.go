package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of PolicyStore.
//
// It stores policies in a single-file database. Designed for:
//   - Keeping the policies of local experiments
//   - The CLI's default persistent store
//
// Features:
//   - Single file database (e.g., "./policies.db")
//   - Auto-migration on first use
//   - WAL mode for concurrent reads
//
// Schema:
//   - policies: one row per run, entries as a JSON array
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore opens (creating if needed) the database at path.
//
// The path parameter specifies the database file location:
//   - "./policies.db" - file in current directory
//   - ":memory:" - in-memory database (data lost on close)
//
// Example:
//
//	st, err := store.NewSQLiteStore("./policies.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	db.SetMaxOpenConns(1)    // SQLite supports one writer at a time
	db.SetMaxIdleConns(1)    // Keep connection open
	db.SetConnMaxLifetime(0) // No max lifetime for SQLite

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	st := &SQLiteStore{db: db, path: path}
	if err := st.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return st, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	policiesTable := `
		CREATE TABLE IF NOT EXISTS policies (
			run_id TEXT PRIMARY KEY,
			problem TEXT NOT NULL,
			result TEXT NOT NULL,
			algorithm TEXT NOT NULL,
			valid INTEGER NOT NULL,
			expansions INTEGER NOT NULL,
			rounds INTEGER NOT NULL,
			entries TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, policiesTable); err != nil {
		return fmt.Errorf("failed to create policies table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_policies_problem ON policies(problem, created_at)"); err != nil {
		return fmt.Errorf("failed to create idx_policies_problem: %w", err)
	}
	return nil
}

func (s *SQLiteStore) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// SavePolicy inserts or replaces the record of rec.RunID.
func (s *SQLiteStore) SavePolicy(ctx context.Context, rec PolicyRecord) error {
	if err := s.check(); err != nil {
		return err
	}
	entries, err := json.Marshal(rec.Entries)
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}

	query := `
		INSERT INTO policies (run_id, problem, result, algorithm, valid, expansions, rounds, entries, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			problem = excluded.problem,
			result = excluded.result,
			algorithm = excluded.algorithm,
			valid = excluded.valid,
			expansions = excluded.expansions,
			rounds = excluded.rounds,
			entries = excluded.entries,
			created_at = excluded.created_at
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.RunID, rec.Problem, rec.Result, rec.Algorithm, boolToInt(rec.Valid),
		rec.Expansions, rec.Rounds, string(entries), rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// LoadPolicy returns the record of runID.
func (s *SQLiteStore) LoadPolicy(ctx context.Context, runID string) (PolicyRecord, error) {
	if err := s.check(); err != nil {
		return PolicyRecord{}, err
	}
	row := s.db.QueryRowContext(ctx, selectPolicies+" WHERE run_id = ?", runID)
	rec, err := scanPolicy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PolicyRecord{}, ErrNotFound
	}
	if err != nil {
		return PolicyRecord{}, fmt.Errorf("failed to load policy: %w", err)
	}
	return rec, nil
}

// ListPolicies returns the records of problem, oldest first.
func (s *SQLiteStore) ListPolicies(ctx context.Context, problem string) ([]PolicyRecord, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	query := selectPolicies + " WHERE ? = '' OR problem = ? ORDER BY created_at, run_id"
	rows, err := s.db.QueryContext(ctx, query, problem, problem)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()
	return collectPolicies(rows)
}

// SetValidity updates the validity flag of runID.
func (s *SQLiteStore) SetValidity(ctx context.Context, runID string, valid bool) error {
	if err := s.check(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE policies SET valid = ? WHERE run_id = ?", boolToInt(valid), runID)
	if err != nil {
		return fmt.Errorf("failed to update validity: %w", err)
	}
	return requireRow(res)
}

// Close closes the database connection.
//
// After Close, all operations will return ErrClosed.
// Calling Close multiple times is safe (subsequent calls are no-ops).
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

const selectPolicies = `
	SELECT run_id, problem, result, algorithm, valid, expansions, rounds, entries, created_at
	FROM policies`

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanPolicy reads one row of selectPolicies. It is shared by the SQL
// backends.
func scanPolicy(row scanner) (PolicyRecord, error) {
	var (
		rec     PolicyRecord
		valid   int
		entries string
		created int64
	)
	if err := row.Scan(&rec.RunID, &rec.Problem, &rec.Result, &rec.Algorithm, &valid,
		&rec.Expansions, &rec.Rounds, &entries, &created); err != nil {
		return PolicyRecord{}, err
	}
	if err := json.Unmarshal([]byte(entries), &rec.Entries); err != nil {
		return PolicyRecord{}, fmt.Errorf("failed to unmarshal entries: %w", err)
	}
	rec.Valid = valid != 0
	rec.CreatedAt = time.Unix(0, created).UTC()
	return rec, nil
}

func collectPolicies(rows *sql.Rows) ([]PolicyRecord, error) {
	out := make([]PolicyRecord, 0)
	for rows.Next() {
		rec, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate policies: %w", err)
	}
	return out, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
