package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB implementation of PolicyStore.
//
// Designed for:
//   - Batch runs spread over several workers
//   - Keeping policies across machines for later validation
//
// MySQLStore uses connection pooling for reliability.
//
// Schema:
//   - paladinus_policies: one row per run, entries as a JSON document
type MySQLStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore creates a new MySQL-backed store.
//
// The DSN (Data Source Name) format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...&paramN=valueN]
//
// Security Warning:
//
//	NEVER hardcode credentials in your source code. Use environment variables:
//	    dsn := os.Getenv("MYSQL_DSN")
//	    st, err := store.NewMySQLStore(dsn)
//
// Example:
//
//	st, err := store.NewMySQLStore("user:pass@tcp(localhost:3306)/planner")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)                  // Maximum open connections
	db.SetMaxIdleConns(5)                   // Keep idle connections for reuse
	db.SetConnMaxLifetime(5 * time.Minute)  // Max connection lifetime (prevent stale connections)
	db.SetConnMaxIdleTime(10 * time.Minute) // Max idle time before closing

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	st := &MySQLStore{db: db}
	if err := st.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return st, nil
}

func (m *MySQLStore) createTables(ctx context.Context) error {
	policiesTable := `
		CREATE TABLE IF NOT EXISTS paladinus_policies (
			run_id VARCHAR(255) NOT NULL PRIMARY KEY,
			problem VARCHAR(255) NOT NULL,
			result VARCHAR(32) NOT NULL,
			algorithm VARCHAR(64) NOT NULL,
			valid TINYINT NOT NULL,
			expansions BIGINT NOT NULL,
			rounds INT NOT NULL,
			entries JSON NOT NULL,
			created_at BIGINT NOT NULL,
			INDEX idx_problem_created (problem, created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := m.db.ExecContext(ctx, policiesTable); err != nil {
		return fmt.Errorf("failed to create paladinus_policies table: %w", err)
	}
	return nil
}

func (m *MySQLStore) check() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// SavePolicy inserts or replaces the record of rec.RunID.
func (m *MySQLStore) SavePolicy(ctx context.Context, rec PolicyRecord) error {
	if err := m.check(); err != nil {
		return err
	}
	entries, err := json.Marshal(rec.Entries)
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}

	query := `
		INSERT INTO paladinus_policies (run_id, problem, result, algorithm, valid, expansions, rounds, entries, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			problem = VALUES(problem),
			result = VALUES(result),
			algorithm = VALUES(algorithm),
			valid = VALUES(valid),
			expansions = VALUES(expansions),
			rounds = VALUES(rounds),
			entries = VALUES(entries),
			created_at = VALUES(created_at)
	`
	_, err = m.db.ExecContext(ctx, query,
		rec.RunID, rec.Problem, rec.Result, rec.Algorithm, boolToInt(rec.Valid),
		rec.Expansions, rec.Rounds, string(entries), rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	return nil
}

// LoadPolicy returns the record of runID.
func (m *MySQLStore) LoadPolicy(ctx context.Context, runID string) (PolicyRecord, error) {
	if err := m.check(); err != nil {
		return PolicyRecord{}, err
	}
	row := m.db.QueryRowContext(ctx, mysqlSelectPolicies+" WHERE run_id = ?", runID)
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
func (m *MySQLStore) ListPolicies(ctx context.Context, problem string) ([]PolicyRecord, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	query := mysqlSelectPolicies + " WHERE ? = '' OR problem = ? ORDER BY created_at, run_id"
	rows, err := m.db.QueryContext(ctx, query, problem, problem)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()
	return collectPolicies(rows)
}

// SetValidity updates the validity flag of runID.
//
// MySQL reports zero affected rows when the flag already has the requested
// value, so a miss is confirmed with a lookup before reporting ErrNotFound.
func (m *MySQLStore) SetValidity(ctx context.Context, runID string, valid bool) error {
	if err := m.check(); err != nil {
		return err
	}
	res, err := m.db.ExecContext(ctx, "UPDATE paladinus_policies SET valid = ? WHERE run_id = ?", boolToInt(valid), runID)
	if err != nil {
		return fmt.Errorf("failed to update validity: %w", err)
	}
	if err := requireRow(res); !errors.Is(err, ErrNotFound) {
		return err
	}
	var one int
	err = m.db.QueryRowContext(ctx, "SELECT 1 FROM paladinus_policies WHERE run_id = ?", runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Close closes the database connection pool.
//
// After Close, all operations will return ErrClosed.
// Calling Close multiple times is safe (subsequent calls are no-ops).
func (m *MySQLStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.db.Close()
}

// Ping verifies the database connection is alive.
func (m *MySQLStore) Ping(ctx context.Context) error {
	if err := m.check(); err != nil {
		return err
	}
	return m.db.PingContext(ctx)
}

// Stats returns database connection pool statistics.
func (m *MySQLStore) Stats() sql.DBStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db.Stats()
}

const mysqlSelectPolicies = `
	SELECT run_id, problem, result, algorithm, valid, expansions, rounds, entries, created_at
	FROM paladinus_policies`
