// Package store persists the policies produced by the search engine.
package store

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrNotFound is returned when a requested run ID does not exist.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by every operation on a closed store.
var ErrClosed = errors.New("store is closed")

// PolicyEntry is one state to operator row of a persisted policy.
type PolicyEntry struct {
	StateKey string `json:"state_key"`
	State    string `json:"state"`
	Operator string `json:"operator"`

	// Distance is the policy distance to a goal, -1 when unreachable.
	Distance int `json:"distance"`
}

// PolicyRecord is a policy together with the run that produced it.
type PolicyRecord struct {
	RunID     string `json:"run_id"`
	Problem   string `json:"problem"`
	Result    string `json:"result"`
	Algorithm string `json:"algorithm"`

	// Valid is the advisory verification flag. It can be updated later
	// with SetValidity, for example after an external validator ran.
	Valid bool `json:"valid"`

	Expansions int           `json:"expansions"`
	Rounds     int           `json:"rounds"`
	Entries    []PolicyEntry `json:"entries"`
	CreatedAt  time.Time     `json:"created_at"`
}

// PolicyStore persists policy records.
//
// Implementations:
//   - MemStore: in-memory, for tests and single runs
//   - SQLiteStore: single-file database (modernc.org/sqlite, no cgo)
//   - MySQLStore: shared database for batch workers
//
// All implementations are safe for concurrent use.
type PolicyStore interface {
	// SavePolicy inserts rec, replacing any record with the same RunID.
	SavePolicy(ctx context.Context, rec PolicyRecord) error

	// LoadPolicy returns the record of runID, or ErrNotFound.
	LoadPolicy(ctx context.Context, runID string) (PolicyRecord, error)

	// ListPolicies returns the records of problem, or of every problem
	// when problem is empty, oldest first.
	ListPolicies(ctx context.Context, problem string) ([]PolicyRecord, error)

	// SetValidity updates the validity flag of runID, or returns
	// ErrNotFound.
	SetValidity(ctx context.Context, runID string, valid bool) error

	// Close releases the store. Further calls fail with ErrClosed;
	// closing twice is a no-op.
	Close() error
}

// sortRecords orders records by creation time, then run ID.
func sortRecords(recs []PolicyRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].RunID < recs[j].RunID
	})
}
