package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemStore is an in-memory implementation of PolicyStore.
//
// Designed for:
//   - Testing and development
//   - Single runs where persistence isn't required
//
// MemStore is thread-safe and supports concurrent access. Records are
// deep copied on the way in and out, so callers never share entry slices
// with the store.
type MemStore struct {
	mu       sync.RWMutex
	policies map[string]PolicyRecord
	closed   bool
}

// NewMemStore creates a new in-memory store.
//
// Example:
//
//	st := store.NewMemStore()
//	engine, err := graph.New(problem, h, graph.WithPolicyStore(st))
func NewMemStore() *MemStore {
	return &MemStore{policies: make(map[string]PolicyRecord)}
}

func copyRecord(rec PolicyRecord) PolicyRecord {
	rec.Entries = append([]PolicyEntry(nil), rec.Entries...)
	return rec
}

// SavePolicy stores rec under its run ID.
func (m *MemStore) SavePolicy(_ context.Context, rec PolicyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.policies[rec.RunID] = copyRecord(rec)
	return nil
}

// LoadPolicy returns the record of runID.
func (m *MemStore) LoadPolicy(_ context.Context, runID string) (PolicyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return PolicyRecord{}, ErrClosed
	}
	rec, ok := m.policies[runID]
	if !ok {
		return PolicyRecord{}, ErrNotFound
	}
	return copyRecord(rec), nil
}

// ListPolicies returns the records of problem, oldest first.
func (m *MemStore) ListPolicies(_ context.Context, problem string) ([]PolicyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]PolicyRecord, 0, len(m.policies))
	for _, rec := range m.policies {
		if problem == "" || rec.Problem == problem {
			out = append(out, copyRecord(rec))
		}
	}
	sortRecords(out)
	return out, nil
}

// SetValidity updates the validity flag of runID.
func (m *MemStore) SetValidity(_ context.Context, runID string, valid bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	rec, ok := m.policies[runID]
	if !ok {
		return ErrNotFound
	}
	rec.Valid = valid
	m.policies[runID] = rec
	return nil
}

// Close marks the store closed.
func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// MarshalJSON serializes every record, keyed by run ID.
//
// Example:
//
//	data, err := st.MarshalJSON()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("policies.json", data, 0644)
func (m *MemStore) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return json.Marshal(m.policies)
}

// UnmarshalJSON replaces the contents of the store with data.
func (m *MemStore) UnmarshalJSON(data []byte) error {
	var policies map[string]PolicyRecord
	if err := json.Unmarshal(data, &policies); err != nil {
		return err
	}
	if policies == nil {
		policies = make(map[string]PolicyRecord)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies = policies
	return nil
}
