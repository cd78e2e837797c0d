package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory.
//
// Events are kept per run ID and can be queried afterwards, which is what
// the tests and the CLI "show" command use to inspect a search.
//
// Features:
//   - Thread-safe concurrent access
//   - Query by runID with optional filtering
//   - Filter by nodeID, message, round range
//   - Clear events by runID or all events
//
// Warning: every event is retained. With expansion events enabled a large
// search produces one event per expansion; clear runs that are no longer
// needed.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	engine, _ := graph.New(problem, h, graph.WithEmitter(emitter))
//	engine.Run(ctx, "run-001")
//
//	rounds := emitter.GetHistoryWithFilter("run-001", emit.HistoryFilter{Msg: emit.MsgRoundEnd})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // runID -> events
}

// HistoryFilter specifies criteria for filtering run history.
//
// All fields are optional and combined with AND logic.
//
// Example usage:
//
//	// Dead ends found during rounds 2 to 4
//	minRound, maxRound := 2, 4
//	filter := emit.HistoryFilter{
//		Msg:      emit.MsgDeadEnd,
//		MinRound: &minRound,
//		MaxRound: &maxRound,
//	}
//	deadEnds := emitter.GetHistoryWithFilter("run-001", filter)
type HistoryFilter struct {
	NodeID   string // Filter by node ID (empty = no filter)
	Msg      string // Filter by message (empty = no filter)
	MinRound *int   // Minimum round number (nil = no filter)
	MaxRound *int   // Maximum round number (nil = no filter)
}

// NewBufferedEmitter creates a new BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores an event in the buffer.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// GetHistory retrieves all events for a specific runID in emission order.
// It returns a copy, never nil.
func (b *BufferedEmitter) GetHistory(runID string) []Event {
	return b.GetHistoryWithFilter(runID, HistoryFilter{})
}

// GetHistoryWithFilter retrieves the events of runID matching filter, in
// emission order. It returns a copy, never nil.
func (b *BufferedEmitter) GetHistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := []Event{}
	for _, event := range b.events[runID] {
		if filter.matches(event) {
			result = append(result, event)
		}
	}
	return result
}

// Runs lists the run IDs with stored events.
func (b *BufferedEmitter) Runs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	runs := make([]string, 0, len(b.events))
	for id := range b.events {
		runs = append(runs, id)
	}
	return runs
}

func (f HistoryFilter) matches(event Event) bool {
	if f.NodeID != "" && event.NodeID != f.NodeID {
		return false
	}
	if f.Msg != "" && event.Msg != f.Msg {
		return false
	}
	if f.MinRound != nil && event.Round < *f.MinRound {
		return false
	}
	if f.MaxRound != nil && event.Round > *f.MaxRound {
		return false
	}
	return true
}

// Clear removes stored events of runID, or of every run when runID is
// empty.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if runID == "" {
		b.events = make(map[string][]Event)
	} else {
		delete(b.events, runID)
	}
}
