package emit

// Emitter receives the events of a search run.
//
// Emitters enable pluggable observability backends:
//   - Logging: text or JSON lines, log/slog
//   - Distributed tracing: OpenTelemetry
//   - In-memory history for tests and tools
//
// The search loop is single-threaded, but SolveAll runs several engines at
// once that may share an emitter, so implementations must be safe for
// concurrent use. Emit must not block the search and must not panic.
type Emitter interface {
	// Emit delivers one event to the backend.
	Emit(event Event)
}

// MultiEmitter fans every event out to several emitters in order.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter returns an emitter that forwards to every non-nil
// emitter of list.
func NewMultiEmitter(list ...Emitter) *MultiEmitter {
	m := &MultiEmitter{}
	for _, e := range list {
		if e != nil {
			m.emitters = append(m.emitters, e)
		}
	}
	return m
}

// Emit forwards event to every wrapped emitter.
func (m *MultiEmitter) Emit(event Event) {
	for _, e := range m.emitters {
		e.Emit(event)
	}
}
