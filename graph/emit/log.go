package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
)

// LogEmitter implements Emitter by writing one line per event to a writer.
//
// Supports two output modes:
//   - Text mode (default): Human-readable format with key=value pairs
//   - JSON mode: Machine-readable JSON format, one event per line
//
// Example text output:
//
//	[round_start] runID=run-001 round=2 nodeID= meta={"bound":3}
//
// Example JSON output:
//
//	{"runID":"run-001","round":2,"nodeID":"","msg":"round_start","meta":{"bound":3}}
//
// Usage:
//
//	// Text output to stderr
//	emitter := emit.NewLogEmitter(os.Stderr, false)
//
//	// JSON output to file
//	f, _ := os.Create("events.jsonl")
//	defer f.Close()
//	emitter := emit.NewLogEmitter(f, true)
type LogEmitter struct {
	mu       sync.Mutex
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a new LogEmitter.
//
// Parameters:
//   - writer: Where to write the log output (nil means os.Stdout)
//   - jsonMode: If true, emit JSON lines; if false, emit text
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{
		writer:   writer,
		jsonMode: jsonMode,
	}
}

// Emit writes an event to the configured writer.
func (l *LogEmitter) Emit(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		RunID  string                 `json:"runID"`
		Round  int                    `json:"round"`
		NodeID string                 `json:"nodeID"`
		Msg    string                 `json:"msg"`
		Meta   map[string]interface{} `json:"meta"`
	}{
		RunID:  event.RunID,
		Round:  event.Round,
		NodeID: event.NodeID,
		Msg:    event.Msg,
		Meta:   sanitizeMeta(event.Meta),
	})
	if err != nil {
		fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}

	fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	fmt.Fprintf(l.writer, "[%s] runID=%s round=%d nodeID=%s",
		event.Msg, event.RunID, event.Round, event.NodeID)

	if len(event.Meta) > 0 {
		metaJSON, err := json.Marshal(sanitizeMeta(event.Meta))
		if err == nil {
			fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		} else {
			fmt.Fprintf(l.writer, " meta=%v", event.Meta)
		}
	}

	fmt.Fprint(l.writer, "\n")
}

// sanitizeMeta replaces non-finite numbers, which encoding/json rejects,
// with their string form. meta itself is never modified.
func sanitizeMeta(meta map[string]interface{}) map[string]interface{} {
	clean := true
	for _, v := range meta {
		if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
			clean = false
			break
		}
	}
	if clean {
		return meta
	}
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
			out[k] = fmt.Sprint(f)
			continue
		}
		out[k] = v
	}
	return out
}
