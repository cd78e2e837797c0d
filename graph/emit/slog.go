package emit

import (
	"context"
	"log/slog"
	"sort"
)

// SlogEmitter forwards events to a structured logger.
//
// Run- and round-level events are logged at Info, per-node events (expand,
// dead_end, solved) at Debug, and events carrying an "error" meta key at
// Error. Meta keys become attributes in sorted order.
type SlogEmitter struct {
	logger *slog.Logger
}

// NewSlogEmitter wraps logger. A nil logger uses slog.Default().
func NewSlogEmitter(logger *slog.Logger) *SlogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogEmitter{logger: logger}
}

// Emit logs event.
func (s *SlogEmitter) Emit(event Event) {
	level := slog.LevelInfo
	switch event.Msg {
	case MsgExpand, MsgDeadEnd, MsgSolved:
		level = slog.LevelDebug
	}
	if _, failed := event.Meta["error"]; failed {
		level = slog.LevelError
	}

	ctx := context.Background()
	if !s.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, 3+len(event.Meta))
	attrs = append(attrs, slog.String("run_id", event.RunID))
	if event.Round > 0 {
		attrs = append(attrs, slog.Int("round", event.Round))
	}
	if event.NodeID != "" {
		attrs = append(attrs, slog.String("node", event.NodeID))
	}
	keys := make([]string, 0, len(event.Meta))
	for k := range event.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, event.Meta[k]))
	}
	s.logger.LogAttrs(ctx, level, event.Msg, attrs...)
}
