// Package emit provides the event stream of a search run.
package emit

// Event is one observation of a search run.
//
// Events give insight into how the search behaves:
//   - Run start and end, with the final verdict
//   - Bound escalation rounds
//   - Node expansions (when enabled on the engine)
//   - Dead ends and solved nodes
//   - Policy verification
//
// Events are delivered to an Emitter which can log them, buffer them for
// inspection, or turn them into OpenTelemetry spans.
type Event struct {
	// RunID identifies the search run that emitted this event.
	RunID string

	// Round is the bound escalation round (1-indexed).
	// Zero for run-level events (start, end, verification).
	Round int

	// NodeID is the state key of the node the event is about.
	// Empty for run- and round-level events.
	NodeID string

	// Msg names the event, one of the Msg* constants for engine events.
	Msg string

	// Meta carries event specific data.
	// Common keys:
	//   - "bound": Bound of the round
	//   - "next_bound": Candidate bound collected by the round
	//   - "expansions": Node expansions so far
	//   - "result": PROVEN, DISPROVEN or TIMEOUT
	//   - "duration_ms": Elapsed time in milliseconds
	//   - "error": Error details
	Meta map[string]interface{}
}

// Messages emitted by the search engine.
const (
	MsgSearchStart    = "search_start"
	MsgRoundStart     = "round_start"
	MsgRoundEnd       = "round_end"
	MsgExpand         = "expand"
	MsgDeadEnd        = "dead_end"
	MsgSolved         = "solved"
	MsgRefuted        = "refuted"
	MsgSearchEnd      = "search_end"
	MsgPolicyVerified = "policy_verified"
)
