// Package graph implements the AND-OR search graph of a FOND planner and the
// bound-escalating depth-first search that extracts a strong-cyclic policy
// from it.
package graph

import "errors"

// ErrDuplicateConnector indicates that a node already has an outgoing
// connector for the operator being registered. It is a modeling bug
// upstream and aborts the run.
var ErrDuplicateConnector = errors.New("duplicate connector")

// ErrInconsistentGraph indicates that the incoming and outgoing connector
// indexes of the graph disagree.
var ErrInconsistentGraph = errors.New("inconsistent connector index")

// ErrUnknownNode is returned when a NodeID does not belong to the graph.
var ErrUnknownNode = errors.New("unknown node")

// ErrIncompletePolicy indicates that a reachable non-goal node of a policy
// has no marked connector.
var ErrIncompletePolicy = errors.New("policy leaves a reachable node unmarked")

// ErrInvalidPolicy is returned by Policy.Verify when the policy is not
// strong cyclic.
var ErrInvalidPolicy = errors.New("policy is not strong cyclic")

// Error codes carried by EngineError.
const (
	CodeInvalidOption          = "INVALID_OPTION"
	CodeDuplicateConnector     = "DUPLICATE_CONNECTOR"
	CodeInconsistentGraph      = "INCONSISTENT_GRAPH"
	CodeRepresentationMismatch = "REPRESENTATION_MISMATCH"
	CodeUseAfterFree           = "USE_AFTER_FREE"
	CodeUnsupportedAxioms      = "UNSUPPORTED_AXIOMS"
	CodeNoInitialState         = "NO_INITIAL_STATE"
	CodeApplyFailed            = "APPLY_FAILED"
	CodeStoreError             = "STORE_ERROR"
	CodeMissingProblem         = "MISSING_PROBLEM"
	CodeMissingHeuristic       = "MISSING_HEURISTIC"
)

// EngineError reports a configuration or graph error of the search engine.
//
// Code is stable and machine readable; Message is for humans. Cause, when
// set, is reachable through errors.Is and errors.As.
type EngineError struct {
	Message string
	Code    string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Cause
}
