package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/ramonpereira/paladinus-sub001/state"
)

// NodeID addresses a node inside its Graph. IDs are dense and assigned in
// creation order, so they double as a deterministic tie-breaker.
type NodeID int

// Node is an OR node of the search graph: one state and the connectors
// that leave it.
//
// Nodes are owned by the Graph arena. Connectors refer to nodes by NodeID
// only, so cycles in the state space never become ownership cycles.
type Node struct {
	// ID is the arena index of the node.
	ID NodeID

	// State is the planning state the node stands for. The graph owns it.
	State state.State

	// Key is the decimal form of the state ID, used in events, stores
	// and policy files.
	Key string

	// H is the current heuristic estimate. +Inf marks a dead end. The
	// learning and pruning algorithms refine it during search.
	H float64

	// Depth is the number of connectors on the path that created the
	// node.
	Depth int

	// IsGoal caches State.IsGoal().
	IsGoal bool

	// Proven is set for every node of a proven policy.
	Proven bool

	// Marked is the connector the search chose for this node: the policy
	// entry. Marks survive bound escalation rounds.
	Marked *Connector

	// CostEstimate is the policy distance to a goal: 0 for goals, +Inf
	// until ExtractPolicy proves the node.
	CostEstimate float64

	expanded  bool
	outgoing  []*Connector
	outByName map[string]*Connector
	incoming  map[string][]*Connector
}

// IsDeadEnd reports whether the node is known to have no solution.
func (n *Node) IsDeadEnd() bool {
	return math.IsInf(n.H, 1)
}

// Expanded reports whether the outgoing connectors have been generated.
func (n *Node) Expanded() bool { return n.expanded }

// Outgoing returns the outgoing connectors in creation order. The slice is
// shared and must not be modified.
func (n *Node) Outgoing() []*Connector { return n.outgoing }

// OutgoingFor returns the outgoing connector of operator name.
func (n *Node) OutgoingFor(name string) (*Connector, bool) {
	c, ok := n.outByName[name]
	return c, ok
}

// IncomingFor returns the connectors of operator name that have n as a
// child, one per parent.
func (n *Node) IncomingFor(name string) []*Connector { return n.incoming[name] }

// Incoming returns the connectors that have n as a child, ordered by
// connector ID.
func (n *Node) Incoming() []*Connector {
	var out []*Connector
	for _, list := range n.incoming {
		out = append(out, list...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (n *Node) String() string {
	return fmt.Sprintf("node#%d(h=%v goal=%t %s)", n.ID, n.H, n.IsGoal, n.State)
}
