package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/ramonpereira/paladinus-sub001/state"
)

// Graph is the arena that owns every node of one search.
//
// Nodes are found by state identity: the state hash selects a bucket and
// State.Equal decides membership, so hash collisions never merge distinct
// states. The graph is not safe for concurrent use; one Engine drives it.
type Graph struct {
	nodes      []*Node
	buckets    map[uint64][]NodeID
	connectors int
}

// NewGraph returns an empty arena.
func NewGraph() *Graph {
	return &Graph{buckets: make(map[uint64][]NodeID)}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Connectors returns the number of connectors created so far.
func (g *Graph) Connectors() int { return g.connectors }

// Node returns the node with the given ID, or nil when id is out of range.
func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Nodes returns every node in creation order. The slice is shared.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Lookup finds the node holding a state equal to s.
func (g *Graph) Lookup(s state.State) (*Node, bool) {
	for _, id := range g.buckets[s.Hash()] {
		if n := g.nodes[id]; n.State.Equal(s) {
			return n, true
		}
	}
	return nil, false
}

// Insert returns the node for s, creating it when no equal state is known.
//
// estimate is only called for new nodes. When an equal node already exists
// the graph keeps its own state and the caller still owns s.
//
// Returns:
//   - the node standing for s
//   - true when the node was created by this call
func (g *Graph) Insert(s state.State, estimate func(state.State) float64) (*Node, bool) {
	if n, ok := g.Lookup(s); ok {
		return n, false
	}
	n := &Node{
		ID:           NodeID(len(g.nodes)),
		State:        s,
		Key:          s.ID().String(),
		H:            estimate(s),
		IsGoal:       s.IsGoal(),
		CostEstimate: math.Inf(1),
		outByName:    make(map[string]*Connector),
		incoming:     make(map[string][]*Connector),
	}
	if n.IsGoal {
		n.CostEstimate = 0
	}
	g.nodes = append(g.nodes, n)
	h := s.Hash()
	g.buckets[h] = append(g.buckets[h], n.ID)
	return n, true
}

// CreateConnector registers a connector from parent through op to children.
//
// Duplicate children are collapsed keeping the first occurrence. The new
// connector is added to the parent's outgoing index and to every child's
// incoming index, both under the operator name. A connector structurally
// equal to one already filed under the same name in a child's incoming
// index, or a second connector of the parent for that name, fails with
// ErrDuplicateConnector.
func (g *Graph) CreateConnector(parent NodeID, op state.Operator, children []NodeID) (*Connector, error) {
	p := g.Node(parent)
	if p == nil {
		return nil, fmt.Errorf("connector parent %d: %w", parent, ErrUnknownNode)
	}

	seen := make(map[NodeID]struct{}, len(children))
	unique := make([]NodeID, 0, len(children))
	for _, id := range children {
		if g.Node(id) == nil {
			return nil, fmt.Errorf("connector child %d: %w", id, ErrUnknownNode)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	c := &Connector{
		ID:          g.connectors,
		Parent:      parent,
		Children:    unique,
		Op:          op,
		Cost:        op.Cost(),
		Unsatisfied: len(unique),
		Label:       op.Name(),
	}
	for _, id := range unique {
		for _, in := range g.nodes[id].incoming[c.Label] {
			if in.Equal(c) {
				return nil, fmt.Errorf("node %d already reaches %v through %q: %w", parent, unique, c.Label, ErrDuplicateConnector)
			}
		}
	}
	if _, ok := p.outByName[c.Label]; ok {
		return nil, fmt.Errorf("node %d already has a connector for %q: %w", parent, c.Label, ErrDuplicateConnector)
	}

	g.connectors++
	p.outgoing = append(p.outgoing, c)
	p.outByName[c.Label] = c
	for _, id := range unique {
		child := g.nodes[id]
		child.incoming[c.Label] = append(child.incoming[c.Label], c)
	}
	return c, nil
}

// CheckConsistency verifies that the incoming and outgoing indexes
// describe the same set of connectors: every outgoing connector appears in
// each child's incoming index under its operator name, and every incoming
// entry is an outgoing connector of its parent filed under its own name.
func (g *Graph) CheckConsistency() error {
	for _, n := range g.nodes {
		for _, c := range n.outgoing {
			if c.Parent != n.ID {
				return fmt.Errorf("connector %s listed under node %d: %w", c, n.ID, ErrInconsistentGraph)
			}
			for _, id := range c.Children {
				child := g.Node(id)
				if child == nil {
					return fmt.Errorf("connector %s child %d: %w", c, id, ErrUnknownNode)
				}
				if !containsConnector(child.incoming[c.Label], c) {
					return fmt.Errorf("connector %s missing from incoming of node %d: %w", c, id, ErrInconsistentGraph)
				}
			}
		}
		for name, list := range n.incoming {
			for _, c := range list {
				if c.Label != name {
					return fmt.Errorf("incoming connector %s of node %d filed under %q: %w", c, n.ID, name, ErrInconsistentGraph)
				}
				parent := g.Node(c.Parent)
				if parent == nil || parent.outByName[c.Label] != c || !c.HasChild(n.ID) {
					return fmt.Errorf("incoming connector %s of node %d is not outgoing from its parent: %w", c, n.ID, ErrInconsistentGraph)
				}
			}
		}
	}
	return nil
}

// MarkProven records that every node in ids belongs to a proven policy.
// Each newly proven node decrements Unsatisfied on its incoming connectors;
// a connector reaching zero becomes Safe. Proving a node twice has no
// further effect.
func (g *Graph) MarkProven(ids []NodeID) {
	sorted := append([]NodeID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, id := range sorted {
		n := g.Node(id)
		if n == nil || n.Proven {
			continue
		}
		n.Proven = true
		for _, list := range n.incoming {
			for _, c := range list {
				if c.Unsatisfied > 0 {
					c.Unsatisfied--
				}
				if c.Unsatisfied == 0 {
					c.Safe = true
				}
			}
		}
	}
}

// Release frees the state of every node. The graph must not be used
// afterwards.
func (g *Graph) Release() {
	for _, n := range g.nodes {
		n.State.Free()
	}
	g.nodes = nil
	g.buckets = nil
}

func containsConnector(list []*Connector, c *Connector) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}
