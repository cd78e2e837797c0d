package graph

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ramonpereira/paladinus-sub001/graph/store"
)

// PolicyEntry maps one reachable non-goal state to the operator to apply.
type PolicyEntry struct {
	Node     NodeID
	StateKey string
	State    string
	Operator string
	Children []NodeID

	// Distance is the shortest number of policy steps to a goal, or -1
	// when no goal is reachable through policy edges.
	Distance int
}

// Policy is the state to operator table extracted from the marked
// connectors of a graph.
type Policy struct {
	Root    NodeID
	Entries []PolicyEntry

	// Goals lists the reachable goal nodes in discovery order.
	Goals []NodeID

	index    map[NodeID]int
	verified bool
	valid    bool
}

// ExtractPolicy walks the marked connectors breadth first from root and
// collects every reachable non-goal node with its operator. Entries are in
// discovery order.
//
// A reachable non-goal node without a mark fails with ErrIncompletePolicy.
// The node CostEstimate fields of the policy nodes are updated with the
// policy distance to a goal.
func ExtractPolicy(g *Graph, root NodeID) (*Policy, error) {
	if g.Node(root) == nil {
		return nil, fmt.Errorf("policy root %d: %w", root, ErrUnknownNode)
	}
	p := &Policy{Root: root, index: make(map[NodeID]int)}
	seen := map[NodeID]bool{root: true}
	queue := []NodeID{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := g.nodes[id]
		if n.IsGoal {
			p.Goals = append(p.Goals, id)
			continue
		}
		c := n.Marked
		if c == nil {
			return nil, fmt.Errorf("node %d (%s): %w", id, n.Key, ErrIncompletePolicy)
		}
		p.index[id] = len(p.Entries)
		p.Entries = append(p.Entries, PolicyEntry{
			Node:     id,
			StateKey: n.Key,
			State:    n.State.String(),
			Operator: c.Label,
			Children: append([]NodeID(nil), c.Children...),
			Distance: -1,
		})
		for _, child := range c.Children {
			if !seen[child] {
				seen[child] = true
				queue = append(queue, child)
			}
		}
	}
	p.computeDistances(g)
	return p, nil
}

// computeDistances relaxes distance(n) = 1 + min child distance to a fixed
// point, goals being at distance 0.
func (p *Policy) computeDistances(g *Graph) {
	dist := func(id NodeID) int {
		if g.nodes[id].IsGoal {
			return 0
		}
		if i, ok := p.index[id]; ok {
			return p.Entries[i].Distance
		}
		return -1
	}
	for changed := true; changed; {
		changed = false
		for i := range p.Entries {
			e := &p.Entries[i]
			best := -1
			for _, child := range e.Children {
				if d := dist(child); d >= 0 && (best < 0 || d+1 < best) {
					best = d + 1
				}
			}
			if best >= 0 && (e.Distance < 0 || best < e.Distance) {
				e.Distance = best
				changed = true
			}
		}
	}
	for _, id := range p.Goals {
		g.nodes[id].CostEstimate = 0
	}
	for _, e := range p.Entries {
		if e.Distance < 0 {
			g.nodes[e.Node].CostEstimate = math.Inf(1)
		} else {
			g.nodes[e.Node].CostEstimate = float64(e.Distance)
		}
	}
}

// Len returns the number of entries.
func (p *Policy) Len() int { return len(p.Entries) }

// Lookup returns the entry of node id.
func (p *Policy) Lookup(id NodeID) (PolicyEntry, bool) {
	i, ok := p.index[id]
	if !ok {
		return PolicyEntry{}, false
	}
	return p.Entries[i], true
}

// Valid reports the result of the last Verify call. It is advisory: a
// policy is returned for every PROVEN result whether or not it verified.
func (p *Policy) Valid() bool { return p.verified && p.valid }

// Verify checks that the policy is strong cyclic in g:
//   - every entry is still the marked connector of its node and is
//     applicable there
//   - every child of an entry is a goal or has an entry itself
//   - every entry reaches a goal through policy edges
//
// It records the outcome for Valid and returns an error wrapping
// ErrInvalidPolicy describing the first violation.
func (p *Policy) Verify(g *Graph) error {
	p.verified = true
	p.valid = false
	for _, e := range p.Entries {
		n := g.Node(e.Node)
		if n == nil {
			return fmt.Errorf("entry %d: %w", e.Node, ErrUnknownNode)
		}
		c := n.Marked
		if c == nil || c.Label != e.Operator || n.outByName[c.Label] != c {
			return fmt.Errorf("node %d no longer marks %q: %w", e.Node, e.Operator, ErrInvalidPolicy)
		}
		if !n.State.IsApplicable(c.Op) {
			return fmt.Errorf("node %d: %s is not applicable: %w", e.Node, e.Operator, ErrInvalidPolicy)
		}
		for _, id := range c.Children {
			child := g.Node(id)
			if child == nil {
				return fmt.Errorf("node %d child %d: %w", e.Node, id, ErrUnknownNode)
			}
			if _, ok := p.index[id]; !ok && !child.IsGoal {
				return fmt.Errorf("node %d leaves child %d without an action: %w", e.Node, id, ErrInvalidPolicy)
			}
		}
		if e.Distance < 0 {
			return fmt.Errorf("node %d cannot reach a goal: %w", e.Node, ErrInvalidPolicy)
		}
	}
	p.valid = true
	return nil
}

// Record converts the policy into its persisted form.
func (p *Policy) Record(res *SearchResult, problem string, algorithm Algorithm) store.PolicyRecord {
	rec := store.PolicyRecord{
		RunID:      res.RunID,
		Problem:    problem,
		Result:     res.Result.String(),
		Algorithm:  string(algorithm),
		Valid:      p.Valid(),
		Expansions: res.Stats.Expansions,
		Rounds:     res.Stats.Rounds,
		CreatedAt:  time.Now().UTC(),
		Entries:    make([]store.PolicyEntry, len(p.Entries)),
	}
	for i, e := range p.Entries {
		rec.Entries[i] = store.PolicyEntry{
			StateKey: e.StateKey,
			State:    e.State,
			Operator: e.Operator,
			Distance: e.Distance,
		}
	}
	return rec
}

// OutcomeChooser resolves the nondeterminism of a connector during
// simulation.
type OutcomeChooser interface {
	Choose(c *Connector, step int) NodeID
}

// ChooserFunc adapts a function to OutcomeChooser.
type ChooserFunc func(c *Connector, step int) NodeID

// Choose calls f.
func (f ChooserFunc) Choose(c *Connector, step int) NodeID { return f(c, step) }

// FirstOutcome always picks the first child.
func FirstOutcome() OutcomeChooser {
	return ChooserFunc(func(c *Connector, _ int) NodeID { return c.Children[0] })
}

// LastOutcome always picks the last child.
func LastOutcome() OutcomeChooser {
	return ChooserFunc(func(c *Connector, _ int) NodeID { return c.Children[len(c.Children)-1] })
}

// RandomOutcomes picks children uniformly with a seeded source.
func RandomOutcomes(seed int64) OutcomeChooser {
	rng := rand.New(rand.NewSource(seed))
	return ChooserFunc(func(c *Connector, _ int) NodeID { return c.Children[rng.Intn(len(c.Children))] })
}

// Simulation is the trace of one policy execution.
type Simulation struct {
	ReachedGoal bool
	Steps       int

	// Trace lists the visited nodes, starting with the start node.
	Trace []NodeID

	// Operators lists the applied operators, one per step.
	Operators []string
}

// Simulate executes the policy from start, letting chooser pick the outcome
// of every step, until a goal is reached or maxSteps steps were taken.
// Reaching a non-goal node the policy does not cover fails with
// ErrIncompletePolicy.
func (p *Policy) Simulate(g *Graph, start NodeID, chooser OutcomeChooser, maxSteps int) (Simulation, error) {
	var sim Simulation
	cur := start
	for {
		n := g.Node(cur)
		if n == nil {
			return sim, fmt.Errorf("simulation reached %d: %w", cur, ErrUnknownNode)
		}
		sim.Trace = append(sim.Trace, cur)
		if n.IsGoal {
			sim.ReachedGoal = true
			return sim, nil
		}
		if sim.Steps >= maxSteps {
			return sim, nil
		}
		e, ok := p.Lookup(cur)
		if !ok {
			return sim, fmt.Errorf("simulation reached node %d: %w", cur, ErrIncompletePolicy)
		}
		c, ok := n.OutgoingFor(e.Operator)
		if !ok {
			return sim, fmt.Errorf("node %d has no connector %q: %w", cur, e.Operator, ErrInvalidPolicy)
		}
		sim.Operators = append(sim.Operators, e.Operator)
		sim.Steps++
		cur = chooser.Choose(c, sim.Steps)
	}
}
