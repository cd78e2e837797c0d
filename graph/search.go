package graph

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/ramonpereira/paladinus-sub001/graph/emit"
	"github.com/ramonpereira/paladinus-sub001/state"
)

// flag is the outcome of visiting one node.
type flag int

const (
	flagGoal flag = iota
	flagDeadEnd
	flagVisited
	flagNonPromising
	flagTimeout
	flagAbort
)

func (f flag) String() string {
	switch f {
	case flagGoal:
		return "GOAL"
	case flagDeadEnd:
		return "DEAD_END"
	case flagVisited:
		return "VISITED"
	case flagNonPromising:
		return "NON_PROMISING"
	case flagTimeout:
		return "TIMEOUT"
	case flagAbort:
		return "ABORT"
	}
	return "UNKNOWN"
}

// nodeSet is the solved set threaded through the recursion. Connector
// attempts work on private copies, so a failed attempt never leaks nodes
// into the caller's set.
type nodeSet map[NodeID]struct{}

func (s nodeSet) has(id NodeID) bool {
	_, ok := s[id]
	return ok
}

func (s nodeSet) clone() nodeSet {
	out := make(nodeSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s nodeSet) sorted() []NodeID {
	out := make([]NodeID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// search holds the state of one Run. The path, dead-end and non-promising
// sets belong to it exclusively.
//
// A node is recorded as non-promising at size k when each of its connectors
// either exceeded the bound at k or failed on a dead-end or non-promising
// child. Both hold again at any size above k within the same round, and
// every record implies a finite deferred cost, so a round that hits a record
// never ends with an infinite next bound.
type search struct {
	e     *Engine
	g     *Graph
	opts  Options
	token *cancelToken
	rng   *rand.Rand
	runID string

	round     int
	bound     float64
	nextBound float64
	depth     int

	path         map[NodeID]bool
	deadEnds     map[NodeID]bool
	nonPromising map[NodeID]float64

	stats Stats
	err   error
}

func (s *search) pruning() bool  { return s.opts.Algorithm == AlgorithmIterativeDFSPruning }
func (s *search) learning() bool { return s.opts.Algorithm == AlgorithmIterativeDFSLearning }

func (s *search) estimate(st state.State) float64 {
	return s.e.heuristic.Estimate(st)
}

// deferCost records a cost that exceeded the bound as a candidate for the
// next round.
func (s *search) deferCost(cost float64) {
	if cost < s.nextBound {
		s.nextBound = cost
	}
}

func (s *search) abort(err error) flag {
	if s.err == nil {
		s.err = err
	}
	return flagAbort
}

// attempt runs one round rooted at root under the current bound.
func (s *search) attempt(root *Node) (flag, nodeSet) {
	s.path = make(map[NodeID]bool)
	s.nonPromising = make(map[NodeID]float64)
	s.nextBound = math.Inf(1)
	s.depth = 0
	return s.visit(root, nodeSet{}, 0)
}

// visit proves or refutes n under the current bound.
//
// Checks run in a fixed order: timeout, goal or already solved, dead end,
// non-promising, on path. Only then is the node expanded and its connectors
// tried in selection order. The first connector whose children are all
// proven is marked on n and its solved set is returned.
//
// Parameters:
//   - n: node to prove
//   - solved: nodes known to be solved in the current attempt
//   - size: policy size accumulated along the path to n
//
// Returns the outcome and the solved set the caller must continue with.
func (s *search) visit(n *Node, solved nodeSet, size float64) (flag, nodeSet) {
	if s.token.Expired() || s.depth >= s.opts.MaxDepth {
		return flagTimeout, solved
	}
	if n.IsGoal || solved.has(n.ID) {
		for id := range s.path {
			solved[id] = struct{}{}
		}
		return flagGoal, solved
	}
	if n.IsDeadEnd() || s.deadEnds[n.ID] {
		return flagDeadEnd, solved
	}
	if s.pruning() {
		if recorded, ok := s.nonPromising[n.ID]; ok && size >= recorded {
			return flagNonPromising, solved
		}
	}
	if s.path[n.ID] {
		return flagVisited, solved
	}

	s.path[n.ID] = true
	s.depth++
	defer func() {
		delete(s.path, n.ID)
		s.depth--
	}()

	if err := s.expand(n); err != nil {
		return s.abort(err), solved
	}
	connectors := s.orderConnectors(n)
	if s.pruning() {
		s.lookAhead(n)
	}

	allDead := true
	allHopeless := true
	explored := false
	// A deferral taken only because the solved set was empty may not
	// repeat with a larger set later in the round.
	deferredUnsolved := false
	minEval := math.Inf(1)
	for _, c := range connectors {
		eval := s.criterion(c)
		if eval < minEval {
			minEval = eval
		}
		switch {
		case size+1+eval > s.bound && len(solved) == 0:
			s.deferCost(size + 1 + eval)
			allDead = false
			deferredUnsolved = true
			continue
		case size+1 > s.bound:
			s.deferCost(size + 1)
			allDead = false
			continue
		}

		explored = true
		f, local := s.prove(n, c, solved, size)
		switch f {
		case flagTimeout, flagAbort:
			return f, solved
		case flagGoal:
			n.Marked = c
			if s.learning() && !math.IsInf(eval, 1) {
				n.H = eval + 1
			}
			return flagGoal, local
		case flagDeadEnd:
		case flagNonPromising:
			allDead = false
		default:
			allDead = false
			allHopeless = false
		}
	}

	if allDead {
		s.markDeadEnd(n)
		return flagDeadEnd, solved
	}
	if s.pruning() && allHopeless && !deferredUnsolved {
		s.nonPromising[n.ID] = size
		return flagNonPromising, solved
	}
	if s.learning() && !explored && !math.IsInf(minEval, 1) {
		n.H = minEval + 1
	}
	return flagVisited, solved
}

// prove iterates the children of c to a fixed point: every pass revisits
// the children not yet proven, since a child proven later in a pass may
// close a cycle for one that failed earlier. It stops when all children are
// proven, when one is refuted, or when a pass makes no progress.
func (s *search) prove(n *Node, c *Connector, solved nodeSet, size float64) (flag, nodeSet) {
	found := make(map[NodeID]bool, len(c.Children))
	local := solved.clone()
	for progress := true; progress; {
		progress = false
		s.stats.FixedPointPasses++
		for _, id := range c.Children {
			if found[id] {
				continue
			}
			f, next := s.visit(s.g.nodes[id], local, size+1)
			local = next
			if s.pruning() {
				s.lookAhead(n)
			}
			switch f {
			case flagTimeout, flagAbort, flagDeadEnd, flagNonPromising:
				return f, solved
			case flagGoal:
				found[id] = true
				progress = true
			}
		}
		if len(found) == len(c.Children) {
			return flagGoal, local
		}
	}
	return flagVisited, solved
}

// lookAhead refreshes h(n) from its children: 1 + the smallest child h.
func (s *search) lookAhead(n *Node) {
	best := math.Inf(1)
	for _, c := range n.outgoing {
		for _, id := range c.Children {
			if h := s.g.nodes[id].H; h < best {
				best = h
			}
		}
	}
	if len(n.outgoing) > 0 && !math.IsInf(best, 1) {
		n.H = best + 1
	}
}

func (s *search) markDeadEnd(n *Node) {
	if s.deadEnds[n.ID] {
		return
	}
	s.deadEnds[n.ID] = true
	n.H = math.Inf(1)
	s.stats.DeadEnds++
	s.e.opts.Metrics.IncrementDeadEnds()
	if s.opts.ExpansionEvents {
		s.emit(emit.MsgDeadEnd, n.Key, nil)
	}
}

// expand generates the outgoing connectors of n once. Later visits reuse
// them; every visit still counts as an expansion.
func (s *search) expand(n *Node) error {
	s.stats.Expansions++
	s.e.opts.Metrics.IncrementExpansions()
	if s.opts.ExpansionEvents {
		s.emit(emit.MsgExpand, n.Key, map[string]interface{}{"h": n.H, "depth": s.depth})
	}
	if n.expanded {
		return nil
	}

	for _, op := range n.State.ApplicableOps(s.e.problem.Operators()) {
		successors, err := n.State.Apply(op)
		if err != nil {
			return &EngineError{
				Message: fmt.Sprintf("applying %s in node %d", op.Name(), n.ID),
				Code:    CodeApplyFailed,
				Cause:   err,
			}
		}
		children := make([]NodeID, 0, len(successors))
		for _, succ := range successors {
			child, created := s.g.Insert(succ, s.estimate)
			if created {
				child.Depth = n.Depth + 1
				s.stats.Nodes++
			} else if child.State != succ {
				succ.Free()
			}
			children = append(children, child.ID)
		}
		s.orderChildren(children)
		if _, err := s.g.CreateConnector(n.ID, op, children); err != nil {
			code := CodeInconsistentGraph
			if errors.Is(err, ErrDuplicateConnector) {
				code = CodeDuplicateConnector
			}
			return &EngineError{Message: err.Error(), Code: code, Cause: err}
		}
	}
	n.expanded = true
	return nil
}

// orderChildren applies the successor order. Ties keep creation order.
func (s *search) orderChildren(children []NodeID) {
	switch s.opts.SuccessorOrder {
	case OrderSort:
		sort.SliceStable(children, func(i, j int) bool {
			return s.g.nodes[children[i]].H < s.g.nodes[children[j]].H
		})
	case OrderReverse:
		sort.SliceStable(children, func(i, j int) bool {
			return s.g.nodes[children[i]].H > s.g.nodes[children[j]].H
		})
	case OrderRandom:
		s.rng.Shuffle(len(children), func(i, j int) {
			children[i], children[j] = children[j], children[i]
		})
	}
}

func (s *search) emit(msg, nodeID string, meta map[string]interface{}) {
	if s.e.opts.Emitter == nil {
		return
	}
	s.e.opts.Emitter.Emit(emit.Event{
		RunID:  s.runID,
		Round:  s.round,
		NodeID: nodeID,
		Msg:    msg,
		Meta:   meta,
	})
}

// run escalates the bound until the root is proven, refuted, or the token
// expires.
func (s *search) run(root *Node) (Result, nodeSet) {
	if root.IsDeadEnd() {
		return ResultDisproven, nil
	}

	switch {
	case !s.opts.Algorithm.iterative():
		s.bound = math.Inf(1)
	case s.opts.UnitaryBound:
		s.bound = 0
	default:
		s.bound = root.H
	}

	for {
		s.round++
		s.e.opts.Metrics.StartRound(s.bound)
		s.emit(emit.MsgRoundStart, root.Key, map[string]interface{}{"bound": s.bound})

		nodes := s.g.Len()
		f, solved := s.attempt(root)
		s.stats.Rounds = s.round
		s.stats.Bounds = append(s.stats.Bounds, s.bound)
		s.emit(emit.MsgRoundEnd, root.Key, map[string]interface{}{
			"bound":      s.bound,
			"next_bound": s.nextBound,
			"expansions": s.stats.Expansions,
			"result":     f.String(),
		})

		switch f {
		case flagGoal:
			return ResultProven, solved
		case flagTimeout, flagAbort:
			return ResultTimeout, nil
		case flagDeadEnd:
			return ResultDisproven, nil
		}
		if !s.opts.Algorithm.iterative() || math.IsInf(s.nextBound, 1) {
			return ResultDisproven, nil
		}
		// Learned and looked-ahead estimates keep growing on cyclic dead
		// ends, so the next bound alone never becomes infinite there.
		if (s.learning() || s.pruning()) && s.g.Len() == nodes && s.g.refuted(root.ID) {
			s.emit(emit.MsgRefuted, root.Key, map[string]interface{}{"round": s.round})
			return ResultDisproven, nil
		}
		if s.opts.UnitaryBound {
			s.bound++
		} else {
			s.bound = s.nextBound
		}
	}
}
