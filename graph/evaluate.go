package graph

import (
	"math"
	"sort"
)

// childEstimates holds the h values of the children of a connector that
// are not on the current recursion path.
type childEstimates struct {
	values []float64
}

func (g *Graph) estimatesOf(c *Connector, path map[NodeID]bool) childEstimates {
	est := childEstimates{values: make([]float64, 0, len(c.Children))}
	for _, id := range c.Children {
		if path[id] {
			continue
		}
		est.values = append(est.values, g.nodes[id].H)
	}
	return est
}

func (e childEstimates) size() float64 { return float64(len(e.values)) }

// max is +Inf when every child is on the path.
func (e childEstimates) max() float64 {
	if len(e.values) == 0 {
		return math.Inf(1)
	}
	m := -1.0
	for _, v := range e.values {
		if v > m {
			m = v
		}
	}
	return m
}

func (e childEstimates) min() float64 {
	m := math.Inf(1)
	for _, v := range e.values {
		if v < m {
			m = v
		}
	}
	return m
}

func (e childEstimates) sum() float64 {
	var s float64
	for _, v := range e.values {
		s += v
	}
	return s
}

func (e childEstimates) avg() float64 {
	if len(e.values) == 0 {
		return 0
	}
	return e.sum() / e.size()
}

// times scales v by the number of children considered.
func (e childEstimates) times(v float64) float64 {
	if len(e.values) == 0 {
		return math.Inf(1)
	}
	return v * e.size()
}

// power raises the number of children considered to v.
func (e childEstimates) power(v float64) float64 {
	switch len(e.values) {
	case 0:
		return math.Inf(1)
	case 1:
		return v
	}
	return math.Pow(e.size(), v)
}

// sumPower is the sum over children of base^h.
func (e childEstimates) sumPower(base float64) float64 {
	if len(e.values) == 0 {
		return math.Inf(1)
	}
	if base == 1 {
		return e.sum()
	}
	var s float64
	for _, v := range e.values {
		s += math.Pow(base, v)
	}
	return s
}

// averageChildEstimate is the mean h over all children, path or not. It is
// +Inf as soon as one child is a known dead end.
func (g *Graph) averageChildEstimate(c *Connector) float64 {
	if len(c.Children) == 0 {
		return 0
	}
	var s float64
	for _, id := range c.Children {
		s += g.nodes[id].H
	}
	return s / float64(len(c.Children))
}

// criterion returns the connector term used in the bound test.
func (s *search) criterion(c *Connector) float64 {
	est := s.g.estimatesOf(c, s.path)
	if s.opts.EvaluationCriterion == CriterionMin {
		return est.min()
	}
	return est.max()
}

// selectionValue is the primary ordering key of a connector. Lower values
// are explored first.
func (s *search) selectionValue(parent *Node, c *Connector, est childEstimates, branching float64) float64 {
	switch s.opts.ActionSelection {
	case SelectMinH:
		return est.min()
	case SelectMinHTimesChildrenSize:
		return est.times(est.min())
	case SelectMinHPowerChildrenSize:
		return est.power(est.min())
	case SelectMinSumH:
		if len(est.values) == 0 {
			return math.Inf(1)
		}
		return est.sum()
	case SelectMinSumHTimesChildrenSize:
		return est.times(est.sum())
	case SelectMinSumHPowerChildrenSize:
		return est.sumPower(est.size())
	case SelectMinMaxH:
		return est.max()
	case SelectMaxH:
		return -est.max()
	case SelectMinMaxHTimesChildrenSize:
		return est.times(est.max())
	case SelectMinMaxHPowerChildrenSize:
		return est.power(est.max())
	case SelectMeanH:
		if len(est.values) == 0 {
			return math.Inf(1)
		}
		return est.avg()
	case SelectMinSumHEstimatedBranching:
		return est.sumPower(branching)
	case SelectMaxAvgHValue:
		if len(est.values) == 0 {
			return math.Inf(1)
		}
		return math.Max(parent.H, est.avg())
	}
	return 0
}

// tieValue is the secondary ordering key. Lower values are explored first.
func (s *search) tieValue(c *Connector, est childEstimates) float64 {
	switch s.opts.TieBreak {
	case TieBreakMinSum:
		return est.sum()
	case TieBreakMaxSum:
		return -est.sum()
	case TieBreakMinOutcomesSize:
		return float64(len(c.Children))
	case TieBreakMaxOutcomesSize:
		return -float64(len(c.Children))
	}
	return 0
}

// orderConnectors drops connectors with a dead-end child and sorts the rest
// by selection value, tie break and finally creation order.
func (s *search) orderConnectors(n *Node) []*Connector {
	candidates := make([]*Connector, 0, len(n.outgoing))
	var total int
	for _, c := range n.outgoing {
		if math.IsInf(s.g.averageChildEstimate(c), 1) {
			continue
		}
		candidates = append(candidates, c)
		total += len(c.Children)
	}
	if len(candidates) < 2 || (s.opts.ActionSelection == SelectNone && s.opts.TieBreak == TieBreakNone) {
		return candidates
	}
	branching := float64(total) / float64(len(candidates))

	type keyed struct {
		c         *Connector
		primary   float64
		secondary float64
	}
	keys := make([]keyed, len(candidates))
	for i, c := range candidates {
		est := s.g.estimatesOf(c, s.path)
		keys[i] = keyed{c: c, secondary: s.tieValue(c, est)}
		if s.opts.ActionSelection != SelectNone {
			keys[i].primary = s.selectionValue(n, c, est, branching)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].primary != keys[j].primary {
			return keys[i].primary < keys[j].primary
		}
		return keys[i].secondary < keys[j].secondary
	})
	for i := range keys {
		candidates[i] = keys[i].c
	}
	return candidates
}
