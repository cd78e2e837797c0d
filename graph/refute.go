package graph

// refuted reports whether no policy over the generated graph can take root
// to a goal. Unexpanded nodes count as solvable, so a refutation also holds
// for the nodes not generated yet.
//
// It is the strong cyclic fixed point: starting from every live node, drop
// the nodes that cannot reach a goal through connectors whose children are
// all still live, until nothing changes.
func (g *Graph) refuted(root NodeID) bool {
	live := make([]bool, len(g.nodes))
	for i, n := range g.nodes {
		live[i] = n.IsGoal || !n.IsDeadEnd()
	}
	for {
		reach := make([]bool, len(g.nodes))
		for i, n := range g.nodes {
			reach[i] = live[i] && (n.IsGoal || !n.expanded)
		}
		for changed := true; changed; {
			changed = false
			for i, n := range g.nodes {
				if !live[i] || reach[i] {
					continue
				}
				for _, c := range n.outgoing {
					if g.leadsTo(c, live, reach) {
						reach[i] = true
						changed = true
						break
					}
				}
			}
		}

		pruned := false
		for i := range live {
			if live[i] && !reach[i] {
				live[i] = false
				pruned = true
			}
		}
		if !pruned {
			return !live[root]
		}
	}
}

// leadsTo reports whether every child of c is live and at least one
// already reaches a goal.
func (g *Graph) leadsTo(c *Connector, live, reach []bool) bool {
	reaches := false
	for _, id := range c.Children {
		if !live[id] {
			return false
		}
		if reach[id] {
			reaches = true
		}
	}
	return reaches
}
