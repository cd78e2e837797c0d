package graph

import (
	"fmt"
	"strings"

	"github.com/ramonpereira/paladinus-sub001/state"
)

// Connector is an AND edge of the search graph: applying Op in Parent may
// lead to any of Children, so a policy using it must solve all of them.
type Connector struct {
	// ID is the creation index of the connector within its graph.
	ID int

	// Parent is the node the operator is applied in.
	Parent NodeID

	// Children are the distinct outcome nodes, in exploration order.
	Children []NodeID

	// Op is the operator the connector applies.
	Op state.Operator

	// Cost is Op.Cost().
	Cost float64

	// Unsatisfied counts children not yet proven. It starts at
	// len(Children) and is decremented by proof propagation.
	Unsatisfied int

	// Safe is set once every child is proven.
	Safe bool

	// Label is the display name of the connector.
	Label string
}

// Equal compares connectors structurally: same parent and same set of
// children. The operator is not part of the identity.
func (c *Connector) Equal(other *Connector) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Parent != other.Parent || len(c.Children) != len(other.Children) {
		return false
	}
	set := make(map[NodeID]struct{}, len(c.Children))
	for _, id := range c.Children {
		set[id] = struct{}{}
	}
	for _, id := range other.Children {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// HasChild reports whether id is one of the children.
func (c *Connector) HasChild(id NodeID) bool {
	for _, child := range c.Children {
		if child == id {
			return true
		}
	}
	return false
}

func (c *Connector) String() string {
	ids := make([]string, len(c.Children))
	for i, id := range c.Children {
		ids[i] = fmt.Sprint(int(id))
	}
	return fmt.Sprintf("%d -%s-> [%s]", c.Parent, c.Label, strings.Join(ids, " "))
}
