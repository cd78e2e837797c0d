package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteDot renders the policy as a Graphviz digraph. Policy nodes are
// boxes labelled with their state, goals are double circles, and every
// edge carries the operator of its source entry.
func (p *Policy) WriteDot(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph policy {")
	fmt.Fprintln(bw, "  rankdir=TB;")
	for _, entry := range p.Entries {
		shape := "box"
		if entry.Node == p.Root {
			shape = "box, style=bold"
		}
		fmt.Fprintf(bw, "  n%d [shape=%s, label=%s];\n", entry.Node, shape, strconv.Quote(entry.State))
	}
	for _, id := range p.Goals {
		label := "goal"
		if n := g.Node(id); n != nil {
			label = fmt.Sprint(n.State)
		}
		fmt.Fprintf(bw, "  n%d [shape=doublecircle, label=%s];\n", id, strconv.Quote(label))
	}
	for _, entry := range p.Entries {
		for _, child := range entry.Children {
			fmt.Fprintf(bw, "  n%d -> n%d [label=%s];\n", entry.Node, child, strconv.Quote(entry.Operator))
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
