package graph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// DOT writes the graph in Graphviz format
func (g *Graph) DOT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph beans {")
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintln(bw, "  node [shape=box, fontname=\"monospace\"];")
	for i, m := range g.nodes {
		fmt.Fprintf(bw, "  n%d [label=%s];\n", i, strconv.Quote(m.String()))
	}
	for i, succ := range g.succ {
		for _, j := range succ {
			fmt.Fprintf(bw, "  n%d -> n%d;\n", i, j)
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
