// Package graph builds the static dependency graph of declared members.
//
// An edge A -> B means A needs something B provides. The graph serves
// diagnostics (cycle reports, layering, diagrams); live resolution never
// consults it.
package graph

import (
	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/KOMKZ/go-yogan-ioc/typekey"
)

// Edge a dependency from a member to a provider
type Edge struct {
	From descriptor.Member
	To   descriptor.Member
}

// Graph members and their dependency edges, in declaration order
type Graph struct {
	nodes []descriptor.Member
	index map[descriptor.Member]int
	succ  [][]int
}

// New builds the graph of every member of classes
func New(classes []*descriptor.ClassDescriptor) (*Graph, error) {
	g := &Graph{index: make(map[descriptor.Member]int)}
	for _, cd := range classes {
		for _, m := range cd.Members() {
			g.index[m] = len(g.nodes)
			g.nodes = append(g.nodes, m)
		}
	}
	g.succ = make([][]int, len(g.nodes))

	for i, a := range g.nodes {
		for j, b := range g.nodes {
			if i == j || excluded(a, b) {
				continue
			}
			ok, err := dependsOn(a, b)
			if err != nil {
				return nil, err
			}
			if ok {
				g.succ[i] = append(g.succ[i], j)
			}
		}
	}
	return g, nil
}

// a constructor never depends on a member of its own class
func excluded(a, b descriptor.Member) bool {
	return a.Kind() == descriptor.KindConstructor && a.Owner() == b.Owner()
}

func dependsOn(a, b descriptor.Member) (bool, error) {
	provided := b.Provides()
	if len(provided) == 0 {
		return false, nil
	}
	for _, dep := range a.Dependencies() {
		ok, err := typekey.Matches(dep, provided)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Nodes members in insertion order
func (g *Graph) Nodes() []descriptor.Member {
	return append([]descriptor.Member(nil), g.nodes...)
}

// Edges every edge, grouped by source in insertion order
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for i, succ := range g.succ {
		for _, j := range succ {
			edges = append(edges, Edge{From: g.nodes[i], To: g.nodes[j]})
		}
	}
	return edges
}

// Successors the members m depends on
func (g *Graph) Successors(m descriptor.Member) []descriptor.Member {
	i, ok := g.index[m]
	if !ok {
		return nil
	}
	out := make([]descriptor.Member, 0, len(g.succ[i]))
	for _, j := range g.succ[i] {
		out = append(out, g.nodes[j])
	}
	return out
}

// HasEdge reports whether from depends on to
func (g *Graph) HasEdge(from, to descriptor.Member) bool {
	i, ok := g.index[from]
	if !ok {
		return false
	}
	j, ok := g.index[to]
	if !ok {
		return false
	}
	for _, k := range g.succ[i] {
		if k == j {
			return true
		}
	}
	return false
}
