package graph

import "github.com/KOMKZ/go-yogan-ioc/descriptor"

// CycleSet the first cycle found by a depth-first walk from every node in
// insertion order, as the path from its starting node. Empty when acyclic.
func (g *Graph) CycleSet() []descriptor.Member {
	for start := range g.nodes {
		if path := g.cycleFrom(start); path != nil {
			out := make([]descriptor.Member, len(path))
			for i, n := range path {
				out[i] = g.nodes[n]
			}
			return out
		}
	}
	return nil
}

// cycleFrom walks from start and returns the path back to start, if any
func (g *Graph) cycleFrom(start int) []int {
	visited := make([]bool, len(g.nodes))
	var path []int

	var walk func(n int) bool
	walk = func(n int) bool {
		visited[n] = true
		path = append(path, n)
		for _, next := range g.succ[n] {
			if next == start {
				return true
			}
			if !visited[next] && walk(next) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}

	if walk(start) {
		return path
	}
	return nil
}

// Layers groups members so that every member comes after everything it
// depends on. Members on or behind a cycle cannot be layered and are
// returned separately.
func (g *Graph) Layers() (layers [][]descriptor.Member, cyclic []descriptor.Member) {
	pending := make([]int, len(g.nodes))
	dependents := make([][]int, len(g.nodes))
	for i, succ := range g.succ {
		pending[i] = len(succ)
		for _, j := range succ {
			dependents[j] = append(dependents[j], i)
		}
	}

	processed := make([]bool, len(g.nodes))
	done := 0
	for done < len(g.nodes) {
		var current []int
		for i := range g.nodes {
			if !processed[i] && pending[i] == 0 {
				current = append(current, i)
			}
		}
		if len(current) == 0 {
			break
		}

		layer := make([]descriptor.Member, 0, len(current))
		for _, i := range current {
			processed[i] = true
			done++
			layer = append(layer, g.nodes[i])
			for _, d := range dependents[i] {
				pending[d]--
			}
		}
		layers = append(layers, layer)
	}

	for i, p := range processed {
		if !p {
			cyclic = append(cyclic, g.nodes[i])
		}
	}
	return layers, cyclic
}
