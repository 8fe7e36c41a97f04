package graph

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Partitioned returns g's weakly connected components as separate Graphs.
// Connectivity is computed on the undirected neighbour relation
// (predecessors ∪ successors) via gonum's topo.ConnectedComponents, backed
// by a simple.UndirectedGraph built over wrapper indices.
func Partitioned(g *Graph) []*Graph {
	wrappers := g.Wrappers()
	ug := simple.NewUndirectedGraph()
	for i := range wrappers {
		ug.AddNode(simple.Node(i))
	}
	for i, w := range wrappers {
		for _, s := range g.Successors(w) {
			j, _ := g.a.wrapperIndex(s)
			if !ug.HasEdgeBetween(int64(i), int64(j)) {
				ug.SetEdge(ug.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}

	components := topo.ConnectedComponents(ug)
	out := make([]*Graph, 0, len(components))
	for _, comp := range components {
		sub := make([]*Wrapper, len(comp))
		for i, n := range comp {
			sub[i] = wrappers[int(n.ID())]
		}
		out = append(out, NewGraph(sub))
	}
	return out
}
