package graph

import "github.com/layoutsched/layoutsched/ir"

// Scope answers "which wrappers in this scope are the predecessors /
// successors of a given wrapper?". Graph and Sequence are its two
// implementations: an unordered connected component and an ordered linear
// chain, respectively.
type Scope interface {
	Wrappers() []*Wrapper
	Predecessors(w *Wrapper) []*Wrapper
	Successors(w *Wrapper) []*Wrapper
	IsSource(w *Wrapper) bool
	IsDestination(w *Wrapper) bool
}

// arena is the flat, explicit-index backing store shared by Graph and
// Sequence: adjacency is precomputed once at construction, never lazily
// memoised on a wrapper.
type arena struct {
	wrappers []*Wrapper
	indexOf  map[*ir.Op]int
	preds    [][]int
	succs    [][]int
}

func newArena(wrappers []*Wrapper) *arena {
	a := &arena{
		wrappers: wrappers,
		indexOf:  make(map[*ir.Op]int, len(wrappers)),
		preds:    make([][]int, len(wrappers)),
		succs:    make([][]int, len(wrappers)),
	}
	for i, w := range wrappers {
		a.indexOf[w.Op] = i
	}
	for i, w := range wrappers {
		for _, v := range graphInputs(w.Op) {
			pi, ok := a.indexOf[v.Producer]
			if !ok {
				continue // producer outside this scope
			}
			a.preds[i] = append(a.preds[i], pi)
			a.succs[pi] = append(a.succs[pi], i)
		}
	}
	return a
}

func (a *arena) wrapperIndex(w *Wrapper) (int, bool) {
	i, ok := a.indexOf[w.Op]
	return i, ok
}

func (a *arena) predecessors(w *Wrapper) []*Wrapper {
	i, ok := a.wrapperIndex(w)
	if !ok {
		return nil
	}
	return a.gather(a.preds[i])
}

func (a *arena) successors(w *Wrapper) []*Wrapper {
	i, ok := a.wrapperIndex(w)
	if !ok {
		return nil
	}
	return a.gather(a.succs[i])
}

func (a *arena) gather(idxs []int) []*Wrapper {
	out := make([]*Wrapper, len(idxs))
	for i, idx := range idxs {
		out[i] = a.wrappers[idx]
	}
	return out
}

func (a *arena) isSource(w *Wrapper) bool {
	i, ok := a.wrapperIndex(w)
	return ok && len(a.preds[i]) == 0
}

func (a *arena) isDestination(w *Wrapper) bool {
	i, ok := a.wrapperIndex(w)
	return ok && len(a.succs[i]) == 0
}

// Graph is an unordered scope: a (possibly disconnected, before
// partitioning) set of wrappers.
type Graph struct{ a *arena }

// NewGraph builds a Graph over wrappers, precomputing all adjacency.
func NewGraph(wrappers []*Wrapper) *Graph { return &Graph{a: newArena(wrappers)} }

func (g *Graph) Wrappers() []*Wrapper                   { return g.a.wrappers }
func (g *Graph) Predecessors(w *Wrapper) []*Wrapper     { return g.a.predecessors(w) }
func (g *Graph) Successors(w *Wrapper) []*Wrapper       { return g.a.successors(w) }
func (g *Graph) IsSource(w *Wrapper) bool               { return g.a.isSource(w) }
func (g *Graph) IsDestination(w *Wrapper) bool          { return g.a.isDestination(w) }

// Sequence is an ordered scope: a maximal linear chain of wrappers along the
// dataflow, produced by Pathify.
type Sequence struct {
	a       *arena
	ordered []*Wrapper
}

// NewSequence builds a Sequence from wrappers in chain order (w_0 ... w_n-1).
func NewSequence(ordered []*Wrapper) *Sequence {
	return &Sequence{a: newArena(ordered), ordered: ordered}
}

func (s *Sequence) Wrappers() []*Wrapper               { return s.ordered }
func (s *Sequence) Predecessors(w *Wrapper) []*Wrapper { return s.a.predecessors(w) }
func (s *Sequence) Successors(w *Wrapper) []*Wrapper   { return s.a.successors(w) }
func (s *Sequence) IsSource(w *Wrapper) bool           { return s.a.isSource(w) }
func (s *Sequence) IsDestination(w *Wrapper) bool      { return s.a.isDestination(w) }

// At returns the i-th wrapper in chain order.
func (s *Sequence) At(i int) *Wrapper { return s.ordered[i] }

// Len returns the number of wrappers in the sequence.
func (s *Sequence) Len() int { return len(s.ordered) }
