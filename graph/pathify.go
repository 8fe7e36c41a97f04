package graph

import (
	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/kstat"
	"github.com/layoutsched/layoutsched/layout"
)

// Pathify decomposes a connected graph into a set of linear sequences by
// repeated longest-path extraction. kstat is optional: when given, a
// schedule-layout wrapper's hop weight is its default-layout time;
// otherwise every hop costs 1.0.
//
// Expressed as an iterative work-list over an explicit stack of residual
// subgraphs rather than real recursion, so a large model can't blow the
// call stack.
func Pathify(g *Graph, ks *kstat.KStat) ([]*Sequence, error) {
	var out []*Sequence
	stack := []*Graph{g}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(cur.Wrappers()) == 0 {
			continue
		}
		seq, residual := extractLongestPath(cur, ks)
		out = append(out, seq)
		if len(residual) == 0 {
			continue
		}
		for _, part := range Partitioned(NewGraph(residual)) {
			if err := checkConnected(part); err != nil {
				return nil, err
			}
			stack = append(stack, part)
		}
	}
	return out, nil
}

// extractLongestPath seeds the work queue with every source, computes each
// wrapper's longest-path distance once all its in-scope predecessors are
// resolved, then walks back from the overall destination.
func extractLongestPath(g *Graph, ks *kstat.KStat) (*Sequence, []*Wrapper) {
	wrappers := g.Wrappers()
	n := len(wrappers)

	dist := make([]float64, n)
	prevIdx := make([]int, n)
	remaining := make([]int, n)
	for i := range wrappers {
		remaining[i] = len(g.a.preds[i])
	}

	queue := make([]int, 0, n)
	for i, r := range remaining {
		if r == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]int, 0, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, s := range g.a.succs[i] {
			remaining[s]--
			if remaining[s] == 0 {
				queue = append(queue, s)
			}
		}
	}

	for _, i := range order {
		preds := g.a.preds[i]
		if len(preds) == 0 {
			dist[i] = 0
			prevIdx[i] = -1
			continue
		}
		weight := hopWeight(wrappers[i], ks)
		best := -1
		var bestDist float64
		for _, p := range preds {
			cand := dist[p] + weight
			if best == -1 || cand > bestDist {
				bestDist = cand
				best = p
			}
		}
		dist[i] = bestDist
		prevIdx[i] = best
	}

	destIdx := -1
	var destDist float64
	for i := 0; i < n; i++ {
		if destIdx == -1 || dist[i] > destDist {
			destDist = dist[i]
			destIdx = i
		}
	}

	var chain []int
	for idx := destIdx; idx != -1; idx = prevIdx[idx] {
		chain = append(chain, idx)
	}
	for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
		chain[l], chain[r] = chain[r], chain[l]
	}

	seqWrappers := make([]*Wrapper, len(chain))
	inSeq := make(map[int]bool, len(chain))
	for i, idx := range chain {
		seqWrappers[i] = wrappers[idx]
		inSeq[idx] = true
	}
	var residual []*Wrapper
	for i, w := range wrappers {
		if !inSeq[i] {
			residual = append(residual, w)
		}
	}
	return NewSequence(seqWrappers), residual
}

// hopWeight is the edge weight added for the hop into w.
func hopWeight(w *Wrapper, ks *kstat.KStat) float64 {
	if ks == nil || !w.scheduleLayout() || w.Kernel == nil {
		return 1.0
	}
	t, ok := ks.Get(w.KernelName, defaultTuple(w.Kernel))
	if !ok {
		return 1.0
	}
	return t
}

// defaultTuple returns the identity-layout KStat key for a kernel: inputs
// then results, matching the canonical per-arg order used throughout this
// package.
func defaultTuple(k *ir.KernelFunc) kstat.Tuple {
	var t kstat.Tuple
	for _, a := range k.InputTypes() {
		t = append(t, layout.Default(a.Tensor.Shape.Rank()))
	}
	for _, a := range k.ResultTypes() {
		t = append(t, layout.Default(a.Tensor.Shape.Rank()))
	}
	return t
}

// checkConnected verifies every wrapper in g is reachable from the first via
// the undirected (predecessor ∪ successor) relation. Partitioned guarantees
// this holds for any residual subgraph it returns, so a violation here is a
// fatal internal error, not a recoverable one.
func checkConnected(g *Graph) error {
	wrappers := g.Wrappers()
	if len(wrappers) == 0 {
		return nil
	}
	visited := make(map[int]bool, len(wrappers))
	queue := []int{0}
	visited[0] = true
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		for _, j := range g.a.preds[i] {
			if !visited[j] {
				visited[j] = true
				queue = append(queue, j)
			}
		}
		for _, j := range g.a.succs[i] {
			if !visited[j] {
				visited[j] = true
				queue = append(queue, j)
			}
		}
	}
	if len(visited) != len(wrappers) {
		return ErrDisconnectedResidual
	}
	return nil
}
