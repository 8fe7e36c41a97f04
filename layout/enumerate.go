package layout

import (
	"iter"

	"github.com/layoutsched/layoutsched/ir"
)

// Permutations yields every permutation of [0,…,rank-1] that is the identity
// on shape's fixed (extent-1) positions. The sequence is finite and its
// order is deterministic across runs (lexicographic over the free
// positions) but callers should not depend on any particular ordering
// beyond that.
func Permutations(shape ir.Shape) iter.Seq[Layout] {
	rank := shape.Rank()
	fixed := shape.FixedPositions()

	free := make([]int, 0, rank)
	for i := 0; i < rank; i++ {
		if !fixed[i] {
			free = append(free, i)
		}
	}

	return func(yield func(Layout) bool) {
		if rank == 0 {
			yield(Layout{})
			return
		}
		perm := make(Layout, rank)
		for i := 0; i < rank; i++ {
			if fixed[i] {
				perm[i] = i
			}
		}
		permuteFreePositions(perm, free, 0, make([]bool, len(free)), yield)
	}
}

// permuteFreePositions fills perm's free positions with every permutation of
// the values in free, calling yield for each completed layout. Returns false
// (via the yield contract) once the consumer stops early.
func permuteFreePositions(perm Layout, free []int, depth int, used []bool, yield func(Layout) bool) bool {
	if depth == len(free) {
		out := perm.Clone()
		return yield(out)
	}
	for i, v := range free {
		if used[i] {
			continue
		}
		used[i] = true
		perm[free[depth]] = v
		if !permuteFreePositions(perm, free, depth+1, used, yield) {
			used[i] = false
			return false
		}
		used[i] = false
	}
	return true
}

// All materialises Permutations(shape) into a slice, for callers that need
// random access or a count rather than a one-pass iterator.
func All(shape ir.Shape) []Layout {
	var out []Layout
	for l := range Permutations(shape) {
		out = append(out, l)
	}
	return out
}

// Count returns the closed-form number of permutations Permutations(shape)
// yields: free!, where free is the number of non-fixed positions. Fixed
// positions are individually identity-mapped, so only the free positions
// are permuted (e.g. shape [1,4,1,3] gives 2! = 2).
func Count(shape ir.Shape) int {
	free := shape.Rank() - len(shape.FixedPositions())
	return factorial(free)
}

func factorial(n int) int {
	f := 1
	for i := 2; i <= n; i++ {
		f *= i
	}
	return f
}
