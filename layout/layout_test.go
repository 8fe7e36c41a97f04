package layout

import (
	"testing"

	"github.com/layoutsched/layoutsched/ir"
)

func TestDefaultIsIdentity(t *testing.T) {
	l := Default(3)
	if !l.IsDefault() {
		t.Fatalf("Default(3) = %v, want identity", l)
	}
	if l.String() != "0x1x2" {
		t.Errorf("String() = %q, want %q", l.String(), "0x1x2")
	}
	if l.Key() != "(0,1,2)" {
		t.Errorf("Key() = %q, want %q", l.Key(), "(0,1,2)")
	}
}

func TestEqualAndClone(t *testing.T) {
	a := Layout{1, 0, 2}
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatalf("clone should equal original")
	}
	b[0] = 2
	if a.Equal(b) {
		t.Fatalf("mutating clone must not affect original")
	}
	if a[0] == 2 {
		t.Fatalf("Clone aliased the backing array")
	}
}

func TestInverseRoundTrips(t *testing.T) {
	l := Layout{2, 0, 1}
	inv := l.Inverse()
	x := []int64{10, 20, 30}
	permuted := Permute(x, l)
	back := Permute(permuted, inv)
	for i := range x {
		if back[i] != x[i] {
			t.Errorf("round-trip[%d] = %d, want %d", i, back[i], x[i])
		}
	}
}

func TestPermutationsRespectsFixedPositions(t *testing.T) {
	// shape (1, 3): axis 0 has extent 1 so it must stay fixed in every
	// permutation.
	shape := ir.Shape{1, 3}
	perms := All(shape)
	if len(perms) != Count(shape) {
		t.Fatalf("All returned %d permutations, Count says %d", len(perms), Count(shape))
	}
	for _, p := range perms {
		if p[0] != 0 {
			t.Errorf("fixed axis 0 moved in permutation %v", p)
		}
	}
}

func TestPermutationsFullRankCount(t *testing.T) {
	shape := ir.Shape{2, 3, 4}
	perms := All(shape)
	if len(perms) != 6 {
		t.Fatalf("expected 3! = 6 permutations of a rank-3 shape with no fixed axes, got %d", len(perms))
	}
	seen := map[string]bool{}
	for _, p := range perms {
		seen[p.Key()] = true
	}
	if len(seen) != 6 {
		t.Fatalf("expected 6 distinct permutations, got %d", len(seen))
	}
}

func TestPermutationsRankZero(t *testing.T) {
	perms := All(ir.Shape{})
	if len(perms) != 1 || len(perms[0]) != 0 {
		t.Fatalf("rank-0 shape should yield exactly one empty layout, got %v", perms)
	}
}
