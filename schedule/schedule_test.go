package schedule

import (
	"testing"

	"github.com/layoutsched/layoutsched/layout"
)

func TestSetGetMustGet(t *testing.T) {
	s := New()
	s.Set("%x", layout.Layout{1, 0})

	l, ok := s.Get("%x")
	if !ok || !l.Equal(layout.Layout{1, 0}) {
		t.Fatalf("Get(%%x) = %v, %v", l, ok)
	}

	if _, err := s.MustGet("%missing"); err == nil {
		t.Fatalf("MustGet on an absent key should error")
	}
}

func TestMergeMajorityVote(t *testing.T) {
	a := New()
	a.Set("%x", layout.Layout{0, 1})
	b := New()
	b.Set("%x", layout.Layout{0, 1})
	c := New()
	c.Set("%x", layout.Layout{1, 0})

	merged := Merge(a, b, c)
	got, ok := merged.Get("%x")
	if !ok {
		t.Fatalf("merged schedule missing %%x")
	}
	if !got.Equal(layout.Layout{0, 1}) {
		t.Errorf("Merge = %v, want the 2-vote majority %v", got, layout.Layout{0, 1})
	}
}

func TestMergeTieBreaksFirstSeen(t *testing.T) {
	a := New()
	a.Set("%x", layout.Layout{0, 1})
	b := New()
	b.Set("%x", layout.Layout{1, 0})

	merged := Merge(a, b)
	got, _ := merged.Get("%x")
	if !got.Equal(layout.Layout{0, 1}) {
		t.Errorf("tied merge should keep the first-seen layout, got %v", got)
	}
}

func TestMergeUnionsDisjointKeys(t *testing.T) {
	a := New()
	a.Set("%x", layout.Layout{0, 1})
	b := New()
	b.Set("%y", layout.Layout{1, 0})

	merged := Merge(a, b)
	if len(merged.Names()) != 2 {
		t.Fatalf("expected both keys present, got %v", merged.Names())
	}
}

func TestDumpLoadRoundTrip(t *testing.T) {
	s := New()
	s.Set("%x", layout.Layout{1, 0, 2})

	data, err := s.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	loaded, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	l, ok := loaded.Get("%x")
	if !ok || !l.Equal(layout.Layout{1, 0, 2}) {
		t.Errorf("round-trip mismatch: %v, %v", l, ok)
	}
}
