package ir

import "testing"

func TestFormatParseLayoutAttrRoundTrip(t *testing.T) {
	perm := []int{1, 0, 2}
	s := FormatLayoutAttr(perm)
	if s != "array<i64: 1, 0, 2>" {
		t.Fatalf("FormatLayoutAttr = %q", s)
	}
	got, err := ParseLayoutAttrValue(s)
	if err != nil {
		t.Fatalf("ParseLayoutAttrValue: %v", err)
	}
	if len(got) != len(perm) {
		t.Fatalf("round-trip length mismatch: %v vs %v", got, perm)
	}
	for i := range perm {
		if got[i] != perm[i] {
			t.Errorf("element %d = %d, want %d", i, got[i], perm[i])
		}
	}
}

func TestSetAndParseLayoutAttr(t *testing.T) {
	var attrs Attrs
	attrs = SetLayoutAttr(attrs, 0, []int{0, 1})
	attrs = SetLayoutAttr(attrs, 1, []int{1, 0})

	p0, ok := ParseLayoutAttr(attrs, 0)
	if !ok || p0[0] != 0 || p0[1] != 1 {
		t.Errorf("fluidml.0 = %v, %v", p0, ok)
	}
	p1, ok := ParseLayoutAttr(attrs, 1)
	if !ok || p1[0] != 1 || p1[1] != 0 {
		t.Errorf("fluidml.1 = %v, %v", p1, ok)
	}
	if _, ok := ParseLayoutAttr(attrs, 2); ok {
		t.Errorf("fluidml.2 should be absent")
	}
}

func TestFluidMLAttrName(t *testing.T) {
	if FluidMLAttrName(3) != "fluidml.3" {
		t.Errorf("FluidMLAttrName(3) = %q", FluidMLAttrName(3))
	}
}

func TestParseLayoutAttrValueRejectsGarbage(t *testing.T) {
	if _, err := ParseLayoutAttrValue("not-an-attr"); err == nil {
		t.Fatal("expected an error for a malformed attribute value")
	}
}
