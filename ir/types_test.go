package ir

import "testing"

func TestShapeFixedPositions(t *testing.T) {
	s := Shape{1, 4, 1}
	fixed := s.FixedPositions()
	if !fixed[0] || fixed[1] || !fixed[2] {
		t.Fatalf("FixedPositions(%v) = %v, want {0,2}", s, fixed)
	}
}

func TestShapeNumElements(t *testing.T) {
	if n := (Shape{2, 3, 4}).NumElements(); n != 24 {
		t.Errorf("NumElements = %d, want 24", n)
	}
	if n := (Shape{}).NumElements(); n != 1 {
		t.Errorf("NumElements(rank 0) = %d, want 1", n)
	}
}

func TestParseDispatchTensorType(t *testing.T) {
	tt, err := ParseDispatchTensorType("!flow.dispatch.tensor<readonly:tensor<2x3xf32>>")
	if err != nil {
		t.Fatalf("ParseDispatchTensorType: %v", err)
	}
	if tt.Access != ReadOnly {
		t.Errorf("Access = %v, want readonly", tt.Access)
	}
	if tt.Tensor.DType != F32 || tt.Tensor.Shape.String() != "2x3" {
		t.Errorf("Tensor = %+v, want 2x3xf32", tt.Tensor)
	}
}

func TestParseDispatchTensorTypeRejectsGarbage(t *testing.T) {
	if _, err := ParseDispatchTensorType("tensor<2x3xf32>"); err == nil {
		t.Fatal("expected an error for a non dispatch-tensor type")
	}
}

func TestParseTensorTypeRankZero(t *testing.T) {
	tt, err := ParseTensorType("tensor<f32>")
	if err != nil {
		t.Fatalf("ParseTensorType: %v", err)
	}
	if tt.Shape.Rank() != 0 {
		t.Errorf("expected rank 0, got %d", tt.Shape.Rank())
	}
}

func TestDTypeBitWidth(t *testing.T) {
	cases := map[DType]int{I1: 1, F32: 32, U32: 32, F64: 64, I64: 64}
	for dt, want := range cases {
		if got := dt.BitWidth(); got != want {
			t.Errorf("%s.BitWidth() = %d, want %d", dt, got, want)
		}
	}
}
