package generator

import (
	"strings"
	"testing"

	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/layout"
	"github.com/layoutsched/layoutsched/schedule"
)

const oneKernelModule = `module {
  executable private @add_dispatch {
    func.func @add_kernel(%arg0: !flow.dispatch.tensor<readonly:tensor<2x3xf32>>, %arg1: !flow.dispatch.tensor<writeonly:tensor<2x3xf32>>) {
      "kernel.body"() : () -> ()
    }
    flow.executable.export public @add_export
  }
  func.func @main$async(%x: tensor<2x3xf32>) -> (tensor<2x3xf32>) {
    %r0 = flow.dispatch @add_dispatch::@add_export(%x) : (tensor<2x3xf32>) -> (tensor<2x3xf32>)
    func.return %r0 : tensor<2x3xf32>
  }
}
`

func TestGenerateRewritesDispatchAndClonesExecutable(t *testing.T) {
	sched := schedule.New()
	sched.Set("%x", layout.Layout{1, 0})
	sched.Set("%r0", layout.Layout{1, 0})

	out, err := Generate(oneKernelModule, sched)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "@add_dispatch_1x0_1x0") {
		t.Errorf("expected clone module @add_dispatch_1x0_1x0, got:\n%s", out)
	}
	if !strings.Contains(out, "@add_kernel_1x0_1x0") {
		t.Errorf("expected clone kernel @add_kernel_1x0_1x0, got:\n%s", out)
	}
	if !strings.Contains(out, "fluidml.0 = array<i64: 1, 0>") || !strings.Contains(out, "fluidml.1 = array<i64: 1, 0>") {
		t.Errorf("expected fluidml layout attrs on clone, got:\n%s", out)
	}
	if strings.Contains(out, "@add_dispatch::@add_export") {
		t.Errorf("dispatch still references the original executable:\n%s", out)
	}
}

func TestGenerateDefaultScheduleClonesWithIdentityAttrs(t *testing.T) {
	out, err := Generate(oneKernelModule, schedule.New())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "fluidml.0 = array<i64: 0, 1>") {
		t.Errorf("expected identity fluidml attrs, got:\n%s", out)
	}
	if !strings.Contains(out, "@add_dispatch_0x1_0x1::@add_kernel_0x1_0x1") {
		t.Errorf("expected identity-layout clone dispatch target, got:\n%s", out)
	}
}

func TestTransposeBytesPermutesRowMajor2x3(t *testing.T) {
	// [[1,2,3],[4,5,6]] row-major, one u32 (4-byte) element per cell,
	// value N encoded as N repeated across its 4 bytes so each element is
	// trivially recognisable in the output.
	elem := func(n byte) [4]byte { return [4]byte{n, n, n, n} }
	var raw []byte
	for _, n := range []byte{1, 2, 3, 4, 5, 6} {
		e := elem(n)
		raw = append(raw, e[:]...)
	}
	out := TransposeBytes(raw, ir.Shape{2, 3}, ir.U32, layout.Layout{1, 0})
	// [[1,2,3],[4,5,6]] transposed by (1,0) -> [[1,4],[2,5],[3,6]].
	want := []byte{1, 1, 1, 1, 4, 4, 4, 4, 2, 2, 2, 2, 5, 5, 5, 5, 3, 3, 3, 3, 6, 6, 6, 6}
	if string(out) != string(want) {
		t.Errorf("TransposeBytes = %v, want %v", out, want)
	}
}

func TestTransposeBytesBooleanPacking(t *testing.T) {
	// 2x2 boolean array [[true,false],[false,true]], LSB-first packed.
	raw := PackBooleans([]bool{true, false, false, true})
	out := TransposeBytes(raw, ir.Shape{2, 2}, ir.I1, layout.Layout{1, 0})
	got := UnpackBooleans(out, 4)
	want := []bool{true, false, false, true} // transpose of a symmetric pattern is itself
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bit %d = %v, want %v", i, got[i], want[i])
		}
	}
}
