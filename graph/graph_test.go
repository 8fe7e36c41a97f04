package graph

import (
	"testing"

	"github.com/layoutsched/layoutsched/ir"
)

// chainFixture is a two-hop dispatch chain: add -> mul, %x -> %r0 -> %r1.
const chainFixture = `module {
  executable private @add_dispatch {
    func.func @add_kernel(%arg0: !flow.dispatch.tensor<readonly:tensor<2x3xf32>>, %arg1: !flow.dispatch.tensor<writeonly:tensor<2x3xf32>>) {
      "kernel.body"() : () -> ()
    }
    flow.executable.export public @add_export
  }
  executable private @mul_dispatch {
    func.func @mul_kernel(%arg0: !flow.dispatch.tensor<readonly:tensor<2x3xf32>>, %arg1: !flow.dispatch.tensor<writeonly:tensor<2x3xf32>>) {
      "kernel.body"() : () -> ()
    }
    flow.executable.export public @mul_export
  }
  func.func @main$async(%x: tensor<2x3xf32>) -> (tensor<2x3xf32>) {
    %r0 = flow.dispatch @add_dispatch::@add_export(%x) : (tensor<2x3xf32>) -> (tensor<2x3xf32>)
    %r1 = flow.dispatch @mul_dispatch::@mul_export(%r0) : (tensor<2x3xf32>) -> (tensor<2x3xf32>)
    func.return %r1 : tensor<2x3xf32>
  }
}
`

func parseChain(t *testing.T) []*Wrapper {
	t.Helper()
	m, err := ir.Parse(chainFixture)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn, err := m.AsyncFunction()
	if err != nil {
		t.Fatalf("AsyncFunction: %v", err)
	}
	return Wrap(m, fn.Ops)
}

func TestWrapResolvesKernel(t *testing.T) {
	wrappers := parseChain(t)
	if wrappers[0].KernelName != "@add_kernel" {
		t.Errorf("first wrapper kernel = %q, want @add_kernel", wrappers[0].KernelName)
	}
	if wrappers[1].KernelName != "@mul_kernel" {
		t.Errorf("second wrapper kernel = %q, want @mul_kernel", wrappers[1].KernelName)
	}
}

func TestGraphAdjacencyAndSourceDestination(t *testing.T) {
	wrappers := parseChain(t)
	g := NewGraph(wrappers)

	add, mul := wrappers[0], wrappers[1]
	if !g.IsSource(add) {
		t.Errorf("add dispatch should be a source")
	}
	if g.IsSource(mul) {
		t.Errorf("mul dispatch should not be a source")
	}
	if g.IsDestination(mul) {
		t.Errorf("mul dispatch feeds func.return, so it should not be a destination")
	}
	if !g.IsDestination(wrappers[2]) {
		t.Errorf("func.return should be a destination")
	}
	succs := g.Successors(add)
	if len(succs) != 1 || succs[0] != mul {
		t.Errorf("add's successor = %v, want [mul]", succs)
	}
	preds := g.Predecessors(mul)
	if len(preds) != 1 || preds[0] != add {
		t.Errorf("mul's predecessor = %v, want [add]", preds)
	}
}

func TestPartitionedSingleComponent(t *testing.T) {
	wrappers := parseChain(t)
	g := NewGraph(wrappers)
	parts := Partitioned(g)
	if len(parts) != 1 {
		t.Fatalf("expected 1 connected component for a linear chain, got %d", len(parts))
	}
	if len(parts[0].Wrappers()) != 3 {
		t.Errorf("expected all three wrappers (add, mul, return) in the single component, got %d", len(parts[0].Wrappers()))
	}
}

func TestPathifySingleChainYieldsOneSequence(t *testing.T) {
	wrappers := parseChain(t)
	g := NewGraph(wrappers)
	seqs, err := Pathify(g, nil)
	if err != nil {
		t.Fatalf("Pathify: %v", err)
	}
	if len(seqs) != 1 {
		t.Fatalf("expected 1 sequence for a linear 2-hop chain, got %d", len(seqs))
	}
	if seqs[0].Len() != 3 {
		t.Fatalf("expected a 3-wrapper sequence (add, mul, return), got %d", seqs[0].Len())
	}
	if seqs[0].At(0).KernelName != "@add_kernel" || seqs[0].At(1).KernelName != "@mul_kernel" {
		t.Errorf("sequence order = %s, %s", seqs[0].At(0).KernelName, seqs[0].At(1).KernelName)
	}
}

func TestSequenceScopeQueries(t *testing.T) {
	wrappers := parseChain(t)
	seq := NewSequence(wrappers)
	if !seq.IsSource(wrappers[0]) {
		t.Errorf("first wrapper in sequence order should be a source")
	}
	if !seq.IsDestination(wrappers[len(wrappers)-1]) {
		t.Errorf("last wrapper in sequence order should be a destination")
	}
}
