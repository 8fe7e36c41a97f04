package profiler

import (
	"context"
	"strings"
	"testing"
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

func testConfig() Config {
	return Config{Times: 10, WorkerNum: 4, Driver: "fake", Debug: true}
}

func TestProfileMeasuresEveryLayoutCombination(t *testing.T) {
	backend := &FakeBackend{Debug: true}
	k, err := Profile(context.Background(), oneKernelModule, testConfig(), backend, backend)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	// [2,3] has 2! permutations; two args (input, output) -> 4 combinations.
	if got, want := k.Len("@add_kernel"), 4; got != want {
		t.Errorf("kstat entries for @add_kernel = %d, want %d", got, want)
	}
}

func TestProfileDropsRejectedCombinationsButKeepsTheRest(t *testing.T) {
	rejectedOnce := false
	backend := &FakeBackend{
		Debug: true,
		Reject: func(irText string) bool {
			// Reject exactly one combination: the first one containing
			// fluidml.1 = array<i64: 1, 0> (an arbitrary, deterministic pick).
			if !rejectedOnce && strings.Contains(irText, "fluidml.1 = array<i64: 1, 0>") {
				rejectedOnce = true
				return true
			}
			return false
		},
	}
	k, err := Profile(context.Background(), oneKernelModule, testConfig(), backend, backend)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if got, want := k.Len("@add_kernel"), 3; got != want {
		t.Errorf("kstat entries for @add_kernel = %d, want %d (one dropped)", got, want)
	}
}

func TestProfileEmptyModuleYieldsEmptyKStat(t *testing.T) {
	backend := &FakeBackend{Debug: true}
	k, err := Profile(context.Background(), "module {\n}\n", testConfig(), backend, backend)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if got := len(k.Kernels()); got != 0 {
		t.Errorf("kernels = %d, want 0", got)
	}
}
