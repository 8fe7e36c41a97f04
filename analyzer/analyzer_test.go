package analyzer

import (
	"context"
	"testing"

	"github.com/layoutsched/layoutsched/kstat"
	"github.com/layoutsched/layoutsched/profiler"
)

const chainModule = `module {
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

func buildKStat(t *testing.T) *kstat.KStat {
	t.Helper()
	backend := &profiler.FakeBackend{Debug: true}
	k, err := profiler.Profile(context.Background(), chainModule, profiler.Config{Times: 5, WorkerNum: 4, Driver: "fake", Debug: true}, backend, backend)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	return k
}

func TestAnalyzeDPCoversEveryValue(t *testing.T) {
	k := buildKStat(t)
	sched, err := Analyze(chainModule, k, ModeDP)
	if err != nil {
		t.Fatalf("Analyze(dp): %v", err)
	}
	for _, name := range []string{"%x", "%r0", "%r1"} {
		if _, ok := sched.Get(name); !ok {
			t.Errorf("dp schedule missing layout for %s", name)
		}
	}
}

func TestAnalyzeGreedyCoversEveryValue(t *testing.T) {
	k := buildKStat(t)
	sched, err := Analyze(chainModule, k, ModeGreedy)
	if err != nil {
		t.Fatalf("Analyze(greedy): %v", err)
	}
	for _, name := range []string{"%x", "%r0", "%r1"} {
		if _, ok := sched.Get(name); !ok {
			t.Errorf("greedy schedule missing layout for %s", name)
		}
	}
}

func TestAnalyzeUnknownModeErrors(t *testing.T) {
	k := buildKStat(t)
	if _, err := Analyze(chainModule, k, Mode("bogus")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
