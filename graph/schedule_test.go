package graph

import (
	"testing"

	"github.com/layoutsched/layoutsched/kstat"
	"github.com/layoutsched/layoutsched/layout"
)

// buildChainKStat hand-populates a KStat for the chain fixture's two
// rank-2 kernels so the DP's choice is deterministic and known ahead of
// time: add_kernel is fastest transposed, mul_kernel is fastest identity,
// and the shared edge value %r0 must reconcile the two.
func buildChainKStat() *kstat.KStat {
	ks := kstat.New()
	id := layout.Default(2)
	t := layout.Layout{1, 0}

	ks.Set("@add_kernel", kstat.Tuple{id, id}, 100)
	ks.Set("@add_kernel", kstat.Tuple{id, t}, 10)
	ks.Set("@mul_kernel", kstat.Tuple{id, id}, 5)
	ks.Set("@mul_kernel", kstat.Tuple{t, id}, 50)
	return ks
}

func TestSequenceScheduleCoversEveryValue(t *testing.T) {
	wrappers := parseChain(t)
	seq := NewSequence(wrappers)
	ks := buildChainKStat()

	group, err := seq.Schedule(ks)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(group) == 0 {
		t.Fatal("expected at least one terminal schedule")
	}
	for _, sched := range group {
		for _, name := range []string{"%x", "%r0", "%r1"} {
			if _, ok := sched.Get(name); !ok {
				t.Errorf("schedule missing value %q: %v", name, sched)
			}
		}
	}
}

func TestSequenceScheduleMissingKStatErrors(t *testing.T) {
	wrappers := parseChain(t)
	seq := NewSequence(wrappers)
	if _, err := seq.Schedule(kstat.New()); err == nil {
		t.Fatal("expected ErrKStatMiss on an empty KStat")
	}
}
