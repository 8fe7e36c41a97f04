package analyzer

import (
	"fmt"
	"sort"

	"github.com/layoutsched/layoutsched/graph"
	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/kstat"
	"github.com/layoutsched/layoutsched/layout"
	"github.com/layoutsched/layoutsched/schedule"
)

// saving is one schedule-layout wrapper's opportunity: how much time its
// best measured layout combination saves over the default (identity)
// layout.
type saving struct {
	wrapper     *graph.Wrapper
	bestLayouts kstat.Tuple
	amount      float64
}

// runGreedy ranks every schedule-layout wrapper by the time its best layout
// combination saves over the default, then commits best-layout assignments
// greatest-saving-first, never overwriting an arg a bigger saving already
// claimed.
func runGreedy(wrappers []*graph.Wrapper, ks *kstat.KStat) (schedule.Schedule, error) {
	var savings []saving
	for _, w := range wrappers {
		if w.Policy() != ir.PolicySchedule {
			continue
		}
		entries := ks.Entries(w.KernelName)
		if len(entries) == 0 {
			return nil, fmt.Errorf("analyzer: %w: kernel %q has no kstat entries", graph.ErrKStatMiss, w.KernelName)
		}
		defaultLayouts := defaultTupleFor(w)
		defaultTime, ok := ks.Get(w.KernelName, defaultLayouts)
		if !ok {
			return nil, fmt.Errorf("analyzer: %w: kernel %q missing its default-layout entry", graph.ErrKStatMiss, w.KernelName)
		}
		best := entries[0]
		for _, e := range entries[1:] {
			if e.TimeNs < best.TimeNs {
				best = e
			}
		}
		savings = append(savings, saving{wrapper: w, bestLayouts: best.Layouts, amount: defaultTime - best.TimeNs})
	}

	sort.SliceStable(savings, func(i, j int) bool { return savings[i].amount > savings[j].amount })

	sched := schedule.New()
	for _, s := range savings {
		for idx, name := range argNames(s.wrapper) {
			if _, exists := sched.Get(name); exists {
				continue
			}
			sched.Set(name, s.bestLayouts[idx])
		}
	}
	return sched, nil
}

// argNames returns w's tensor arg names in the canonical per-arg order
// (operands then results) matching a KStat Tuple's positions.
func argNames(w *graph.Wrapper) []string {
	names := make([]string, 0, len(w.Op.Operands)+len(w.Op.Results))
	for _, v := range w.Op.Operands {
		names = append(names, v.Name)
	}
	for _, v := range w.Op.Results {
		names = append(names, v.Name)
	}
	return names
}

func defaultTupleFor(w *graph.Wrapper) kstat.Tuple {
	var t kstat.Tuple
	for _, a := range w.Kernel.InputTypes() {
		t = append(t, layout.Default(a.Tensor.Shape.Rank()))
	}
	for _, a := range w.Kernel.ResultTypes() {
		t = append(t, layout.Default(a.Tensor.Shape.Rank()))
	}
	return t
}
