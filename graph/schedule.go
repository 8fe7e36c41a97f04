package graph

import (
	"fmt"
	"sort"

	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/kstat"
	"github.com/layoutsched/layoutsched/layout"
	"github.com/layoutsched/layoutsched/schedule"
)

// ScheduleGroup is every candidate Schedule a sequence's DP produced — one
// per terminal output layout tied for the minimum total time. Reconciling
// disagreements between them, and between sequences, is schedule.Merge's
// job (majority across the union of every Schedule in every sequence's
// group — see the doc comment on Sequence.Schedule for how terminal ties
// are deferred to that single merge).
type ScheduleGroup []schedule.Schedule

// ErrKStatMiss marks the DP reaching a wrapper whose in-scope predecessor's
// chosen output layout has no surviving transition: every KStat entry for
// that edge layout was dropped (compile failure) or never measured.
var ErrKStatMiss = fmt.Errorf("graph: no feasible transition in sequence DP")

// Schedule runs the per-sequence layout-selection dynamic program and
// returns every tied-optimal Schedule.
//
// Majority resolution happens on two levels, deliberately kept separate
// rather than collapsed into one pass: level one resolves a single
// wrapper's non-edge arg ties locally, using only the ties observed in its
// winning (input,output) group. Level two is deferred entirely: every
// terminal tie this sequence produces is returned as a separate Schedule in
// the group rather than pre-merged, so that disagreements — both across a
// sequence's own terminal ties and across different sequences entirely —
// are resolved by one single schedule.Merge majority vote at the outer
// orchestration layer.
func (s *Sequence) Schedule(ks *kstat.KStat) (ScheduleGroup, error) {
	n := s.Len()
	if n == 0 {
		return nil, nil
	}

	scopeIn := make([]*ir.Value, n)
	scopeOut := make([]*ir.Value, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			scopeIn[i] = sharedValue(s.At(i-1), s.At(i))
		} else {
			scopeIn[i] = soleExternalInput(s.At(i))
		}
		if i < n-1 {
			scopeOut[i] = sharedValue(s.At(i), s.At(i+1))
		} else {
			scopeOut[i] = soleExternalOutput(s.At(i))
		}
	}

	choicesPerWrapper := make([][]dpChoice, n)
	for i := 0; i < n; i++ {
		cs, err := wrapperChoices(s.At(i), scopeIn[i], scopeOut[i], ks)
		if err != nil {
			return nil, err
		}
		choicesPerWrapper[i] = cs
	}

	tables := make([]map[string]*windCell, n)
	tables[0] = map[string]*windCell{}
	for _, c := range choicesPerWrapper[0] {
		key := layoutKey(c.outLayout)
		if cur, ok := tables[0][key]; !ok || c.cost < cur.cumTime {
			tables[0][key] = &windCell{cumTime: c.cost, inLayout: c.inLayout, outLayout: c.outLayout, argLayouts: c.argLayouts}
		}
	}
	for i := 1; i < n; i++ {
		tables[i] = map[string]*windCell{}
		for _, c := range choicesPerWrapper[i] {
			prev, ok := tables[i-1][layoutKey(c.inLayout)]
			if !ok {
				continue
			}
			total := prev.cumTime + c.cost
			key := layoutKey(c.outLayout)
			if cur, ok := tables[i][key]; !ok || total < cur.cumTime {
				tables[i][key] = &windCell{cumTime: total, inLayout: c.inLayout, outLayout: c.outLayout, argLayouts: c.argLayouts}
			}
		}
		if len(tables[i]) == 0 {
			return nil, fmt.Errorf("%w: kernel %q", ErrKStatMiss, s.At(i).KernelName)
		}
	}

	last := tables[n-1]
	var minTotal float64
	found := false
	for _, cell := range last {
		if !found || cell.cumTime < minTotal {
			minTotal = cell.cumTime
			found = true
		}
	}
	var terminalKeys []string
	for key, cell := range last {
		if cell.cumTime == minTotal {
			terminalKeys = append(terminalKeys, key)
		}
	}
	sort.Strings(terminalKeys)

	group := make(ScheduleGroup, 0, len(terminalKeys))
	for _, terminalKey := range terminalKeys {
		sched := schedule.New()
		key := terminalKey
		for i := n - 1; i >= 0; i-- {
			cell := tables[i][key]
			if scopeOut[i] != nil {
				sched.Set(scopeOut[i].Name, cell.outLayout)
			}
			if scopeIn[i] != nil {
				sched.Set(scopeIn[i].Name, cell.inLayout)
			}
			for name, l := range cell.argLayouts {
				if _, exists := sched.Get(name); !exists {
					sched.Set(name, l)
				}
			}
			key = layoutKey(cell.inLayout)
		}
		group = append(group, sched)
	}
	return group, nil
}

type windCell struct {
	cumTime    float64
	inLayout   layout.Layout
	outLayout  layout.Layout
	argLayouts map[string]layout.Layout
}

type dpChoice struct {
	inLayout   layout.Layout
	outLayout  layout.Layout
	cost       float64
	argLayouts map[string]layout.Layout
}

// layoutKey renders a (possibly nil, for a placeholder scope boundary)
// layout as a stable map key.
func layoutKey(l layout.Layout) string {
	if l == nil {
		return "<none>"
	}
	return l.Key()
}

// sharedValue returns the tensor value produced by a and consumed as an
// operand of b, or nil if there is none (a and b are adjacent in the
// sequence, so pathify guarantees at least one such edge; if more than one
// exists the first found wins, deterministically, by a's result order).
func sharedValue(a, b *Wrapper) *ir.Value {
	for _, v := range graphOutputs(a.Op) {
		for _, operand := range b.Op.Operands {
			if operand == v {
				return v
			}
		}
	}
	return nil
}

// soleExternalInput returns w's first graph input not produced in-sequence,
// or nil.
func soleExternalInput(w *Wrapper) *ir.Value {
	in := graphInputs(w.Op)
	if len(in) == 0 {
		return nil
	}
	return in[0]
}

// soleExternalOutput returns w's first tensor result, or nil.
func soleExternalOutput(w *Wrapper) *ir.Value {
	out := graphOutputs(w.Op)
	if len(out) == 0 {
		return nil
	}
	return out[0]
}

// wrapperChoices builds the per-(input_layout, output_layout) choice set
// for w.
func wrapperChoices(w *Wrapper, scopeIn, scopeOut *ir.Value, ks *kstat.KStat) ([]dpChoice, error) {
	switch w.Policy() {
	case ir.PolicySchedule:
		return scheduleLayoutChoices(w, scopeIn, scopeOut, ks)
	case ir.PolicyForce:
		return forceLayoutChoices(w, scopeIn, scopeOut), nil
	default:
		return anyLayoutChoices(w, scopeIn, scopeOut), nil
	}
}

func scheduleLayoutChoices(w *Wrapper, scopeIn, scopeOut *ir.Value, ks *kstat.KStat) ([]dpChoice, error) {
	entries := ks.Entries(w.KernelName)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: kernel %q has no kstat entries", ErrKStatMiss, w.KernelName)
	}
	inIdx := dispatchArgIndex(w, scopeIn)
	outIdx := dispatchArgIndex(w, scopeOut)

	type groupKey struct{ in, out string }
	minTime := map[groupKey]float64{}
	groupLayouts := map[groupKey][2]layout.Layout{}
	keyFor := func(e kstat.Entry) (groupKey, layout.Layout, layout.Layout) {
		var inL, outL layout.Layout
		if inIdx >= 0 {
			inL = e.Layouts[inIdx]
		}
		if outIdx >= 0 {
			outL = e.Layouts[outIdx]
		}
		return groupKey{layoutKey(inL), layoutKey(outL)}, inL, outL
	}
	for _, e := range entries {
		gk, inL, outL := keyFor(e)
		if cur, ok := minTime[gk]; !ok || e.TimeNs < cur {
			minTime[gk] = e.TimeNs
			groupLayouts[gk] = [2]layout.Layout{inL, outL}
		}
	}
	ties := map[groupKey]map[string][]layout.Layout{}
	for _, e := range entries {
		gk, _, _ := keyFor(e)
		if e.TimeNs != minTime[gk] {
			continue
		}
		if ties[gk] == nil {
			ties[gk] = map[string][]layout.Layout{}
		}
		for idx, l := range e.Layouts {
			if idx == inIdx || idx == outIdx {
				continue
			}
			name := dispatchArgName(w, idx)
			ties[gk][name] = append(ties[gk][name], l)
		}
	}

	choices := make([]dpChoice, 0, len(minTime))
	for gk, cost := range minTime {
		layouts := groupLayouts[gk]
		resolved := map[string]layout.Layout{}
		for name, opts := range ties[gk] {
			resolved[name] = majorityLayout(opts)
		}
		choices = append(choices, dpChoice{inLayout: layouts[0], outLayout: layouts[1], cost: cost, argLayouts: resolved})
	}
	return choices, nil
}

func forceLayoutChoices(w *Wrapper, scopeIn, scopeOut *ir.Value) []dpChoice {
	resolved := map[string]layout.Layout{}
	for _, v := range allTensorValues(w.Op) {
		if v == scopeIn || v == scopeOut {
			continue
		}
		resolved[v.Name] = layout.Default(v.Type.Shape.Rank())
	}
	return []dpChoice{{
		inLayout:   defaultFor(scopeIn),
		outLayout:  defaultFor(scopeOut),
		cost:       0,
		argLayouts: resolved,
	}}
}

func anyLayoutChoices(w *Wrapper, scopeIn, scopeOut *ir.Value) []dpChoice {
	inOptions := permsFor(scopeIn)
	outOptions := permsFor(scopeOut)
	resolved := map[string]layout.Layout{}
	for _, v := range allTensorValues(w.Op) {
		if v == scopeIn || v == scopeOut {
			continue
		}
		resolved[v.Name] = layout.Default(v.Type.Shape.Rank())
	}
	choices := make([]dpChoice, 0, len(inOptions)*len(outOptions))
	for _, inL := range inOptions {
		for _, outL := range outOptions {
			choices = append(choices, dpChoice{inLayout: inL, outLayout: outL, cost: 0, argLayouts: resolved})
		}
	}
	return choices
}

func defaultFor(v *ir.Value) layout.Layout {
	if v == nil {
		return nil
	}
	return layout.Default(v.Type.Shape.Rank())
}

func permsFor(v *ir.Value) []layout.Layout {
	if v == nil {
		return []layout.Layout{nil}
	}
	return layout.All(v.Type.Shape)
}

// allTensorValues returns every tensor-typed operand and result of op.
func allTensorValues(op *ir.Op) []*ir.Value {
	var out []*ir.Value
	for _, v := range op.Operands {
		if v.IsTensor {
			out = append(out, v)
		}
	}
	for _, v := range op.Results {
		if v.IsTensor {
			out = append(out, v)
		}
	}
	return out
}

// dispatchArgIndex returns v's position in w's canonical per-arg order
// (operands then results), or -1 if v is nil or not one of w's args.
func dispatchArgIndex(w *Wrapper, v *ir.Value) int {
	if v == nil {
		return -1
	}
	for i, o := range w.Op.Operands {
		if o == v {
			return i
		}
	}
	for i, r := range w.Op.Results {
		if r == v {
			return len(w.Op.Operands) + i
		}
	}
	return -1
}

func dispatchArgName(w *Wrapper, idx int) string {
	n := len(w.Op.Operands)
	if idx < n {
		return w.Op.Operands[idx].Name
	}
	return w.Op.Results[idx-n].Name
}

// majorityLayout picks the most common layout in opts, breaking ties by
// first occurrence — the same merge policy schedule.Merge applies globally,
// applied here locally to a single wrapper's tied entries.
func majorityLayout(opts []layout.Layout) layout.Layout {
	type vote struct {
		layout layout.Layout
		count  int
		first  int
	}
	votes := map[string]*vote{}
	for i, l := range opts {
		key := l.Key()
		v, ok := votes[key]
		if !ok {
			v = &vote{layout: l, first: i}
			votes[key] = v
		}
		v.count++
	}
	var best *vote
	for _, v := range votes {
		if best == nil || v.count > best.count || (v.count == best.count && v.first < best.first) {
			best = v
		}
	}
	return best.layout
}
