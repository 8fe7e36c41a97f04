// Package generator rewrites IR dispatches and globals to match a chosen
// Schedule: clone each distinct layout combination of a kernel into its own
// executable, point dispatches at the right clone, and permute global
// initial values to match the layout their consumer expects.
package generator

import (
	"fmt"
	"strings"

	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/layout"
	"github.com/layoutsched/layoutsched/schedule"
)

// Generate parses irText, applies sched, and renders the rewritten module
// back to text.
func Generate(irText string, sched schedule.Schedule) (string, error) {
	m, err := ir.Parse(irText)
	if err != nil {
		return "", fmt.Errorf("generator: %w", err)
	}
	fn, err := m.AsyncFunction()
	if err != nil {
		return "", fmt.Errorf("generator: %w", err)
	}

	table := NewKTable(m)
	for _, op := range fn.Ops {
		switch op.Mnemonic {
		case ir.CategoryDispatch:
			if err := rewriteDispatch(op, sched, table); err != nil {
				return "", fmt.Errorf("generator: %w", err)
			}
		case ir.CategoryGlobalLoad:
			if err := rewriteGlobal(m, op, sched); err != nil {
				return "", fmt.Errorf("generator: %w", err)
			}
		}
	}
	return ir.Print(m), nil
}

// rewriteDispatch collects the per-value layout tuple for op's operands
// then results (the canonical order, as established by the profiler and
// sequence DP), resolves it through the KTable, and rewrites the dispatch's
// callee in place.
func rewriteDispatch(op *ir.Op, sched schedule.Schedule, table *KTable) error {
	kernelName, layouts, err := dispatchLayouts(op, sched, table)
	if err != nil {
		return err
	}
	ref, err := table.Get(kernelName, layouts)
	if err != nil {
		return err
	}
	old := op.ModuleRef + "::" + op.EntryRef
	replacement := ref.ModuleRef + "::" + ref.EntryRef
	op.Raw = strings.Replace(op.Raw, old, replacement, 1)
	op.ModuleRef = ref.ModuleRef
	op.EntryRef = ref.EntryRef
	return nil
}

func dispatchLayouts(op *ir.Op, sched schedule.Schedule, table *KTable) (string, []layout.Layout, error) {
	orig := table.m.FindExecutable(op.ModuleRef)
	if orig == nil {
		return "", nil, fmt.Errorf("dispatch references unknown executable %q", op.ModuleRef)
	}
	kernelName := orig.Kernel.Name

	layouts := make([]layout.Layout, 0, len(op.Operands)+len(op.Results))
	for _, v := range op.Operands {
		layouts = append(layouts, valueLayout(v, sched))
	}
	for _, v := range op.Results {
		layouts = append(layouts, valueLayout(v, sched))
	}
	return kernelName, layouts, nil
}

// valueLayout looks up v's scheduled layout, falling back to the identity
// permutation for any tensor value the analyzer left unassigned.
func valueLayout(v *ir.Value, sched schedule.Schedule) layout.Layout {
	if l, ok := sched.Get(v.Name); ok {
		return l
	}
	return layout.Default(v.Type.Shape.Rank())
}

// rewriteGlobal permutes a global's raw initial value to match the layout
// scheduled for the value its load produces.
func rewriteGlobal(m *ir.Module, op *ir.Op, sched schedule.Schedule) error {
	g := m.FindGlobal(op.GlobalRef)
	if g == nil {
		return fmt.Errorf("util.global.load references unknown global %q", op.GlobalRef)
	}
	l := valueLayout(op.Results[0], sched)
	g.InitialValue = TransposeBytes(g.InitialValue, g.Tensor.Shape, g.Tensor.DType, l)
	return nil
}
