// Package graph wraps IR ops into layout-policy-aware nodes, partitions them
// into connected subgraphs, decomposes each into linear sequences by
// repeated longest-path extraction, and runs the per-sequence dynamic
// program that picks a layout for every tensor value.
//
// Rather than classify wrappers with a lattice of Source/Destination/
// Intermediate × Input/Output mixins, a single category tag plus derived
// booleans serves the same purpose without the inheritance overhead.
package graph

import "github.com/layoutsched/layoutsched/ir"

// Wrapper lifts one IR op into a graph node. It carries no back-pointer to
// its owning Scope — predecessor/successor queries go through the Scope,
// keeping wrapper state free of shared mutable graph structure.
type Wrapper struct {
	Op       *ir.Op
	Category ir.Category

	// Kernel is the resolved kernel function for a Dispatch wrapper (nil
	// otherwise), resolved once at wrap time so the sequence DP can look up
	// KStat entries by kernel name without re-walking the module.
	Kernel     *ir.KernelFunc
	KernelName string
}

// Policy reports the wrapper's layout policy.
func (w *Wrapper) Policy() ir.SchedulePolicy { return w.Category.Policy() }

func (w *Wrapper) scheduleLayout() bool { return w.Policy() == ir.PolicySchedule }
func (w *Wrapper) forceLayout() bool    { return w.Policy() == ir.PolicyForce }
func (w *Wrapper) anyLayout() bool      { return w.Policy() == ir.PolicyAny }

// Wrap lifts every op in ops into a Wrapper, resolving Dispatch ops' kernel
// function against m so later KStat lookups can use the kernel's own name
// rather than the dispatch's module/export symbol pair.
func Wrap(m *ir.Module, ops []*ir.Op) []*Wrapper {
	out := make([]*Wrapper, len(ops))
	for i, op := range ops {
		w := &Wrapper{Op: op, Category: op.Mnemonic}
		if op.Mnemonic == ir.CategoryDispatch {
			if ex := m.FindExecutable(op.ModuleRef); ex != nil {
				w.Kernel = ex.Kernel
				w.KernelName = ex.Kernel.Name
			}
		}
		out[i] = w
	}
	return out
}

// graphInputs returns the subset of op's operands that form a graph edge:
// tensor-typed values produced by a non-constant op in the same op list.
// Block arguments (no producer) and constant producers carry no edge —
// constants are any-layout and zero-cost, so they never constrain a
// neighbour's schedule.
func graphInputs(op *ir.Op) []*ir.Value {
	var out []*ir.Value
	for _, v := range op.Operands {
		if v.IsTensor && v.Producer != nil && v.Producer.Mnemonic != ir.CategoryConstant {
			out = append(out, v)
		}
	}
	return out
}

// graphOutputs returns the subset of op's results that are ranked tensors.
func graphOutputs(op *ir.Op) []*ir.Value {
	var out []*ir.Value
	for _, v := range op.Results {
		if v.IsTensor {
			out = append(out, v)
		}
	}
	return out
}
