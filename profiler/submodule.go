package profiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/layout"
)

// buildSubModule assembles a standalone sub-module containing just the
// module's attributes, the single executable, and the one global its kernel
// body references (if any).
func buildSubModule(m *ir.Module, ex *ir.Executable) string {
	sub := &ir.Module{Attrs: m.Attrs, Executables: []*ir.Executable{ex}}
	if g := referencedGlobal(m, ex); g != nil {
		sub.Globals = []*ir.Global{g}
	}
	return ir.Print(sub)
}

var globalLoadRefRe = regexp.MustCompile(`util\.global\.load\s+(@\S+)\s*:`)

// referencedGlobal scans a kernel body for a util.global.load reference and
// resolves it against the owning module. Kernel bodies are opaque
// (RawBody) in this grammar, so a textual scan is the only option; real
// kernels rarely reference globals directly, but the sub-module builder
// honours it when they do.
func referencedGlobal(m *ir.Module, ex *ir.Executable) *ir.Global {
	for _, line := range ex.Kernel.RawBody {
		if mm := globalLoadRefRe.FindStringSubmatch(line); mm != nil {
			if g := m.FindGlobal(mm[1]); g != nil {
				return g
			}
		}
	}
	return nil
}

// kernelInfo is the (kernel_name, mod_name, input_types, result_types)
// extracted from a reparsed sub-module's single executable.
type kernelInfo struct {
	kernelName string
	modName    string
	entryRef   string
	inputs     []ir.DispatchTensorType
	results    []ir.DispatchTensorType
}

func extractKernelInfo(sub *ir.Module) (kernelInfo, error) {
	if len(sub.Executables) != 1 {
		return kernelInfo{}, fmt.Errorf("profiler: sub-module has %d executables, want 1", len(sub.Executables))
	}
	ex := sub.Executables[0]
	return kernelInfo{
		kernelName: ex.Kernel.Name,
		modName:    ex.Name,
		entryRef:   ex.ExportName,
		inputs:     ex.Kernel.InputTypes(),
		results:    ex.Kernel.ResultTypes(),
	}, nil
}

// synthesizeEntryFunction builds the invoke_<kernel>$async function:
// imports each input as a ranked tensor, dispatches to the kernel, exports
// each result as a buffer_view.
func synthesizeEntryFunction(info kernelInfo) *ir.Function {
	kernelShort := strings.TrimPrefix(info.kernelName, "@")
	funcName := "@invoke_" + kernelShort + "$async"

	var args []ir.FuncArg
	var ops []*ir.Op
	var importVars []string
	for i, t := range info.inputs {
		arg := fmt.Sprintf("%%in%d", i)
		args = append(args, ir.FuncArg{Name: arg, RawType: "!hal.buffer_view"})
		v := fmt.Sprintf("%%v%d", i)
		ops = append(ops, &ir.Op{Raw: fmt.Sprintf(
			"%s = flow.tensor.import %s : !hal.buffer_view -> %s", v, arg, t.Tensor)})
		importVars = append(importVars, v)
	}

	var resultVars, resultTypeStrs []string
	for i := range info.results {
		resultVars = append(resultVars, fmt.Sprintf("%%r%d", i))
		resultTypeStrs = append(resultTypeStrs, info.results[i].Tensor.String())
	}
	var inputTypeStrs []string
	for _, t := range info.inputs {
		inputTypeStrs = append(inputTypeStrs, t.Tensor.String())
	}
	ops = append(ops, &ir.Op{Raw: fmt.Sprintf("%s = flow.dispatch %s::%s(%s) : (%s) -> (%s)",
		strings.Join(resultVars, ", "), info.modName, info.entryRef,
		strings.Join(importVars, ", "), strings.Join(inputTypeStrs, ", "), strings.Join(resultTypeStrs, ", "))})

	var exportVars, results []string
	for i, t := range info.results {
		ev := fmt.Sprintf("%%out%d", i)
		ops = append(ops, &ir.Op{Raw: fmt.Sprintf(
			"%s = flow.tensor.export %s : %s -> !hal.buffer_view", ev, resultVars[i], t.Tensor)})
		exportVars = append(exportVars, ev)
		results = append(results, "!hal.buffer_view")
	}
	ops = append(ops, &ir.Op{Raw: fmt.Sprintf("func.return %s : %s",
		strings.Join(exportVars, ", "), strings.Join(results, ", "))})

	return &ir.Function{Name: funcName, Args: args, Results: results, Ops: ops}
}

// argShapes returns the shapes in the canonical per-arg order used
// everywhere a (kernel, layouts) tuple is keyed: inputs first, then results,
// mirroring the generator's operand-then-result KTable lookup. This is NOT
// necessarily the kernel's raw declaration order when the signature
// interleaves readonly and writeonly args.
func argShapes(info kernelInfo) []ir.Shape {
	shapes := make([]ir.Shape, 0, len(info.inputs)+len(info.results))
	for _, t := range info.inputs {
		shapes = append(shapes, t.Tensor.Shape)
	}
	for _, t := range info.results {
		shapes = append(shapes, t.Tensor.Shape)
	}
	return shapes
}

// layoutCombinations returns every element of the Cartesian product of
// permute_shape(s) for s ranging over shapes, in argument order.
func layoutCombinations(shapes []ir.Shape) [][]layout.Layout {
	perArg := make([][]layout.Layout, len(shapes))
	for i, s := range shapes {
		perArg[i] = layout.All(s)
	}
	combos := [][]layout.Layout{{}}
	for _, options := range perArg {
		var next [][]layout.Layout
		for _, prefix := range combos {
			for _, opt := range options {
				combo := make([]layout.Layout, len(prefix)+1)
				copy(combo, prefix)
				combo[len(prefix)] = opt
				next = append(next, combo)
			}
		}
		combos = next
	}
	return combos
}

// annotateLayouts returns a clone of k with fluidml.<i> attributes set from
// combo, one per argument.
func annotateLayouts(k *ir.KernelFunc, combo []layout.Layout) *ir.KernelFunc {
	clone := *k
	attrs := make(ir.Attrs, len(k.Attrs)+len(combo))
	for key, v := range k.Attrs {
		attrs[key] = v
	}
	for i, l := range combo {
		attrs = ir.SetLayoutAttr(attrs, i, []int(l))
	}
	clone.Attrs = attrs
	return &clone
}
