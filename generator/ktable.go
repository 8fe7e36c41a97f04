package generator

import (
	"fmt"
	"strings"

	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/layout"
)

// cloneRef identifies a cloned executable's dispatch target: module symbol
// and export symbol.
type cloneRef struct {
	ModuleRef string
	EntryRef  string
}

// KTable memoises (kernel_name, layouts) → clone, inserting a freshly
// renamed copy of the matching executable into m on a miss.
type KTable struct {
	m     *ir.Module
	table map[string]map[string]cloneRef
}

// NewKTable builds a KTable over m. Clones it creates are prepended to
// m.Executables, ahead of every executable present at construction time.
func NewKTable(m *ir.Module) *KTable {
	return &KTable{m: m, table: map[string]map[string]cloneRef{}}
}

// Get returns the clone dispatch target for kernelName under layouts,
// creating the clone the first time this (kernel, layouts) pair is seen.
func (t *KTable) Get(kernelName string, layouts []layout.Layout) (cloneRef, error) {
	key := layoutsKey(layouts)
	byLayout, ok := t.table[kernelName]
	if !ok {
		byLayout = map[string]cloneRef{}
		t.table[kernelName] = byLayout
	}
	if ref, ok := byLayout[key]; ok {
		return ref, nil
	}

	orig := t.findByKernelName(kernelName)
	if orig == nil {
		return cloneRef{}, fmt.Errorf("generator: no executable defines kernel %q", kernelName)
	}
	asm := layoutAsm(layouts)
	clone := cloneExecutable(orig, asm, layouts)
	t.m.Executables = append([]*ir.Executable{clone}, t.m.Executables...)

	ref := cloneRef{ModuleRef: clone.Name, EntryRef: clone.ExportName}
	byLayout[key] = ref
	return ref, nil
}

func (t *KTable) findByKernelName(kernelName string) *ir.Executable {
	for _, e := range t.m.Executables {
		if e.Kernel.Name == kernelName {
			return e
		}
	}
	return nil
}

// cloneExecutable renames orig's module, export and kernel symbols to
// "<orig>_<asm>" (the export symbol and target kernel symbol are the same
// new name, matching the original generator's behaviour) and stamps the
// kernel with one fluidml.<i> attribute per layout.
func cloneExecutable(orig *ir.Executable, asm string, layouts []layout.Layout) *ir.Executable {
	newModName := orig.Name + "_" + asm
	newKernelName := orig.Kernel.Name + "_" + asm

	attrs := make(ir.Attrs, len(orig.Kernel.Attrs)+len(layouts))
	for k, v := range orig.Kernel.Attrs {
		attrs[k] = v
	}
	for i, l := range layouts {
		attrs[ir.FluidMLAttrName(i)] = ir.FormatLayoutAttr(l)
	}

	args := make([]ir.DispatchTensorType, len(orig.Kernel.Args))
	copy(args, orig.Kernel.Args)
	body := make([]string, len(orig.Kernel.RawBody))
	copy(body, orig.Kernel.RawBody)

	kernel := &ir.KernelFunc{
		Name:    newKernelName,
		Args:    args,
		Attrs:   attrs,
		RawBody: body,
	}
	return &ir.Executable{Name: newModName, ExportName: newKernelName, Kernel: kernel}
}

// layoutAsm renders layouts as "<dims>_<dims>...": dims within a layout
// joined by "x", layouts joined by "_".
func layoutAsm(layouts []layout.Layout) string {
	parts := make([]string, len(layouts))
	for i, l := range layouts {
		parts[i] = l.String()
	}
	return strings.Join(parts, "_")
}

func layoutsKey(layouts []layout.Layout) string {
	parts := make([]string, len(layouts))
	for i, l := range layouts {
		parts[i] = l.Key()
	}
	return strings.Join(parts, "|")
}
