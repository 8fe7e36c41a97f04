package ir

import "fmt"

// Value is an SSA value: either a tensor (in which case Type is populated)
// or an opaque non-tensor value (buffer views, indices, …) which the graph
// layer never treats as a layout-bearing input/output.
type Value struct {
	Name     string
	IsTensor bool
	Type     TensorType
	RawType  string // original type text, used for non-tensor values and printing

	// Producer is the op whose result this value is, or nil for a block
	// argument. Pointer identity on *Op doubles as a stable identity for
	// dataflow comparisons elsewhere in the pipeline.
	Producer *Op
}

func (v *Value) String() string { return v.Name }

// Op is one line of the dataflow body: a dispatch, a tensor plumbing op, or
// the function terminator. See parse.go for the textual grammar and
// category.go for the category-driven layout policy.
type Op struct {
	Mnemonic Category
	Results  []*Value
	Operands []*Value

	// TiedOperands maps a result index to the operand index it aliases in
	// storage, leaving it absent if untied.
	TiedOperands map[int]int

	// ModuleRef/EntryRef identify the callee of a Dispatch op ("@mod::@kernel").
	ModuleRef string
	EntryRef  string

	// GlobalRef identifies the referenced global of a GlobalLoad op.
	GlobalRef string

	// Raw is the original source line, used by Print to emit an unchanged
	// op verbatim and by the generator to do targeted substring rewrites
	// (entry-point symbol, attribute additions) rather than a full reprint.
	Raw string
}

// Attrs holds attribute key/value pairs attached to a kernel function
// (the fluidml.<i> layout annotations written by the generator, read back
// by the profiler harness).
type Attrs map[string]string

// KernelFunc is the single function contained in an Executable.
type KernelFunc struct {
	Name    string
	Args    []DispatchTensorType
	Attrs   Attrs
	RawBody []string // opaque kernel body lines, preserved verbatim
}

// ResultTypes returns the writeonly argument types, in declaration order:
// a kernel function's results are its writeonly dispatch-tensor arguments.
func (k *KernelFunc) ResultTypes() []DispatchTensorType {
	var out []DispatchTensorType
	for _, a := range k.Args {
		if a.Access == WriteOnly {
			out = append(out, a)
		}
	}
	return out
}

// InputTypes returns the readonly/readwrite argument types, in declaration order.
func (k *KernelFunc) InputTypes() []DispatchTensorType {
	var out []DispatchTensorType
	for _, a := range k.Args {
		if a.Access == ReadOnly || a.Access == ReadWrite {
			out = append(out, a)
		}
	}
	return out
}

// LayoutAttr returns the parsed array<i64: ...> layout for arg index i, if present.
func (a Attrs) LayoutAttr(i int) ([]int, bool) {
	return ParseLayoutAttr(a, i)
}

// Executable wraps a single kernel function plus its export symbol.
type Executable struct {
	Name       string
	ExportName string
	Kernel     *KernelFunc
}

// Global is a module-level constant tensor with a raw byte initial value.
type Global struct {
	Name         string
	Tensor       TensorType
	InitialValue []byte // row-major, little-endian per-element encoding
}

// FuncArg is a top-level function block argument.
type FuncArg struct {
	Name    string
	RawType string
}

// Function is a top-level function op: the async entry function, or (rarely)
// a second candidate AsyncFunction must disambiguate by name.
type Function struct {
	Name    string
	Args    []FuncArg
	Results []string // raw result types
	Ops     []*Op
}

// Module is the parsed IR: module attributes, globals, executables and
// top-level functions, in source order.
type Module struct {
	Attrs       map[string]string
	Globals     []*Global
	Executables []*Executable
	Functions   []*Function
}

// FindGlobal returns the global named name, or nil.
func (m *Module) FindGlobal(name string) *Global {
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// FindExecutable returns the executable named name, or nil.
func (m *Module) FindExecutable(name string) *Executable {
	for _, e := range m.Executables {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// AsyncFunction resolves the single async entry function: if there are two
// function candidates, the one whose symbol ends in "$async" wins; any
// other count is an ambiguous-entry-function error.
func (m *Module) AsyncFunction() (*Function, error) {
	switch len(m.Functions) {
	case 1:
		return m.Functions[0], nil
	case 2:
		var async *Function
		for _, f := range m.Functions {
			if hasAsyncSuffix(f.Name) {
				if async != nil {
					return nil, fmt.Errorf("ir: %w: two functions both end in $async", ErrAmbiguousEntryFunction)
				}
				async = f
			}
		}
		if async == nil {
			return nil, fmt.Errorf("ir: %w: neither of two functions ends in $async", ErrAmbiguousEntryFunction)
		}
		return async, nil
	default:
		return nil, fmt.Errorf("ir: %w: %d candidate functions", ErrAmbiguousEntryFunction, len(m.Functions))
	}
}

func hasAsyncSuffix(name string) bool {
	const suffix = "$async"
	return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
}
