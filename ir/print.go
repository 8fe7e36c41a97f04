package ir

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Print renders a Module back to the textual grammar Parse accepts.
// Op bodies are emitted from each Op's Raw text, rewritten as needed by the
// generator (see rewriteDispatch in the generator package) — this
// keeps source order and untouched ops byte-identical to the input, modulo
// any attribute additions the generator made.
func Print(m *Module) string {
	var b strings.Builder
	b.WriteString("module")
	if len(m.Attrs) > 0 {
		b.WriteString(" attributes ")
		b.WriteString(formatAttrDict(sortedKeys(m.Attrs), m.Attrs))
	}
	b.WriteString(" {\n")
	for _, g := range m.Globals {
		printGlobal(&b, g)
	}
	for _, e := range m.Executables {
		printExecutable(&b, e)
	}
	for _, f := range m.Functions {
		printFunction(&b, f)
	}
	b.WriteString("}\n")
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printGlobal(b *strings.Builder, g *Global) {
	fmt.Fprintf(b, "  util.global private %s : %s = dense<\"%s\">\n",
		g.Name, g.Tensor, hex.EncodeToString(g.InitialValue))
}

func printExecutable(b *strings.Builder, e *Executable) {
	fmt.Fprintf(b, "  executable private %s {\n", e.Name)
	printKernelFunc(b, e.Kernel)
	fmt.Fprintf(b, "    flow.executable.export public %s\n", e.ExportName)
	b.WriteString("  }\n")
}

func printKernelFunc(b *strings.Builder, k *KernelFunc) {
	args := make([]string, len(k.Args))
	for i, a := range k.Args {
		args[i] = fmt.Sprintf("%%arg%d: %s", i, a)
	}
	b.WriteString("    func.func @" + strings.TrimPrefix(k.Name, "@") + "(" + strings.Join(args, ", ") + ")")
	if len(k.Attrs) > 0 {
		b.WriteString(" attributes " + formatAttrDict(sortedFluidMLKeys(k.Attrs), k.Attrs))
	}
	b.WriteString(" {\n")
	for _, l := range k.RawBody {
		b.WriteString("      " + l + "\n")
	}
	b.WriteString("    }\n")
}

// sortedFluidMLKeys sorts fluidml.<i> attribute keys numerically by index
// rather than lexically, so fluidml.10 doesn't sort before fluidml.2.
func sortedFluidMLKeys(attrs Attrs) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fluidMLIndex(keys[i]) < fluidMLIndex(keys[j])
	})
	return keys
}

func fluidMLIndex(key string) int {
	var n int
	fmt.Sscanf(key, "fluidml.%d", &n)
	return n
}

func printFunction(b *strings.Builder, f *Function) {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.Name + ": " + a.RawType
	}
	b.WriteString("  func.func " + f.Name + "(" + strings.Join(args, ", ") + ")")
	if len(f.Results) > 0 {
		b.WriteString(" -> (" + strings.Join(f.Results, ", ") + ")")
	}
	b.WriteString(" {\n")
	for _, op := range f.Ops {
		b.WriteString("    " + op.Raw + "\n")
	}
	b.WriteString("  }\n")
}
