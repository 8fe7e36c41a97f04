package profiler

import (
	"context"
	"errors"

	"github.com/layoutsched/layoutsched/ir"
)

// ErrCompileTool marks a kernel-layout combination the underlying compiler
// rejected. It is an expected, non-fatal failure mode — callers drop the
// combination and keep going rather than surfacing it.
var ErrCompileTool = errors.New("profiler: compiler rejected module")

// CompileOptions carries the driver name and any augmenting options the
// caller needs. The profiler adds compile-from=flow to Extra before calling
// Compile; no other driver-specific options are added.
type CompileOptions struct {
	Driver string
	Extra  map[string]string
}

// Compiler is the out-of-scope upstream compiler: only this interface
// matters here. It turns one textual IR sub-module into an opaque compiled
// artifact, or fails.
//
// Implementations MUST wrap tool-rejection failures (bad layout, unsupported
// op shape, etc.) in ErrCompileTool; any other returned error is treated as
// fatal and propagated to the driver.
type Compiler interface {
	Compile(ctx context.Context, irText string, opts CompileOptions) ([]byte, error)
}

// Value is one tensor argument or result passed across the Runtime boundary:
// a flat byte buffer plus the shape/dtype needed to interpret it.
type Value struct {
	Shape ir.Shape
	DType ir.DType
	Data  []byte
}

// Instance is a loaded, invokable compiled module bound to one runtime
// context. Instances are not safe for concurrent use, mirroring the
// compiler's own non-reentrancy.
type Instance interface {
	Invoke(ctx context.Context, entry string, inputs []Value) ([]Value, error)
	Close() error
}

// Runtime is the out-of-scope bytecode runtime: only this interface matters.
// Load binds a compiled artifact to a fresh context for one driver.
type Runtime interface {
	Load(ctx context.Context, compiled []byte, driver string) (Instance, error)
}
