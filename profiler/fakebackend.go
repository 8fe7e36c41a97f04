package profiler

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/layoutsched/layoutsched/ir"
)

// FakeBackend is a deterministic, in-process stand-in for the real
// Compiler/Runtime pair. The real compiler and runtime are external
// collaborators outside this repo's scope; this backend lets the profiler
// driver, the worker pool wiring, and package tests run without them, and
// also backs FLUIDML_DEBUG=1's "skip real measurement" mode.
//
// Compile-time rejection is simulated by Reject: a hook a caller can set to
// force specific (kernel, layouts) combinations through ErrCompileTool, the
// way a real compiler would reject an unsupported layout.
type FakeBackend struct {
	// Reject reports whether the sub-module text should fail compilation
	// with ErrCompileTool. Nil means nothing is ever rejected.
	Reject func(irText string) bool
	// Debug mirrors FLUIDML_DEBUG: every invocation takes zero time.
	Debug bool
}

// Compile implements Compiler. It never actually compiles anything; it just
// parses the sub-module to catch grammar errors and applies Reject.
func (b *FakeBackend) Compile(ctx context.Context, irText string, opts CompileOptions) ([]byte, error) {
	if _, err := ir.Parse(irText); err != nil {
		return nil, err
	}
	if b.Reject != nil && b.Reject(irText) {
		return nil, ErrCompileTool
	}
	return []byte(irText), nil
}

// Load implements Runtime.
func (b *FakeBackend) Load(ctx context.Context, compiled []byte, driver string) (Instance, error) {
	m, err := ir.Parse(string(compiled))
	if err != nil {
		return nil, err
	}
	return &fakeInstance{module: m, debug: b.Debug}, nil
}

type fakeInstance struct {
	module *ir.Module
	debug  bool
}

// Invoke echoes its inputs back as outputs after sleeping for a synthetic
// latency (no sleep in debug mode). The latency is a hash of the entry name
// and the inputs' bytes and shapes; the fluidml.<i> layout annotation is not
// part of it, so combinations invoked with identical inputs measure the same.
func (f *fakeInstance) Invoke(ctx context.Context, entry string, inputs []Value) ([]Value, error) {
	if f.debug {
		return syntheticOutputs(entry, inputs), nil
	}
	d := syntheticLatency(entry, inputs)
	time.Sleep(d)
	return syntheticOutputs(entry, inputs), nil
}

func (f *fakeInstance) Close() error { return nil }

func syntheticOutputs(entry string, inputs []Value) []Value {
	out := make([]Value, len(inputs))
	copy(out, inputs)
	return out
}

// syntheticLatency derives a stable, sub-millisecond duration from the entry
// name and the inputs' bytes and shapes. It sees no layout information: the
// profiler passes inputs in their declared shape whatever the combination.
func syntheticLatency(entry string, inputs []Value) time.Duration {
	h := fnv.New64a()
	h.Write([]byte(entry))
	for _, in := range inputs {
		h.Write(in.Data)
		for _, e := range in.Shape {
			h.Write([]byte{byte(e)})
		}
	}
	ns := h.Sum64() % 1000
	return time.Duration(ns) * time.Microsecond
}
