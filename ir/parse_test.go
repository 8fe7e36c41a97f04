package ir

import "testing"

func TestParseModuleStructure(t *testing.T) {
	m, err := Parse(oneExecutableFixture())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Executables) != 1 {
		t.Fatalf("expected 1 executable, got %d", len(m.Executables))
	}
	if len(m.Functions) != 1 {
		t.Fatalf("expected 1 top-level function, got %d", len(m.Functions))
	}
	ex := m.Executables[0]
	if ex.Name != "@add_dispatch" || ex.ExportName != "@add_export" {
		t.Errorf("executable = %+v", ex)
	}
	if len(ex.Kernel.Args) != 2 {
		t.Fatalf("expected 2 kernel args, got %d", len(ex.Kernel.Args))
	}

	fn := m.Functions[0]
	if len(fn.Ops) != 2 {
		t.Fatalf("expected 2 ops (dispatch, return), got %d", len(fn.Ops))
	}
	if fn.Ops[0].Mnemonic != CategoryDispatch {
		t.Errorf("first op mnemonic = %v, want CategoryDispatch", fn.Ops[0].Mnemonic)
	}
}

func TestParseRejectsMalformedHeader(t *testing.T) {
	if _, err := Parse("not a module"); err == nil {
		t.Fatal("expected a parse error on a malformed module header")
	}
}

func TestPrintParseRoundTrip(t *testing.T) {
	text := oneExecutableFixture()
	m, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := Print(m)
	m2, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Print(m)): %v", err)
	}
	if len(m2.Executables) != len(m.Executables) || len(m2.Functions) != len(m.Functions) {
		t.Errorf("round-trip structure mismatch: %+v vs %+v", m2, m)
	}
}

func TestAsyncFunctionSingleCandidate(t *testing.T) {
	m, err := Parse(oneExecutableFixture())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn, err := m.AsyncFunction()
	if err != nil {
		t.Fatalf("AsyncFunction: %v", err)
	}
	if fn.Name != "@main$async" {
		t.Errorf("AsyncFunction = %q", fn.Name)
	}
}

func TestAsyncFunctionAmbiguous(t *testing.T) {
	m := &Module{Functions: []*Function{{Name: "@a"}, {Name: "@b"}}}
	if _, err := m.AsyncFunction(); err == nil {
		t.Fatal("expected ErrAmbiguousEntryFunction when neither function ends in $async")
	}
}

func TestAsyncFunctionTwoCandidatesPicksAsyncSuffix(t *testing.T) {
	m := &Module{Functions: []*Function{{Name: "@main"}, {Name: "@main$async"}}}
	fn, err := m.AsyncFunction()
	if err != nil {
		t.Fatalf("AsyncFunction: %v", err)
	}
	if fn.Name != "@main$async" {
		t.Errorf("AsyncFunction = %q, want @main$async", fn.Name)
	}
}

func oneExecutableFixture() string {
	return `module {
  executable private @add_dispatch {
    func.func @add_kernel(%arg0: !flow.dispatch.tensor<readonly:tensor<2x3xf32>>, %arg1: !flow.dispatch.tensor<writeonly:tensor<2x3xf32>>) {
      "kernel.body"() : () -> ()
    }
    flow.executable.export public @add_export
  }
  func.func @main$async(%x: tensor<2x3xf32>) -> (tensor<2x3xf32>) {
    %r0 = flow.dispatch @add_dispatch::@add_export(%x) : (tensor<2x3xf32>) -> (tensor<2x3xf32>)
    func.return %r0 : tensor<2x3xf32>
  }
}
`
}
