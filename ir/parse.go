package ir

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Parse reads the textual IR grammar this package's Print function emits: a
// module op containing global ops, executable ops, and one or two top-level
// function ops.
func Parse(text string) (*Module, error) {
	lines := splitLines(text)
	p := &parser{lines: lines}
	return p.parseModule()
}

type parser struct {
	lines []string
	pos   int
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.lines) {
		return "", false
	}
	return strings.TrimSpace(p.lines[p.pos]), true
}

func (p *parser) next() (string, bool) {
	l, ok := p.peek()
	if ok {
		p.pos++
	}
	return l, ok
}

var moduleHeaderRe = regexp.MustCompile(`^module(\s+attributes\s+(\{.*\}))?\s*\{$`)

func (p *parser) parseModule() (*Module, error) {
	line, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("ir: %w: empty input", ErrParse)
	}
	m := moduleHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("ir: %w: expected module header, got %q", ErrParse, line)
	}
	attrs := map[string]string{}
	if m[2] != "" {
		var err error
		attrs, err = parseAttrDict(m[2])
		if err != nil {
			return nil, err
		}
	}
	mod := &Module{Attrs: attrs}
	for {
		line, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("ir: %w: unterminated module", ErrParse)
		}
		if line == "}" {
			p.next()
			return mod, nil
		}
		switch {
		case strings.HasPrefix(line, "util.global "):
			g, err := p.parseGlobal()
			if err != nil {
				return nil, err
			}
			mod.Globals = append(mod.Globals, g)
		case strings.HasPrefix(line, "executable "):
			e, err := p.parseExecutable()
			if err != nil {
				return nil, err
			}
			mod.Executables = append(mod.Executables, e)
		case strings.HasPrefix(line, "func.func "):
			f, err := p.parseFunction()
			if err != nil {
				return nil, err
			}
			mod.Functions = append(mod.Functions, f)
		default:
			return nil, fmt.Errorf("ir: %w: unexpected top-level line %q", ErrParse, line)
		}
	}
}

var globalRe = regexp.MustCompile(
	`^util\.global\s+(private\s+|public\s+)?@(\S+)\s*:\s*(tensor<[^>]+>)\s*=\s*dense<"([0-9a-fA-F]*)">\s*$`)

func (p *parser) parseGlobal() (*Global, error) {
	line, _ := p.next()
	m := globalRe.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("ir: %w: malformed global %q", ErrParse, line)
	}
	tt, err := ParseTensorType(m[3])
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(m[4])
	if err != nil {
		return nil, fmt.Errorf("ir: %w: bad global byte payload: %v", ErrParse, err)
	}
	return &Global{Name: "@" + m[2], Tensor: tt, InitialValue: raw}, nil
}

var executableHeaderRe = regexp.MustCompile(`^executable\s+(private\s+|public\s+)?@(\S+)\s*\{$`)
var exportRe = regexp.MustCompile(`^flow\.executable\.export\s+(public\s+|private\s+)?@(\S+)\s*$`)

func (p *parser) parseExecutable() (*Executable, error) {
	line, _ := p.next()
	m := executableHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("ir: %w: malformed executable header %q", ErrParse, line)
	}
	ex := &Executable{Name: "@" + m[2]}
	for {
		line, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("ir: %w: unterminated executable", ErrParse)
		}
		switch {
		case line == "}":
			p.next()
			if ex.Kernel == nil {
				return nil, fmt.Errorf("ir: %w: executable %s has no kernel function", ErrParse, ex.Name)
			}
			return ex, nil
		case strings.HasPrefix(line, "func.func "):
			k, err := p.parseKernelFunc()
			if err != nil {
				return nil, err
			}
			ex.Kernel = k
		case exportRe.MatchString(line):
			p.next()
			em := exportRe.FindStringSubmatch(line)
			ex.ExportName = "@" + em[2]
		default:
			return nil, fmt.Errorf("ir: %w: unexpected line in executable: %q", ErrParse, line)
		}
	}
}

var kernelHeaderRe = regexp.MustCompile(
	`^func\.func\s+@(\S+)\(([^)]*)\)(\s+attributes\s+(\{.*\}))?\s*\{$`)

func (p *parser) parseKernelFunc() (*KernelFunc, error) {
	line, _ := p.next()
	m := kernelHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("ir: %w: malformed kernel header %q", ErrParse, line)
	}
	args, err := parseDispatchArgs(m[2])
	if err != nil {
		return nil, err
	}
	attrs := Attrs{}
	if m[4] != "" {
		raw, err := parseAttrDict(m[4])
		if err != nil {
			return nil, err
		}
		attrs = Attrs(raw)
	}
	k := &KernelFunc{Name: "@" + m[1], Args: args, Attrs: attrs}
	depth := 1
	for {
		line, ok := p.next()
		if !ok {
			return nil, fmt.Errorf("ir: %w: unterminated kernel function body", ErrParse)
		}
		if line == "}" {
			depth--
			if depth == 0 {
				return k, nil
			}
			k.RawBody = append(k.RawBody, line)
			continue
		}
		if strings.HasSuffix(line, "{") {
			depth++
		}
		k.RawBody = append(k.RawBody, line)
	}
}

var dispatchArgRe = regexp.MustCompile(`^%\S+\s*:\s*(.+)$`)

func parseDispatchArgs(s string) ([]DispatchTensorType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []DispatchTensorType
	for _, part := range splitTopLevelCommas(s) {
		m := dispatchArgRe.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			return nil, fmt.Errorf("ir: %w: malformed kernel argument %q", ErrParse, part)
		}
		tt, err := ParseDispatchTensorType(strings.TrimSpace(m[1]))
		if err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, nil
}

var topFuncHeaderRe = regexp.MustCompile(
	`^func\.func\s+@(\S+)\(([^)]*)\)(\s*->\s*\(([^)]*)\))?\s*\{$`)

func (p *parser) parseFunction() (*Function, error) {
	line, _ := p.next()
	m := topFuncHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("ir: %w: malformed function header %q", ErrParse, line)
	}
	f := &Function{Name: "@" + m[1]}
	values := map[string]*Value{}
	if m[2] != "" {
		for _, part := range splitTopLevelCommas(m[2]) {
			kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("ir: %w: malformed function argument %q", ErrParse, part)
			}
			name := strings.TrimSpace(kv[0])
			rawType := strings.TrimSpace(kv[1])
			v := &Value{Name: name, RawType: rawType}
			if tt, err := ParseTensorType(rawType); err == nil {
				v.IsTensor = true
				v.Type = tt
			}
			values[name] = v
			f.Args = append(f.Args, FuncArg{Name: name, RawType: rawType})
		}
	}
	if m[4] != "" {
		for _, r := range splitTopLevelCommas(m[4]) {
			f.Results = append(f.Results, strings.TrimSpace(r))
		}
	}
	for {
		line, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("ir: %w: unterminated function body", ErrParse)
		}
		if line == "}" {
			p.next()
			return f, nil
		}
		op, err := parseOpLine(line, values)
		if err != nil {
			return nil, err
		}
		p.next()
		f.Ops = append(f.Ops, op)
	}
}
