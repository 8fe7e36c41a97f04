package ir

import (
	"fmt"
	"regexp"
	"strings"
)

// parseOpLine parses one line of a top-level function body into an *Op,
// registering any new result values into the live symbol table (values).
// See parse.go for the grammar this accepts.
func parseOpLine(line string, values map[string]*Value) (*Op, error) {
	lhs, mnemonic, rest, hasResult := splitAssignment(line)

	switch mnemonic {
	case "flow.dispatch":
		return parseDispatchOp(line, lhs, rest, values)
	case "flow.tensor.import":
		return parseUnaryOp(CategoryImport, line, lhs, rest, values, true)
	case "flow.tensor.export":
		return parseUnaryOp(CategoryExport, line, lhs, rest, values, true)
	case "flow.tensor.reshape":
		return parseUnaryOp(CategoryReshape, line, lhs, rest, values, true)
	case "flow.tensor.barrier":
		return parseUnaryOp(CategoryBarrier, line, lhs, rest, values, true)
	case "flow.tensor.splat":
		return parseUnaryOp(CategorySplat, line, lhs, rest, values, true)
	case "flow.tensor.update":
		return parseUpdateOp(line, lhs, rest, values)
	case "flow.tensor.empty":
		return parseNullaryOp(CategoryEmpty, line, lhs, rest, values)
	case "flow.tensor.constant":
		return parseConstantOp(line, lhs, rest, values)
	case "util.global.load":
		return parseGlobalLoadOp(line, lhs, rest, values)
	case "func.return":
		return parseReturnOp(line, rest, values)
	default:
		if !hasResult {
			// mnemonic may have been misread if no '='; fall through to error.
		}
		return nil, fmt.Errorf("ir: %w: mnemonic %q (%q)", ErrUnsupportedOp, mnemonic, line)
	}
}

var assignRe = regexp.MustCompile(`^(%\S+(?:,\s*%\S+)*)\s*=\s*(\S+)\s*(.*)$`)
var noAssignRe = regexp.MustCompile(`^(\S+)\s*(.*)$`)

func splitAssignment(line string) (lhs []string, mnemonic string, rest string, hasResult bool) {
	if m := assignRe.FindStringSubmatch(line); m != nil {
		return splitTopLevelCommas(m[1]), m[2], strings.TrimSpace(m[3]), true
	}
	m := noAssignRe.FindStringSubmatch(line)
	if m == nil {
		return nil, "", "", false
	}
	return nil, m[1], strings.TrimSpace(m[2]), false
}

func lookupOperand(name string, values map[string]*Value) (*Value, error) {
	v, ok := values[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("ir: %w: reference to undefined value %q", ErrParse, name)
	}
	return v, nil
}

func lookupOperands(names []string, values map[string]*Value) ([]*Value, error) {
	out := make([]*Value, len(names))
	for i, n := range names {
		v, err := lookupOperand(n, values)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func newResults(names []string, types []TensorType, values map[string]*Value, producer *Op) []*Value {
	out := make([]*Value, len(names))
	for i, n := range names {
		v := &Value{Name: strings.TrimSpace(n), IsTensor: true, Producer: producer}
		if i < len(types) {
			v.Type = types[i]
		}
		values[v.Name] = v
		out[i] = v
	}
	return out
}

var dispatchRe = regexp.MustCompile(
	`^(@\S+)::(@\S+)\(([^)]*)\)\s*:\s*\(([^)]*)\)\s*->\s*\(([^)]*)\)$`)

func parseDispatchOp(line string, lhs []string, rest string, values map[string]*Value) (*Op, error) {
	m := dispatchRe.FindStringSubmatch(rest)
	if m == nil {
		return nil, fmt.Errorf("ir: %w: malformed flow.dispatch %q", ErrParse, line)
	}
	var operandNames []string
	if strings.TrimSpace(m[3]) != "" {
		operandNames = splitTopLevelCommas(m[3])
	}
	operands, err := lookupOperands(operandNames, values)
	if err != nil {
		return nil, err
	}
	resultTypes, err := parseTensorTypeList(m[5])
	if err != nil {
		return nil, err
	}
	op := &Op{Mnemonic: CategoryDispatch, ModuleRef: m[1], EntryRef: m[2], Operands: operands, Raw: line}
	op.Results = newResults(lhs, resultTypes, values, op)
	return op, nil
}

func parseTensorTypeList(s string) ([]TensorType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []TensorType
	for _, part := range splitTopLevelCommas(s) {
		tt, err := ParseTensorType(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, nil
}

// parseUnaryOp handles the common "%r = mnemonic %o : TYPE1 -> TYPE2" and
// "%r = mnemonic %o : TYPE" shapes, inferring which from whether "->" is
// present. requireOperand is always true for the categories that call this.
func parseUnaryOp(cat Category, line string, lhs []string, rest string, values map[string]*Value, requireOperand bool) (*Op, error) {
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("ir: %w: malformed %s %q", ErrParse, cat, line)
	}
	operandName := strings.TrimSpace(parts[0])
	typeExpr := strings.TrimSpace(parts[1])

	var operands []*Value
	if requireOperand {
		v, err := lookupOperand(operandName, values)
		if err != nil {
			return nil, err
		}
		operands = []*Value{v}
	}

	resultType, err := resultTensorTypeFromExpr(typeExpr)
	if err != nil {
		return nil, err
	}

	op := &Op{Mnemonic: cat, Operands: operands, Raw: line}
	op.Results = newResults(lhs, []TensorType{resultType}, values, op)
	return op, nil
}

// resultTensorTypeFromExpr extracts the result tensor type from either
// "TYPE" or "TYPE1 -> TYPE2" (the result is always the rightmost type).
func resultTensorTypeFromExpr(expr string) (TensorType, error) {
	if idx := strings.LastIndex(expr, "->"); idx >= 0 {
		right := strings.TrimSpace(expr[idx+2:])
		if tt, err := ParseTensorType(right); err == nil {
			return tt, nil
		}
		// Right side is a non-tensor type (e.g. export to !hal.buffer_view);
		// the tensor side is on the left.
		left := strings.TrimSpace(expr[:idx])
		return ParseTensorType(left)
	}
	return ParseTensorType(expr)
}

var tiedOperandsRe = regexp.MustCompile(`\{\s*tied_operands\s*=\s*\[([^\]]*)\]\s*\}\s*$`)

func parseUpdateOp(line string, lhs []string, rest string, values map[string]*Value) (*Op, error) {
	tied := map[int]int{}
	if m := tiedOperandsRe.FindStringSubmatch(rest); m != nil {
		rest = strings.TrimSpace(tiedOperandsRe.ReplaceAllString(rest, ""))
		for i, f := range splitTopLevelCommas(m[1]) {
			idx, err := parseInt(strings.TrimSpace(f))
			if err != nil {
				return nil, fmt.Errorf("ir: %w: bad tied_operands entry: %v", ErrParse, err)
			}
			tied[i] = idx
		}
	}
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("ir: %w: malformed flow.tensor.update %q", ErrParse, line)
	}
	operandNames := splitTopLevelCommas(parts[0])
	operands, err := lookupOperands(operandNames, values)
	if err != nil {
		return nil, err
	}
	resultType, err := resultTensorTypeFromExpr(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, err
	}
	op := &Op{Mnemonic: CategoryUpdate, Operands: operands, TiedOperands: tied, Raw: line}
	op.Results = newResults(lhs, []TensorType{resultType}, values, op)
	return op, nil
}

func parseNullaryOp(cat Category, line string, lhs []string, rest string, values map[string]*Value) (*Op, error) {
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("ir: %w: malformed %s %q", ErrParse, cat, line)
	}
	tt, err := ParseTensorType(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, err
	}
	op := &Op{Mnemonic: cat, Raw: line}
	op.Results = newResults(lhs, []TensorType{tt}, values, op)
	return op, nil
}

var denseRe = regexp.MustCompile(`^dense<"([0-9a-fA-F]*)">\s*:\s*(.+)$`)

func parseConstantOp(line string, lhs []string, rest string, values map[string]*Value) (*Op, error) {
	m := denseRe.FindStringSubmatch(rest)
	if m == nil {
		return nil, fmt.Errorf("ir: %w: malformed flow.tensor.constant %q", ErrParse, line)
	}
	tt, err := ParseTensorType(strings.TrimSpace(m[2]))
	if err != nil {
		return nil, err
	}
	op := &Op{Mnemonic: CategoryConstant, Raw: line}
	op.Results = newResults(lhs, []TensorType{tt}, values, op)
	return op, nil
}

func parseGlobalLoadOp(line string, lhs []string, rest string, values map[string]*Value) (*Op, error) {
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("ir: %w: malformed util.global.load %q", ErrParse, line)
	}
	ref := strings.TrimSpace(parts[0])
	tt, err := ParseTensorType(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, err
	}
	op := &Op{Mnemonic: CategoryGlobalLoad, GlobalRef: ref, Raw: line}
	op.Results = newResults(lhs, []TensorType{tt}, values, op)
	return op, nil
}

func parseReturnOp(line string, rest string, values map[string]*Value) (*Op, error) {
	parts := strings.SplitN(rest, ":", 2)
	operandPart := rest
	if len(parts) == 2 {
		operandPart = parts[0]
	}
	var operandNames []string
	if strings.TrimSpace(operandPart) != "" {
		operandNames = splitTopLevelCommas(operandPart)
	}
	operands, err := lookupOperands(operandNames, values)
	if err != nil {
		return nil, err
	}
	return &Op{Mnemonic: CategoryReturn, Operands: operands, Raw: line}, nil
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
