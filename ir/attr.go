package ir

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FluidMLAttrName returns the attribute name used to annotate a kernel
// function argument's chosen layout: "fluidml.<i>".
func FluidMLAttrName(argIndex int) string {
	return fmt.Sprintf("fluidml.%d", argIndex)
}

var arrayI64Re = regexp.MustCompile(`^array<i64:\s*([0-9,\s]*)>$`)

// FormatLayoutAttr renders a layout as the `array<i64: p0, p1, …>` attribute
// value the generator writes onto a rewritten kernel argument.
func FormatLayoutAttr(perm []int) string {
	parts := make([]string, len(perm))
	for i, p := range perm {
		parts[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("array<i64: %s>", strings.Join(parts, ", "))
}

// ParseLayoutAttrValue parses an `array<i64: p0, p1, …>` attribute value
// back into a permutation.
func ParseLayoutAttrValue(v string) ([]int, error) {
	m := arrayI64Re.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return nil, fmt.Errorf("ir: %q is not an array<i64:...> attribute", v)
	}
	body := strings.TrimSpace(m[1])
	if body == "" {
		return []int{}, nil
	}
	fields := strings.Split(body, ",")
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("ir: bad layout element %q: %w", f, err)
		}
		out[i] = n
	}
	return out, nil
}

// ParseLayoutAttr looks up fluidml.<i> in attrs and parses it.
func ParseLayoutAttr(attrs Attrs, argIndex int) ([]int, bool) {
	v, ok := attrs[FluidMLAttrName(argIndex)]
	if !ok {
		return nil, false
	}
	perm, err := ParseLayoutAttrValue(v)
	if err != nil {
		return nil, false
	}
	return perm, true
}

// SetLayoutAttr sets fluidml.<i> on attrs to perm, creating the map if nil.
func SetLayoutAttr(attrs Attrs, argIndex int, perm []int) Attrs {
	if attrs == nil {
		attrs = make(Attrs)
	}
	attrs[FluidMLAttrName(argIndex)] = FormatLayoutAttr(perm)
	return attrs
}

// parseAttrDict parses a flat `{key = value, key2 = value2}` attribute dict,
// where value may itself contain commas only inside array<...>/[...] forms —
// good enough for the grammar this package emits and consumes.
func parseAttrDict(s string) (map[string]string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	s = strings.TrimSpace(s)
	out := make(map[string]string)
	if s == "" {
		return out, nil
	}
	for _, item := range splitTopLevelCommas(s) {
		kv := strings.SplitN(item, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("ir: %w: malformed attribute %q", ErrParse, item)
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out, nil
}

// splitTopLevelCommas splits on commas that are not nested inside <...> or [...].
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '<', '[':
			depth++
		case '>', ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}

func formatAttrDict(keys []string, vals map[string]string) string {
	if len(keys) == 0 {
		return ""
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s = %s", k, vals[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
