package kstat

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/layoutsched/layoutsched/layout"
)

// Dump serialises k to JSON:
// { kernel: { "((p0,p1,...),(q0,q1,...),…)": float_ns, … }, … }.
func (k *KStat) Dump() ([]byte, error) {
	out := make(map[string]map[string]float64, len(k.cells))
	for kernel, cells := range k.cells {
		inner := make(map[string]float64, len(cells))
		for key, t := range cells {
			inner[key] = t
		}
		out[kernel] = inner
	}
	return json.MarshalIndent(out, "", "  ")
}

// Load parses the JSON form Dump produces. Map key order is not significant
// to equality — Load rebuilds the structured Tuple index from each key.
func Load(data []byte) (*KStat, error) {
	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("kstat: %w", err)
	}
	k := New()
	for kernel, cells := range raw {
		for key, t := range cells {
			tuple, err := ParseTupleKey(key)
			if err != nil {
				return nil, fmt.Errorf("kstat: kernel %q: %w", kernel, err)
			}
			k.Set(kernel, tuple, t)
		}
	}
	return k, nil
}

// Dump serialises io to JSON: { kernel: float_ns, … }.
func (io IOStat) Dump() ([]byte, error) {
	return json.MarshalIndent(map[string]float64(io), "", "  ")
}

// LoadIOStat parses the JSON form IOStat.Dump produces.
func LoadIOStat(data []byte) (IOStat, error) {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("kstat: %w", err)
	}
	return IOStat(raw), nil
}

// ParseTupleKey parses a repr-string tuple-of-tuples key such as
// "((0,1),(1,0))" into a Tuple, using a small recursive-descent parser
// rather than a general-purpose expression evaluator.
func ParseTupleKey(s string) (Tuple, error) {
	p := &tupleParser{s: s}
	t, err := p.parseTuple()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("kstat: trailing garbage in key %q", s)
	}
	var tuple Tuple
	for _, l := range t {
		tuple = append(tuple, layout.Layout(l))
	}
	return tuple, nil
}

type tupleParser struct {
	s   string
	pos int
}

func (p *tupleParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

// parseTuple parses "(elem,elem,...)" where each elem is itself a tuple of
// integers (one nesting level: a Tuple of Layouts) or, at the innermost
// level, an integer. It returns [][]int generically and the caller adapts.
func (p *tupleParser) parseTuple() ([][]int, error) {
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '(' {
		return nil, fmt.Errorf("kstat: expected '(' at position %d in %q", p.pos, p.s)
	}
	p.pos++
	var elems [][]int
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ')' {
		p.pos++
		return elems, nil
	}
	for {
		elem, err := p.parseIntTuple()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, fmt.Errorf("kstat: unterminated tuple in %q", p.s)
		}
		if p.s[p.pos] == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
		if p.s[p.pos] == ')' {
			p.pos++
			return elems, nil
		}
		return nil, fmt.Errorf("kstat: unexpected character %q at %d in %q", p.s[p.pos], p.pos, p.s)
	}
}

func (p *tupleParser) parseIntTuple() ([]int, error) {
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '(' {
		return nil, fmt.Errorf("kstat: expected '(' at position %d in %q", p.pos, p.s)
	}
	p.pos++
	var out []int
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ')' {
		p.pos++
		return out, nil
	}
	for {
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.s) && (p.s[p.pos] == '-' || (p.s[p.pos] >= '0' && p.s[p.pos] <= '9')) {
			p.pos++
		}
		if start == p.pos {
			return nil, fmt.Errorf("kstat: expected integer at %d in %q", p.pos, p.s)
		}
		n, err := strconv.Atoi(p.s[start:p.pos])
		if err != nil {
			return nil, fmt.Errorf("kstat: %w", err)
		}
		out = append(out, n)
		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, fmt.Errorf("kstat: unterminated int tuple in %q", p.s)
		}
		if p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.s[p.pos] == ')' {
			p.pos++
			return out, nil
		}
		return nil, fmt.Errorf("kstat: unexpected character %q at %d in %q", p.s[p.pos], p.pos, p.s)
	}
}
