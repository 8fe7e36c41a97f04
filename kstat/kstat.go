// Package kstat holds the measured per-kernel, per-layout-tuple execution
// time table the profiler populates and the analyzer consumes.
package kstat

import (
	"fmt"
	"sort"

	"github.com/layoutsched/layoutsched/layout"
	"gonum.org/v1/gonum/floats"
)

// Tuple is the per-arg layout assignment for one measured combination:
// one layout.Layout per non-tied argument, in argument order.
type Tuple []layout.Layout

// Key renders the tuple as the repr-string used for KStat JSON keys:
// "((p0,p1),(q0,q1),…)".
func (t Tuple) Key() string {
	s := "("
	for i, l := range t {
		if i > 0 {
			s += ","
		}
		s += l.Key()
	}
	return s + ")"
}

// KStat maps kernel_name -> { layout tuple -> time_ns }.
type KStat struct {
	cells map[string]map[string]float64
	// tuples remembers the parsed Tuple for each (kernel, key) pair so
	// callers can iterate structured tuples instead of re-parsing keys.
	tuples map[string]map[string]Tuple
}

// New returns an empty KStat.
func New() *KStat {
	return &KStat{
		cells:  make(map[string]map[string]float64),
		tuples: make(map[string]map[string]Tuple),
	}
}

// Set records the measured time for kernel under layouts, overwriting any
// existing cell.
func (k *KStat) Set(kernel string, layouts Tuple, timeNs float64) {
	if k.cells[kernel] == nil {
		k.cells[kernel] = make(map[string]float64)
		k.tuples[kernel] = make(map[string]Tuple)
	}
	key := layouts.Key()
	k.cells[kernel][key] = timeNs
	k.tuples[kernel][key] = layouts
}

// Get looks up the time for kernel under layouts.
func (k *KStat) Get(kernel string, layouts Tuple) (float64, bool) {
	m, ok := k.cells[kernel]
	if !ok {
		return 0, false
	}
	t, ok := m[layouts.Key()]
	return t, ok
}

// Kernels returns the set of kernel names with at least one recorded cell.
func (k *KStat) Kernels() []string {
	out := make([]string, 0, len(k.cells))
	for name := range k.cells {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Entries returns every (tuple, time) cell recorded for kernel, in
// unspecified but stable (sorted-by-key) order.
func (k *KStat) Entries(kernel string) []Entry {
	m := k.cells[kernel]
	tuples := k.tuples[kernel]
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]Entry, len(keys))
	for i, key := range keys {
		out[i] = Entry{Layouts: tuples[key], TimeNs: m[key]}
	}
	return out
}

// Entry is one (layout tuple, time) cell.
type Entry struct {
	Layouts Tuple
	TimeNs  float64
}

// Len returns the number of cells recorded for kernel.
func (k *KStat) Len(kernel string) int {
	return len(k.cells[kernel])
}

// Merge returns a new KStat containing every cell of k and other; where both
// define the same (kernel, layouts) cell, other's value wins — this backs
// the profiler driver's loop that drains results into the running KStat as
// they arrive, expressed as an operation on the container.
func Merge(k, other *KStat) *KStat {
	out := New()
	for kernel, cells := range k.cells {
		for key, t := range cells {
			out.cells[kernel] = ensureInner(out.cells, kernel)
			out.cells[kernel][key] = t
			out.tuples[kernel] = ensureTupleInner(out.tuples, kernel)
			out.tuples[kernel][key] = k.tuples[kernel][key]
		}
	}
	for kernel, cells := range other.cells {
		for key, t := range cells {
			out.cells[kernel] = ensureInner(out.cells, kernel)
			out.cells[kernel][key] = t
			out.tuples[kernel] = ensureTupleInner(out.tuples, kernel)
			out.tuples[kernel][key] = other.tuples[kernel][key]
		}
	}
	return out
}

func ensureInner(m map[string]map[string]float64, kernel string) map[string]float64 {
	if m[kernel] == nil {
		return make(map[string]float64)
	}
	return m[kernel]
}

func ensureTupleInner(m map[string]map[string]Tuple, kernel string) map[string]Tuple {
	if m[kernel] == nil {
		return make(map[string]Tuple)
	}
	return m[kernel]
}

// IOStat maps kernel_name -> time_ns, the measured cost of moving buffers
// for that kernel.
type IOStat map[string]float64

// Reduce returns a new KStat with every cell set to max(0, cell -
// iostat[kernel]). Idempotent when iostat is all-zero; never produces a
// negative time.
func (k *KStat) Reduce(io IOStat) *KStat {
	out := New()
	for kernel, cells := range k.cells {
		io := io[kernel]
		for key, t := range cells {
			reduced := floats.Max([]float64{0, t - io})
			out.cells[kernel] = ensureInner(out.cells, kernel)
			out.cells[kernel][key] = reduced
			out.tuples[kernel] = ensureTupleInner(out.tuples, kernel)
			out.tuples[kernel][key] = k.tuples[kernel][key]
		}
	}
	return out
}

// MinEntry returns the entry with the smallest time_ns among those matching
// pred, and true if at least one entry matched. Ties keep the first entry
// encountered in Entries' stable order.
func (k *KStat) MinEntry(kernel string, pred func(Entry) bool) (Entry, bool) {
	var best Entry
	found := false
	for _, e := range k.Entries(kernel) {
		if pred != nil && !pred(e) {
			continue
		}
		if !found || e.TimeNs < best.TimeNs {
			best = e
			found = true
		}
	}
	return best, found
}

// MustGet looks up the cell or returns a KStat-miss error naming the
// (kernel, layouts) identifier.
func (k *KStat) MustGet(kernel string, layouts Tuple) (float64, error) {
	t, ok := k.Get(kernel, layouts)
	if !ok {
		return 0, fmt.Errorf("kstat: no entry for kernel %q layouts %s", kernel, layouts.Key())
	}
	return t, nil
}
