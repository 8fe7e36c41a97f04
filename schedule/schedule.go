// Package schedule holds the chosen layout for every tensor value and the
// majority-based merge policy used to reconcile per-sequence and
// per-subgraph disagreements.
package schedule

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/layoutsched/layoutsched/layout"
)

// Schedule maps tensor_value_name -> layout.Layout.
type Schedule map[string]layout.Layout

// New returns an empty Schedule.
func New() Schedule { return make(Schedule) }

// Set assigns value a layout, overwriting any existing entry.
func (s Schedule) Set(value string, l layout.Layout) { s[value] = l }

// Get looks up the layout assigned to value.
func (s Schedule) Get(value string) (layout.Layout, bool) {
	l, ok := s[value]
	return l, ok
}

// MustGet looks up value or returns a missing-schedule-key error naming the
// value.
func (s Schedule) MustGet(value string) (layout.Layout, error) {
	l, ok := s[value]
	if !ok {
		return nil, fmt.Errorf("schedule: missing key %q", value)
	}
	return l, nil
}

// vote tracks, per candidate layout, how many schedules picked it and the
// position of its first occurrence (used only to break ties).
type vote struct {
	layout layout.Layout
	count  int
	first  int
}

// Merge resolves per-key conflicts across schedules by majority, with an
// arbitrary but deterministic tie-break on first-most-common. The result
// assigns each key exactly once.
func Merge(schedules ...Schedule) Schedule {
	votes := make(map[string]map[string]*vote) // value -> layoutKey -> vote
	order := 0
	for _, sched := range schedules {
		for _, value := range sortedValueNames(sched) {
			l := sched[value]
			if votes[value] == nil {
				votes[value] = make(map[string]*vote)
			}
			lk := l.Key()
			v, ok := votes[value][lk]
			if !ok {
				v = &vote{layout: l, first: order}
				votes[value][lk] = v
			}
			v.count++
			order++
		}
	}

	out := New()
	for value, candidates := range votes {
		out[value] = majorityPick(candidates)
	}
	return out
}

func majorityPick(candidates map[string]*vote) layout.Layout {
	var best *vote
	for _, v := range candidates {
		if best == nil || v.count > best.count || (v.count == best.count && v.first < best.first) {
			best = v
		}
	}
	return best.layout
}

func sortedValueNames(s Schedule) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Names returns the set of value names assigned a layout, sorted.
func (s Schedule) Names() []string { return sortedValueNames(s) }

// Dump serialises s to JSON: { "value_name": [p0, p1, …], … }.
func (s Schedule) Dump() ([]byte, error) {
	out := make(map[string][]int, len(s))
	for k, l := range s {
		out[k] = []int(l)
	}
	return json.MarshalIndent(out, "", "  ")
}

// Load parses the JSON form Dump produces.
func Load(data []byte) (Schedule, error) {
	var raw map[string][]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	out := New()
	for k, v := range raw {
		out[k] = layout.Layout(v)
	}
	return out, nil
}
