// Package analyzer turns a profiled KStat into a single Schedule, by one of
// two strategies: an exact per-sequence dynamic program, or a fast greedy
// best-saving-first heuristic.
package analyzer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/layoutsched/layoutsched/graph"
	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/kstat"
	"github.com/layoutsched/layoutsched/schedule"
)

// Mode selects the analysis strategy.
type Mode string

const (
	ModeDP     Mode = "dp"
	ModeGreedy Mode = "greedy"
)

// Analyze parses irText, wraps its entry function's ops, and runs the
// selected strategy against ks, returning a single Schedule.
func Analyze(irText string, ks *kstat.KStat, mode Mode) (schedule.Schedule, error) {
	m, err := ir.Parse(irText)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	fn, err := m.AsyncFunction()
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	wrappers := graph.Wrap(m, fn.Ops)

	switch mode {
	case ModeDP:
		return runDP(wrappers, ks)
	case ModeGreedy:
		return runGreedy(wrappers, ks)
	default:
		return nil, fmt.Errorf("analyzer: unknown mode %q", mode)
	}
}

// runDP partitions the graph into connected subgraphs, pathifies each, runs
// the sequence DP on every resulting sequence, and unions every
// ScheduleGroup into one merge.
func runDP(wrappers []*graph.Wrapper, ks *kstat.KStat) (schedule.Schedule, error) {
	g := graph.NewGraph(wrappers)
	var all []schedule.Schedule
	for _, sub := range graph.Partitioned(g) {
		sequences, err := graph.Pathify(sub, ks)
		if err != nil {
			return nil, fmt.Errorf("analyzer: %w", err)
		}
		for _, seq := range sequences {
			group, err := seq.Schedule(ks)
			if err != nil {
				return nil, fmt.Errorf("analyzer: %w", err)
			}
			all = append(all, group...)
		}
	}
	logrus.Debugf("analyzer: dp mode merging %d candidate schedule(s)", len(all))
	return schedule.Merge(all...), nil
}
