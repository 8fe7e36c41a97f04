// Package profiler drives the enumerate → compile → measure pipeline: one
// create job per executable, fanning out into one bench job per legal
// layout combination, feeding a KStat.
package profiler

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/kstat"
	"github.com/layoutsched/layoutsched/pool"
)

// Profile parses irText and measures every legal layout combination of every
// dispatched kernel, returning the populated KStat.
func Profile(ctx context.Context, irText string, cfg Config, compiler Compiler, runtime Runtime) (*kstat.KStat, error) {
	m, err := ir.Parse(irText)
	if err != nil {
		return nil, fmt.Errorf("profiler: %w", err)
	}

	workerNum := cfg.WorkerNum
	if workerNum <= 0 {
		workerNum = 1
	}

	initial := make([]any, 0, len(m.Executables))
	for _, ex := range m.Executables {
		initial = append(initial, CreateSubModJob{Text: buildSubModule(m, ex)})
	}
	if len(initial) == 0 {
		logrus.Debug("profiler: no executables found, returning empty kstat")
		return kstat.New(), nil
	}

	result := kstat.New()
	var mu sync.Mutex
	onResult := func(r any) {
		rj := r.(ResultJob)
		mu.Lock()
		result.Set(rj.KernelName, rj.Layouts, rj.TimeNs)
		mu.Unlock()
	}

	handler := newJobHandler(cfg, compiler, runtime)
	p := pool.New(workerNum, handler, onResult)
	logrus.Infof("profiler: starting %d executable(s) with %d worker(s), times=%d", len(initial), workerNum, cfg.Times)
	if err := p.Run(ctx, initial); err != nil {
		return nil, fmt.Errorf("profiler: %w", err)
	}
	logrus.Infof("profiler: done, %d kernel(s) measured", len(result.Kernels()))
	return result, nil
}
