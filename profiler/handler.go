package profiler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/layoutsched/layoutsched/affinity"
	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/kstat"
	"github.com/layoutsched/layoutsched/pool"
)

// jobHandler implements pool.Handler for the create/bench job-kind split.
type jobHandler struct {
	cfg      Config
	compiler Compiler
	runtime  Runtime
	phase    *pool.PhaseLock
	workerID atomic.Int64
}

func newJobHandler(cfg Config, compiler Compiler, runtime Runtime) *jobHandler {
	extra := make(map[string]string, len(cfg.Options.Extra)+1)
	for k, v := range cfg.Options.Extra {
		extra[k] = v
	}
	extra["compile-from"] = "flow"
	cfg.Options.Extra = extra
	return &jobHandler{cfg: cfg, compiler: compiler, runtime: runtime, phase: pool.NewPhaseLock()}
}

// HandleCreate reparses the sub-module, synthesizes the invoke_<kernel>$async
// entry function, and emits one BenchSubModJob per legal layout combination.
func (h *jobHandler) HandleCreate(ctx context.Context, job any) ([]any, error) {
	cj := job.(CreateSubModJob)
	sub, err := ir.Parse(cj.Text)
	if err != nil {
		return nil, fmt.Errorf("profiler: reparsing sub-module: %w", err)
	}
	info, err := extractKernelInfo(sub)
	if err != nil {
		return nil, err
	}
	entryFn := synthesizeEntryFunction(info)
	k := sub.Executables[0].Kernel
	combos := layoutCombinations(argShapes(info))

	jobs := make([]any, 0, len(combos))
	for _, combo := range combos {
		annotated := annotateLayouts(k, combo)
		ex := *sub.Executables[0]
		ex.Kernel = annotated
		benchMod := &ir.Module{
			Attrs:       sub.Attrs,
			Globals:     sub.Globals,
			Executables: []*ir.Executable{&ex},
			Functions:   []*ir.Function{entryFn},
		}
		jobs = append(jobs, BenchSubModJob{
			KernelName: info.kernelName,
			EntryFunc:  entryFn.Name,
			Inputs:     info.inputs,
			Layouts:    kstat.Tuple(combo),
			Text:       ir.Print(benchMod),
		})
	}
	return jobs, nil
}

// HandleBench compiles, loads, warms up and measures one annotated
// sub-module, reporting the minimum of Times repeated invocations.
func (h *jobHandler) HandleBench(ctx context.Context, job any) (any, error) {
	bj := job.(BenchSubModJob)

	workerIdx := int(h.workerID.Add(1))
	if err := affinity.Pin(workerIdx % affinity.NumCPU()); err != nil {
		logrus.Warnf("profiler: cpu pinning failed for worker %d: %v", workerIdx, err)
	}

	var compiled []byte
	var compileErr error
	h.phase.With(pool.Blue, func() {
		compiled, compileErr = h.compiler.Compile(ctx, bj.Text, h.cfg.Options)
	})
	if compileErr != nil {
		if errors.Is(compileErr, ErrCompileTool) {
			logrus.Debugf("profiler: dropping %s %s: compiler rejected combination", bj.KernelName, bj.Layouts.Key())
			return nil, nil
		}
		return nil, fmt.Errorf("profiler: compiling %s %s: %w", bj.KernelName, bj.Layouts.Key(), compileErr)
	}

	inst, err := h.runtime.Load(ctx, compiled, h.cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("profiler: loading %s %s: %w", bj.KernelName, bj.Layouts.Key(), err)
	}
	defer inst.Close()

	inputs := randomInputs(bj.Inputs, int64(workerIdx))

	warmups := h.cfg.Times / 10
	for i := 0; i < warmups; i++ {
		if _, err := inst.Invoke(ctx, bj.EntryFunc, inputs); err != nil {
			return nil, fmt.Errorf("profiler: warmup invoke %s %s: %w", bj.KernelName, bj.Layouts.Key(), err)
		}
	}

	if h.cfg.Debug {
		return ResultJob{KernelName: bj.KernelName, Layouts: bj.Layouts, TimeNs: 0}, nil
	}

	samples := make([]float64, 0, h.cfg.Times)
	var measureErr error
	h.phase.With(pool.Red, func() {
		for i := 0; i < h.cfg.Times; i++ {
			start := time.Now()
			if _, err := inst.Invoke(ctx, bj.EntryFunc, inputs); err != nil {
				measureErr = fmt.Errorf("profiler: measuring %s %s: %w", bj.KernelName, bj.Layouts.Key(), err)
				return
			}
			samples = append(samples, float64(time.Since(start).Nanoseconds()))
		}
	})
	if measureErr != nil {
		return nil, measureErr
	}
	return ResultJob{KernelName: bj.KernelName, Layouts: bj.Layouts, TimeNs: floats.Min(samples)}, nil
}
