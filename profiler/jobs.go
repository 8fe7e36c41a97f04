package profiler

import (
	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/kstat"
)

// CreateSubModJob carries one executable's standalone sub-module text
// through the create queue.
type CreateSubModJob struct {
	Text string
}

// BenchSubModJob carries one fully-annotated, entry-function-synthesized
// sub-module through the bench queue.
type BenchSubModJob struct {
	KernelName string
	EntryFunc  string
	Inputs     []ir.DispatchTensorType
	Layouts    kstat.Tuple
	Text       string
}

// ResultJob carries one measured (kernel, layouts) cell back to the driver.
type ResultJob struct {
	KernelName string
	Layouts    kstat.Tuple
	TimeNs     float64
}
