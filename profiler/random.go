package profiler

import (
	"math/rand"

	"github.com/layoutsched/layoutsched/ir"
)

// randomInputs generates deterministic pseudo-random input buffers of the
// declared shapes and dtypes. A fixed-seed source keeps a given run's
// benchmark inputs reproducible without requiring the caller to thread a
// seed through every job.
func randomInputs(types []ir.DispatchTensorType, seed int64) []Value {
	rng := rand.New(rand.NewSource(seed))
	out := make([]Value, len(types))
	for i, t := range types {
		out[i] = Value{
			Shape: t.Tensor.Shape,
			DType: t.Tensor.DType,
			Data:  randomBytes(rng, t.Tensor),
		}
	}
	return out
}

func randomBytes(rng *rand.Rand, t ir.TensorType) []byte {
	n := t.Shape.NumElements()
	var size int64
	if t.DType == ir.I1 {
		size = (n + 7) / 8
	} else {
		size = n * int64(t.DType.BitWidth()/8)
	}
	buf := make([]byte, size)
	rng.Read(buf)
	return buf
}
