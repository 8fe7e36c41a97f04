package generator

import (
	"github.com/layoutsched/layoutsched/ir"
	"github.com/layoutsched/layoutsched/layout"
)

// TransposeBytes rewrites raw, a row-major encoding of an array of the given
// shape and element type, by permutation l: the value at new coordinate idx
// is the value at the old coordinate where old[l[i]] = idx[i]. Boolean (i1)
// elements go through a dedicated bit-packed path rather than the
// byte-sized element path.
func TransposeBytes(raw []byte, shape ir.Shape, dtype ir.DType, l layout.Layout) []byte {
	if l.IsDefault() {
		return raw
	}
	if dtype == ir.I1 {
		return transposeBits(raw, shape, l)
	}
	return transposeElements(raw, shape, dtype.BitWidth()/8, l)
}

func transposeElements(raw []byte, shape ir.Shape, elemSize int, l layout.Layout) []byte {
	n := len(shape)
	newShape := ir.Shape(layout.Permute([]int64(shape), l))
	oldStrides := rowMajorStrides(shape)
	newStrides := rowMajorStrides(newShape)
	total := shape.NumElements()

	out := make([]byte, len(raw))
	idx := make([]int64, n)
	oldCoord := make([]int64, n)
	for linear := int64(0); linear < total; linear++ {
		decode(linear, newStrides, idx)
		for i := 0; i < n; i++ {
			oldCoord[l[i]] = idx[i]
		}
		oldOffset := flatten(oldCoord, oldStrides)
		srcOff := oldOffset * int64(elemSize)
		dstOff := linear * int64(elemSize)
		copy(out[dstOff:dstOff+int64(elemSize)], raw[srcOff:srcOff+int64(elemSize)])
	}
	return out
}

func transposeBits(raw []byte, shape ir.Shape, l layout.Layout) []byte {
	n := len(shape)
	newShape := ir.Shape(layout.Permute([]int64(shape), l))
	oldStrides := rowMajorStrides(shape)
	newStrides := rowMajorStrides(newShape)
	total := shape.NumElements()

	bits := UnpackBooleans(raw, total)
	out := make([]bool, total)
	idx := make([]int64, n)
	oldCoord := make([]int64, n)
	for linear := int64(0); linear < total; linear++ {
		decode(linear, newStrides, idx)
		for i := 0; i < n; i++ {
			oldCoord[l[i]] = idx[i]
		}
		out[linear] = bits[flatten(oldCoord, oldStrides)]
	}
	return PackBooleans(out)
}

// rowMajorStrides returns the element strides of a row-major array of shape.
func rowMajorStrides(shape ir.Shape) []int64 {
	n := len(shape)
	strides := make([]int64, n)
	stride := int64(1)
	for i := n - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

func decode(linear int64, strides []int64, idx []int64) {
	for i, s := range strides {
		idx[i] = linear / s
		linear %= s
	}
}

func flatten(coord []int64, strides []int64) int64 {
	var off int64
	for i, c := range coord {
		off += c * strides[i]
	}
	return off
}
