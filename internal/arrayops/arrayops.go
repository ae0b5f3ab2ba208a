// Package arrayops holds the small set of matrix helpers the solver relies on:
// broadcasting by integer replication, lower clipping, bounded copies and
// zero-copy views over flat buffers.
package arrayops

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape is returned when two shapes cannot be reconciled.
	ErrShape = errors.New("arrayops: incompatible shape")
	// ErrCapacity is returned when a destination is too small.
	ErrCapacity = errors.New("arrayops: destination too small")
)

// Expand replicates data along each axis so that the result has ref's shape.
// Each target dimension must be a positive integer multiple of the source one.
func Expand(data, ref mat.Matrix) (*mat.Dense, error) {
	r, c := data.Dims()
	rr, rc := ref.Dims()
	if r == 0 || c == 0 || rr%r != 0 || rc%c != 0 {
		return nil, fmt.Errorf("%w: cannot expand %dx%d to %dx%d", ErrShape, r, c, rr, rc)
	}
	out := mat.NewDense(rr, rc, nil)
	for i := 0; i < rr; i++ {
		for j := 0; j < rc; j++ {
			out.Set(i, j, data.At(i%r, j%c))
		}
	}
	return out, nil
}

// ClipLow raises every element of m below floor to floor, in place.
func ClipLow(m *mat.Dense, floor float64) {
	raw := m.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		ClipLowVec(raw.Data[i*raw.Stride:i*raw.Stride+raw.Cols], floor)
	}
}

// ClipLowVec is ClipLow for a flat slice.
func ClipLowVec(v []float64, floor float64) {
	for i, x := range v {
		if x < floor {
			v[i] = floor
		}
	}
}

// CopyInto copies src into the prefix of dst. It fails rather than
// truncating when dst is shorter than src.
func CopyInto(dst, src []float64) error {
	if len(dst) < len(src) {
		return fmt.Errorf("%w: need %d, have %d", ErrCapacity, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// TensorView exposes data as a rows x cols matrix without copying. Writes
// through the view are visible in data and vice versa.
func TensorView(data []float64, rows, cols int) (*mat.Dense, error) {
	if rows <= 0 || cols <= 0 || len(data) < rows*cols {
		return nil, fmt.Errorf("%w: %d values cannot back %dx%d", ErrShape, len(data), rows, cols)
	}
	return mat.NewDense(rows, cols, data[:rows*cols:rows*cols]), nil
}

// RowView exposes vec as a 1 x len(vec) matrix without copying.
func RowView(vec []float64) *mat.Dense {
	return mat.NewDense(1, len(vec), vec)
}

// Normalize scales v to sum to one. When the sum is not positive v is filled
// with the uniform distribution instead.
func Normalize(v []float64) {
	if len(v) == 0 {
		return
	}
	total := floats.Sum(v)
	if total <= 0 {
		for i := range v {
			v[i] = 1.0 / float64(len(v))
		}
		return
	}
	floats.Scale(1/total, v)
}
