// Package values provides the scalar-or-vector numeric type shared by
// membership, rule, and inference evaluation. Every operation is defined
// elementwise, broadcasting scalars against vectors the way the inputs
// of one evaluation call are expected to line up.
package values

import (
	"fmt"
	"math"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
)

// Value holds either a single float64 or a vector of them.
// The zero Value is the scalar 0.
type Value struct {
	scalar float64
	vec    []float64
}

// Scalar wraps a single number.
func Scalar(x float64) Value {
	return Value{scalar: x}
}

// Vector wraps a slice of numbers. The slice is copied so the Value does
// not alias caller memory.
func Vector(xs []float64) Value {
	v := make([]float64, len(xs))
	copy(v, xs)
	return Value{vec: v}
}

// IsScalar reports whether the value is a single number.
func (v Value) IsScalar() bool { return v.vec == nil }

// Len returns the vector length, or 1 for scalars.
func (v Value) Len() int {
	if v.vec == nil {
		return 1
	}
	return len(v.vec)
}

// At returns element i. Scalars broadcast: every index yields the scalar.
func (v Value) At(i int) float64 {
	if v.vec == nil {
		return v.scalar
	}
	return v.vec[i]
}

// Float returns the scalar value. For vectors of length 1 it collapses to
// the sole element; longer vectors panic.
func (v Value) Float() float64 {
	if v.vec == nil {
		return v.scalar
	}
	if len(v.vec) == 1 {
		return v.vec[0]
	}
	panic(fmt.Sprintf("values: Float on vector of length %d", len(v.vec)))
}

// Slice returns the elements as a fresh slice (length 1 for scalars).
func (v Value) Slice() []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}

// Map applies f to every element, preserving shape.
func (v Value) Map(f func(float64) float64) Value {
	if v.vec == nil {
		return Value{scalar: f(v.scalar)}
	}
	out := make([]float64, len(v.vec))
	for i, x := range v.vec {
		out[i] = f(x)
	}
	return Value{vec: out}
}

// Zip combines two values elementwise. A scalar broadcasts against a
// vector; two vectors must have equal length. Empty vectors carry no
// elements to combine and do not broadcast.
func Zip(a, b Value, f func(x, y float64) float64) (Value, error) {
	if a.Len() == 0 || b.Len() == 0 {
		return Value{}, fmt.Errorf("values: empty vector does not broadcast: %w",
			fuzzerr.ErrConfiguration)
	}
	if !a.IsScalar() && !b.IsScalar() && a.Len() != b.Len() {
		return Value{}, fmt.Errorf("values: shapes %d and %d do not broadcast: %w",
			a.Len(), b.Len(), fuzzerr.ErrConfiguration)
	}
	if a.IsScalar() && b.IsScalar() {
		return Value{scalar: f(a.scalar, b.scalar)}, nil
	}
	n := a.Len()
	if b.Len() > n {
		n = b.Len()
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = f(a.At(i), b.At(i))
	}
	return Value{vec: out}, nil
}

// Min is the elementwise minimum of a and b.
func Min(a, b Value) (Value, error) { return Zip(a, b, math.Min) }

// Max is the elementwise maximum of a and b.
func Max(a, b Value) (Value, error) { return Zip(a, b, math.Max) }

// Add is the elementwise sum of a and b.
func Add(a, b Value) (Value, error) {
	return Zip(a, b, func(x, y float64) float64 { return x + y })
}

// Mul is the elementwise product of a and b.
func Mul(a, b Value) (Value, error) {
	return Zip(a, b, func(x, y float64) float64 { return x * y })
}

// Div divides num by den elementwise. Where den is zero the result is
// fallback instead of Inf or NaN, keeping evaluation total.
func Div(num, den Value, fallback float64) (Value, error) {
	return Zip(num, den, func(x, y float64) float64 {
		if y == 0 {
			return fallback
		}
		return x / y
	})
}

// Mean returns the average of the elements.
func (v Value) Mean() float64 {
	n := v.Len()
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += v.At(i)
	}
	return sum / float64(n)
}

// Broadcastable reports whether all values share a common shape, and the
// common vector length (1 when all are scalars).
func Broadcastable(vs ...Value) (int, bool) {
	n := 1
	for _, v := range vs {
		if v.IsScalar() {
			continue
		}
		if v.Len() == 0 {
			return 0, false
		}
		if n != 1 && v.Len() != n {
			return 0, false
		}
		n = v.Len()
	}
	return n, true
}
