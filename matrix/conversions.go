// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Bridge Dense to gonum's mat.Dense, which the numeric backend (kernels,
//     Cholesky, optimisation) operates on.
//   - Flatten N×… simulator output tensors into the N×D layout the emulator trains on.
//
// Both bridges copy; neither side aliases the other's storage.

package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const (
	opToGonum   = "ToGonum"
	opFromGonum = "FromGonum"
	opFlatten   = "Flatten"
)

// ToGonum copies m into a new *mat.Dense.
// Errors: ErrNilMatrix; ErrInvalidDimensions for zero-area input (gonum forbids it).
// Complexity: O(r*c).
func ToGonum(m Matrix) (*mat.Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opToGonum, err)
	}
	r, c := m.Rows(), m.Cols()
	if r == 0 || c == 0 {
		return nil, matrixErrorf(opToGonum, ErrInvalidDimensions)
	}
	buf := make([]float64, r*c)
	if d, ok := m.(*Dense); ok {
		copy(buf, d.data)
		return mat.NewDense(r, c, buf), nil
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v, err := m.At(i, j)
			if err != nil {
				return nil, matrixErrorf(opToGonum, err)
			}
			buf[i*c+j] = v
		}
	}

	return mat.NewDense(r, c, buf), nil
}

// FromGonum copies any gonum matrix into a Dense under the given numeric policy.
// Complexity: O(r*c).
func FromGonum(g mat.Matrix, opts ...Option) (*Dense, error) {
	if g == nil {
		return nil, matrixErrorf(opFromGonum, ErrNilMatrix)
	}
	r, c := g.Dims()
	buf := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			buf[i*c+j] = g.At(i, j)
		}
	}
	d, err := NewDenseFrom(r, c, buf, opts...)
	if err != nil {
		return nil, matrixErrorf(opFromGonum, err)
	}

	return d, nil
}

// Flatten reshapes a row-major tensor of the given shape (N, d1, d2, ...)
// into an N×(d1·d2·…) Dense. A 1-D shape (N) becomes N×1.
//
// Errors:
//   - ErrInvalidDimensions for an empty shape or a non-positive extent.
//   - ErrDimensionMismatch when len(data) != Π shape.
//
// Complexity: O(len(data)).
func Flatten(shape []int, data []float64, opts ...Option) (*Dense, error) {
	if len(shape) == 0 {
		return nil, matrixErrorf(opFlatten, ErrInvalidDimensions)
	}
	cols := 1
	for k, s := range shape {
		if s <= 0 {
			return nil, matrixErrorf(fmt.Sprintf("%s: extent %d", opFlatten, k), ErrInvalidDimensions)
		}
		if k > 0 {
			cols *= s
		}
	}
	d, err := NewDenseFrom(shape[0], cols, data, opts...)
	if err != nil {
		return nil, matrixErrorf(opFlatten, err)
	}

	return d, nil
}
