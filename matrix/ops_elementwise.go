// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide small, *private* element-wise and broadcast kernels (ew*) to avoid
//     duplicating tight loops across higher-level ops (statistics).
//   - Keep all loops deterministic and cache-friendly with Dense fast-paths.
//
// Design:
//   - ew* are UNEXPORTED (internal micro-kernels) used by the column statistics.
//
// Determinism & Performance:
//   - Fixed loop orders (i→j or flat 0..n-1).
//   - No hidden allocations beyond the output Dense; O(r*c) time and space.

package matrix

import (
	"fmt"
)

const (
	opBroadcastSubCols = "broadcastSubCols"
	opScaleCols        = "scaleCols"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil to avoid creating a non-nil wrapper around a nil cause.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ewBroadcastSubCols computes out[i,j] = X[i,j] - colMeans[j].
// Time: O(r*c). Space: O(r*c). Deterministic i→j loops.
func ewBroadcastSubCols(X Matrix, colMeans []float64) (*Dense, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opBroadcastSubCols, err)
	}
	r, c := X.Rows(), X.Cols()
	if len(colMeans) != c {
		return nil, matrixErrorf(opBroadcastSubCols, ErrDimensionMismatch)
	}
	out, err := newDenseZeroOK(r, c)
	if err != nil {
		return nil, matrixErrorf(opBroadcastSubCols, err)
	}

	if d, ok := X.(*Dense); ok {
		out.validateNaNInf = d.validateNaNInf
		for i := 0; i < r; i++ {
			base := i * c
			for j := 0; j < c; j++ {
				out.data[base+j] = d.data[base+j] - colMeans[j]
			}
		}
		return out, nil
	}

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v, e := X.At(i, j)
			if e != nil {
				return nil, matrixErrorf(opBroadcastSubCols, e)
			}
			out.data[i*c+j] = v - colMeans[j]
		}
	}
	return out, nil
}

// ewScaleCols computes out[i,j] = X[i,j] * scale[j].
// Use factors as 1/std for z-scoring, or 0 for degenerate columns. O(r*c).
func ewScaleCols(X Matrix, scale []float64) (*Dense, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opScaleCols, err)
	}
	r, c := X.Rows(), X.Cols()
	if len(scale) != c {
		return nil, matrixErrorf(opScaleCols, ErrDimensionMismatch)
	}
	out, err := newDenseZeroOK(r, c)
	if err != nil {
		return nil, matrixErrorf(opScaleCols, err)
	}

	if d, ok := X.(*Dense); ok {
		for i := 0; i < r; i++ {
			base := i * c
			for j := 0; j < c; j++ {
				out.data[base+j] = d.data[base+j] * scale[j]
			}
		}
		return out, nil
	}

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v, e := X.At(i, j)
			if e != nil {
				return nil, matrixErrorf(opScaleCols, e)
			}
			out.data[i*c+j] = v * scale[j]
		}
	}
	return out, nil
}
