// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide the column statistics the emulator needs over training data
//     (rows = simulator runs, columns = parameters or output dimensions).
//   - Keep tight loops centralized in ew* where it improves reuse and consistency.
//
// Exposed API:
//   - CenterColumns(X)       -> (Xc, means)  // subtract per-column mean
//   - ColumnMeans(X)         -> means        // per-column mean
//   - ColumnStdDev(X)        -> stds         // per-column sample std (r-1 divisor)
//   - CrossCorrelation(X, Y) -> Corr (P×D)   // Pearson corr of every X column with every Y column
//
// Determinism & Performance:
//   - Fixed i→j traversal for all explicit loops.
//   - Dense fast-paths avoid At/Set and operate on row-major flat buffers.
//   - Zero-size matrices (0×N or N×0) are treated as no-ops for centering.

package matrix

import "math"

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opCenterColumns    = "CenterColumns"
	opColumnMeans      = "ColumnMeans"
	opColumnStdDev     = "ColumnStdDev"
	opCrossCorrelation = "CrossCorrelation"
)

// columnSums accumulates Σ_i X[i,j] (and Σ_i X[i,j]² when sq is non-nil).
// Dense fast-path; At fallback with full error propagation.
func columnSums(X Matrix, sums, sq []float64) error {
	r, c := X.Rows(), X.Cols()
	var i, j int
	var v float64

	if d, ok := X.(*Dense); ok {
		for i = 0; i < r; i++ {
			base := i * c
			for j = 0; j < c; j++ {
				v = d.data[base+j]
				sums[j] += v
				if sq != nil {
					sq[j] += v * v
				}
			}
		}
		return nil
	}

	var err error
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			v, err = X.At(i, j)
			if err != nil {
				return err
			}
			sums[j] += v
			if sq != nil {
				sq[j] += v * v
			}
		}
	}

	return nil
}

// ColumnMeans returns Σ_i X[i,j] / r for every column j.
//
// Errors:
//   - ErrNilMatrix; ErrTooFewRows when r == 0 and c > 0.
//
// Complexity:
//   - Time O(r*c), Space O(c).
func ColumnMeans(X Matrix) ([]float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opColumnMeans, err)
	}
	r, c := X.Rows(), X.Cols()
	means := make([]float64, c)
	if c == 0 {
		return means, nil
	}
	if r == 0 {
		return nil, matrixErrorf(opColumnMeans, ErrTooFewRows)
	}
	if err := columnSums(X, means, nil); err != nil {
		return nil, matrixErrorf(opColumnMeans, err)
	}
	inv := 1.0 / float64(r)
	for j := range means {
		means[j] *= inv
	}

	return means, nil
}

// CenterColumns subtracts the per-column mean from every element (column-wise centering).
// Implementation:
//   - Stage 1: Validate X (non-nil) and handle zero-size as a strict no-op.
//   - Stage 2: Compute column means in a deterministic pass (Dense fast-path; At fallback).
//   - Stage 3: Apply ewBroadcastSubCols to produce a centered copy.
//
// Returns:
//   - Matrix: centered copy (r×c) for r>0 && c>0; otherwise X itself (no-op).
//   - []float64: column means (len=c).
//
// Errors:
//   - ErrNilMatrix from validation.
//   - Wrapped At/NewDense/Set errors from fallback paths.
//
// Complexity:
//   - Time O(r*c), Space O(r*c) for output (+ O(c) means).
//
// Notes:
//   - Reuse the returned means to un-center predictions later.
func CenterColumns(X Matrix) (Matrix, []float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}

	r, c := X.Rows(), X.Cols()
	if r == 0 || c == 0 {
		return X, make([]float64, c), nil
	}

	means, err := ColumnMeans(X)
	if err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}

	Xc, err := ewBroadcastSubCols(X, means)
	if err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}

	return Xc, means, nil
}

// ColumnStdDev returns the per-column sample standard deviation
// sqrt( Σ_i (X[i,j]-mean_j)² / (r-1) ).
//
// The two-pass form (center, then square) is used instead of the raw-sum
// shortcut so that large-magnitude simulator outputs do not cancel.
//
// Errors:
//   - ErrNilMatrix; ErrTooFewRows when r < 2.
//
// Complexity:
//   - Time O(r*c), Space O(r*c) for the centered copy.
func ColumnStdDev(X Matrix) ([]float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opColumnStdDev, err)
	}
	r, c := X.Rows(), X.Cols()
	if c == 0 {
		return make([]float64, 0), nil
	}
	if r < 2 {
		return nil, matrixErrorf(opColumnStdDev, ErrTooFewRows)
	}

	Xc, _, err := CenterColumns(X)
	if err != nil {
		return nil, matrixErrorf(opColumnStdDev, err)
	}
	sums := make([]float64, c)
	sq := make([]float64, c)
	if err = columnSums(Xc, sums, sq); err != nil {
		return nil, matrixErrorf(opColumnStdDev, err)
	}
	inv := 1.0 / float64(r-1)
	for j := range sq {
		sq[j] = math.Sqrt(sq[j] * inv)
	}

	return sq, nil
}

// CrossCorrelation computes the Pearson correlation between every column of
// X (r×p) and every column of Y (r×d), returning a p×d matrix.
// Implementation:
//   - Stage 1: Validate both operands, rows must match and r>=2.
//   - Stage 2: Z-score each side (degenerate std==0 → zero column, so its correlations are 0).
//   - Stage 3: Corr[a,b] = Σ_i Zx[i,a]·Zy[i,b] / (r-1).
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (rows differ), ErrTooFewRows (r<2).
//
// Complexity:
//   - Time O(r*(p+d) + r*p*d), Space O(r*(p+d) + p*d).
func CrossCorrelation(X, Y Matrix) (*Dense, error) {
	if err := ValidateRowsMatch(X, Y); err != nil {
		return nil, matrixErrorf(opCrossCorrelation, err)
	}
	r, p, d := X.Rows(), X.Cols(), Y.Cols()
	if r < 2 {
		return nil, matrixErrorf(opCrossCorrelation, ErrTooFewRows)
	}

	Zx, err := zscore(X)
	if err != nil {
		return nil, matrixErrorf(opCrossCorrelation, err)
	}
	Zy, err := zscore(Y)
	if err != nil {
		return nil, matrixErrorf(opCrossCorrelation, err)
	}

	out, err := newDenseZeroOK(p, d)
	if err != nil {
		return nil, matrixErrorf(opCrossCorrelation, err)
	}
	inv := 1.0 / float64(r-1)
	var i, a, b int
	for i = 0; i < r; i++ {
		xRow := Zx.data[i*p : (i+1)*p]
		yRow := Zy.data[i*d : (i+1)*d]
		for a = 0; a < p; a++ {
			xa := xRow[a]
			if xa == 0 {
				continue
			}
			for b = 0; b < d; b++ {
				out.data[a*d+b] += xa * yRow[b]
			}
		}
	}
	for k := range out.data {
		out.data[k] *= inv
	}

	return out, nil
}

// zscore returns (X - mean) * diag(1/std) as a fresh *Dense.
// Degenerate columns (std == 0) become all zeros.
func zscore(X Matrix) (*Dense, error) {
	c := X.Cols()
	stds, err := ColumnStdDev(X)
	if err != nil {
		return nil, err
	}
	Xc, _, err := CenterColumns(X)
	if err != nil {
		return nil, err
	}
	invStd := make([]float64, c)
	for j, s := range stds {
		if s > 0 {
			invStd[j] = 1.0 / s
		}
	}

	return ewScaleCols(Xc, invStd)
}
