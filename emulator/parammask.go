// SPDX-License-Identifier: MIT

package emulator

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/matrix"
)

// ParamMask returns the input columns of x whose absolute Pearson
// correlation with at least one column of y reaches threshold, in
// ascending order. Constant columns correlate with nothing.
//
// Errors: matrix.ErrNilMatrix, matrix.ErrDimensionMismatch (row counts differ),
// matrix.ErrTooFewRows (fewer than two rows), matrix.ErrNaNInf.
//
// Complexity: O(N·P·D).
func ParamMask(x, y *mat.Dense, threshold float64) ([]int, error) {
	C, err := correlations(x, y)
	if err != nil {
		return nil, emulatorErrorf(opParamMask, err)
	}

	return selectCorrelated(C, threshold), nil
}

// correlations returns the P×D Pearson matrix between the columns of x and y.
func correlations(x, y *mat.Dense) (*matrix.Dense, error) {
	if x == nil || y == nil {
		return nil, matrix.ErrNilMatrix
	}
	X, err := matrix.FromGonum(x)
	if err != nil {
		return nil, err
	}
	Y, err := matrix.FromGonum(y)
	if err != nil {
		return nil, err
	}

	return matrix.CrossCorrelation(X, Y)
}

// selectCorrelated returns the rows of C holding at least one entry with
// |r| >= threshold.
func selectCorrelated(C *matrix.Dense, threshold float64) []int {
	p, d := C.Shape()
	data := C.RawData()
	dims := make([]int, 0, p)
	for a := 0; a < p; a++ {
		for b := 0; b < d; b++ {
			if math.Abs(data[a*d+b]) >= threshold {
				dims = append(dims, a)
				break
			}
		}
	}

	return dims
}
