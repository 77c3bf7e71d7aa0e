// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//  - Provide a single, canonical source of truth for common validation checks.
//  - Keep statistics and bridges minimal by delegating shape/nil/finite checks here.
//  - Return wrapped sentinel errors so call sites can match with errors.Is.
//
// Note:
//  - Each composite validator follows a fixed sequence (e.g. NotNil → Shape).
//  - Each validator describes what it validates and what it assumes (e.g. no nil check).

package matrix

import (
	"fmt"
	"math"
)

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateNotNil ensures the matrix reference is non-nil.
// Returns ErrNilMatrix if m == nil. Complexity: O(1).
func ValidateNotNil(m Matrix) error {
	if m == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}
	if d, ok := m.(*Dense); ok && d == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}

	return nil
}

// ValidateSameShape ensures matrices a and b have equal dimensions.
// Assumes a and b are not nil (caller must ensure). Complexity: O(1).
func ValidateSameShape(a, b Matrix) error {
	if a.Rows() != b.Rows() {
		return validatorErrorf("ValidateSameShape: Rows", ErrDimensionMismatch)
	}
	if a.Cols() != b.Cols() {
		return validatorErrorf("ValidateSameShape: Columns", ErrDimensionMismatch)
	}

	return nil
}

// ValidateRowsMatch ensures a and b describe the same samples (equal row counts).
// This is the Training Set invariant: one output row per input row.
// Errors: ErrNilMatrix, ErrDimensionMismatch. Complexity: O(1).
func ValidateRowsMatch(a, b Matrix) error {
	if err := ValidateNotNil(a); err != nil {
		return validatorErrorf("ValidateRowsMatch", err)
	}
	if err := ValidateNotNil(b); err != nil {
		return validatorErrorf("ValidateRowsMatch", err)
	}
	if a.Rows() != b.Rows() {
		return validatorErrorf("ValidateRowsMatch", ErrDimensionMismatch)
	}

	return nil
}

// ValidateVecLen ensures the vector length matches the required size n.
// Time: O(1). Space: O(1).
func ValidateVecLen(x []float64, n int) error {
	if x == nil {
		return validatorErrorf("ValidateVecLen", ErrNilMatrix)
	}
	if len(x) != n {
		return validatorErrorf("ValidateVecLen", ErrDimensionMismatch)
	}

	return nil
}

// ValidateFinite rejects NaN/±Inf anywhere in x.
// Time: O(n). Space: O(1).
func ValidateFinite(x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return validatorErrorf(fmt.Sprintf("ValidateFinite[%d]", i), ErrNaNInf)
		}
	}

	return nil
}

// ValidateIndices ensures every index lies in [0, n) and appears once.
// Used for active-dimension subsets. Complexity: O(len(idx)).
func ValidateIndices(idx []int, n int) error {
	seen := make(map[int]struct{}, len(idx))
	for _, k := range idx {
		if k < 0 || k >= n {
			return validatorErrorf(fmt.Sprintf("ValidateIndices(%d)", k), ErrOutOfRange)
		}
		if _, dup := seen[k]; dup {
			return validatorErrorf(fmt.Sprintf("ValidateIndices(%d): duplicate", k), ErrDimensionMismatch)
		}
		seen[k] = struct{}{}
	}

	return nil
}
