// SPDX-License-Identifier: MIT

package kernel

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveDims indicates a kernel was built over an empty dimension set.
	ErrNoActiveDims = errors.New("kernel: at least one active dimension required")

	// ErrBadActiveDims indicates a negative or repeated active dimension.
	ErrBadActiveDims = errors.New("kernel: active dimensions must be distinct and non-negative")

	// ErrHyperOutOfBounds indicates an initial hyperparameter outside its box
	// or a box with Lower <= 0 or Lower >= Upper.
	ErrHyperOutOfBounds = errors.New("kernel: hyperparameter outside bounds")

	// ErrInputTooNarrow indicates inputs with fewer columns than a kernel's
	// largest active dimension requires.
	ErrInputTooNarrow = errors.New("kernel: input has fewer columns than active dimensions need")

	// ErrParamCount indicates an unconstrained vector whose length differs
	// from the number of hyperparameters.
	ErrParamCount = errors.New("kernel: hyperparameter count mismatch")
)

func kernelErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
