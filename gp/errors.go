// SPDX-License-Identifier: MIT

package gp

import (
	"errors"
	"fmt"
)

var (
	// ErrNotPositiveDefinite indicates the regularized Gram matrix could not
	// be Cholesky-factorized even after adding jitter.
	ErrNotPositiveDefinite = errors.New("gp: covariance matrix not positive definite")

	// ErrOptimizationFailed indicates the optimizer returned no usable
	// finite location.
	ErrOptimizationFailed = errors.New("gp: hyperparameter optimization failed")

	// ErrShape indicates inconsistent training or query shapes.
	ErrShape = errors.New("gp: inconsistent matrix shapes")

	// ErrEmptyInput indicates a training or query matrix without rows.
	ErrEmptyInput = errors.New("gp: empty input")
)

const (
	opFit     = "Fit"
	opTrain   = "Train"
	opPredict = "Predict"
)

func gpErrorf(op string, err error) error {
	return fmt.Errorf("gp: %s: %w", op, err)
}
