// SPDX-License-Identifier: MIT

package batch

import "errors"

var (
	// ErrBadBatchSize indicates a batch size < 1.
	ErrBadBatchSize = errors.New("batch: batch size must be >= 1")

	// ErrEmptySource indicates a source with zero rows or zero columns.
	ErrEmptySource = errors.New("batch: source has no rows")

	// ErrTruncatedSource indicates a source that ended before yielding Len rows.
	ErrTruncatedSource = errors.New("batch: source ended early")

	// ErrRowWidth indicates a row whose width differs from the source's Dims.
	ErrRowWidth = errors.New("batch: row width mismatch")
)
