// SPDX-License-Identifier: MIT

package batch

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// Batch is a contiguous block of sample points.
type Batch struct {
	Offset int        // absolute index of the first row
	X      *mat.Dense // rows × dims; owned by the caller after Next returns
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int {
	r, _ := b.X.Dims()

	return r
}

// Batcher groups the rows of a Source into batches of at most size rows.
// It follows the bufio.Scanner pattern: call Next until it returns false,
// then check Err.
type Batcher struct {
	src    Source
	size   int
	offset int
	cur    Batch
	err    error
}

// NewBatcher returns a Batcher over src.
// Errors: ErrBadBatchSize (size < 1), ErrEmptySource (Len or Dims is 0).
func NewBatcher(src Source, size int) (*Batcher, error) {
	if size < 1 {
		return nil, fmt.Errorf("batch: NewBatcher(%d): %w", size, ErrBadBatchSize)
	}
	if src == nil || src.Len() <= 0 || src.Dims() <= 0 {
		return nil, fmt.Errorf("batch: NewBatcher: %w", ErrEmptySource)
	}

	return &Batcher{src: src, size: size}, nil
}

// Count returns the number of batches the source yields: ceil(Len/size).
func (b *Batcher) Count() int {
	n := b.src.Len()

	return (n + b.size - 1) / b.size
}

// Total returns the number of rows the source yields.
func (b *Batcher) Total() int { return b.src.Len() }

// Next reads the next batch. It returns false at the end of the source or
// on error.
func (b *Batcher) Next() bool {
	if b.err != nil {
		return false
	}
	total := b.src.Len()
	if b.offset >= total {
		return false
	}
	rows := min(b.size, total-b.offset)
	dims := b.src.Dims()
	x := mat.NewDense(rows, dims, nil)
	for i := 0; i < rows; i++ {
		if err := b.src.Read(x.RawRowView(i)); err != nil {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("batch: row %d of %d: %w", b.offset+i, total, ErrTruncatedSource)
			}
			b.err = err
			return false
		}
	}
	b.cur = Batch{Offset: b.offset, X: x}
	b.offset += rows

	return true
}

// Batch returns the batch read by the last successful Next.
func (b *Batcher) Batch() Batch { return b.cur }

// Err returns the first error encountered, or nil at a clean end.
func (b *Batcher) Err() error { return b.err }
