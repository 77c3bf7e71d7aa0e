// SPDX-License-Identifier: MIT

package batch

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// Source is a finite, forward-only stream of equal-width sample points.
type Source interface {
	// Len returns the total number of rows the source will yield.
	Len() int
	// Dims returns the width of every row.
	Dims() int
	// Read copies the next row into dst (len(dst) == Dims()) and returns
	// io.EOF once all rows have been read.
	Read(dst []float64) error
}

// MatrixSource yields the rows of an in-memory matrix.
type MatrixSource struct {
	m    mat.Matrix
	next int
}

// NewMatrixSource wraps m. The matrix is read, never copied or modified.
func NewMatrixSource(m mat.Matrix) *MatrixSource { return &MatrixSource{m: m} }

func (s *MatrixSource) Len() int {
	r, _ := s.m.Dims()

	return r
}

func (s *MatrixSource) Dims() int {
	_, c := s.m.Dims()

	return c
}

func (s *MatrixSource) Read(dst []float64) error {
	r, c := s.m.Dims()
	if s.next >= r {
		return io.EOF
	}
	if len(dst) != c {
		return fmt.Errorf("batch: MatrixSource: dst %d want %d: %w", len(dst), c, ErrRowWidth)
	}
	if rv, ok := s.m.(mat.RawRowViewer); ok {
		copy(dst, rv.RawRowView(s.next))
	} else {
		mat.Row(dst, s.next, s.m)
	}
	s.next++

	return nil
}

// SliceSource yields rows of a [][]float64. Every row must have the width of the first.
type SliceSource struct {
	rows [][]float64
	next int
}

// NewSliceSource wraps rows without copying.
func NewSliceSource(rows [][]float64) *SliceSource { return &SliceSource{rows: rows} }

func (s *SliceSource) Len() int { return len(s.rows) }

func (s *SliceSource) Dims() int {
	if len(s.rows) == 0 {
		return 0
	}

	return len(s.rows[0])
}

func (s *SliceSource) Read(dst []float64) error {
	if s.next >= len(s.rows) {
		return io.EOF
	}
	row := s.rows[s.next]
	if len(row) != len(dst) {
		return fmt.Errorf("batch: SliceSource: row %d has %d values want %d: %w", s.next, len(row), len(dst), ErrRowWidth)
	}
	copy(dst, row)
	s.next++

	return nil
}

// GenerateFunc writes sample point i into dst.
type GenerateFunc func(i int, dst []float64) error

// FuncSource yields n rows produced on demand by a generator, so sample
// sets larger than memory never have to be materialized.
type FuncSource struct {
	n, dims int
	gen     GenerateFunc
	next    int
}

// NewFuncSource returns a source of n rows of width dims drawn from gen.
func NewFuncSource(n, dims int, gen GenerateFunc) *FuncSource {
	return &FuncSource{n: n, dims: dims, gen: gen}
}

func (s *FuncSource) Len() int  { return s.n }
func (s *FuncSource) Dims() int { return s.dims }

func (s *FuncSource) Read(dst []float64) error {
	if s.next >= s.n {
		return io.EOF
	}
	if len(dst) != s.dims {
		return fmt.Errorf("batch: FuncSource: dst %d want %d: %w", len(dst), s.dims, ErrRowWidth)
	}
	if err := s.gen(s.next, dst); err != nil {
		return fmt.Errorf("batch: FuncSource: row %d: %w", s.next, err)
	}
	s.next++

	return nil
}
