// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   • Provide small, deterministic fixtures for the statistics and bridge tests.
//   • Keep all data finite and well-formed to avoid numeric-policy interference.

package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/gcem/matrix"
	"github.com/stretchr/testify/require"
)

// hide wraps any Matrix to hide its concrete type from type assertions.
// Use hide{X} to force the At/Set fallback paths instead of the *Dense fast-path.
type hide struct{ matrix.Matrix }

// empty is a zero-area Matrix (r×0).
type empty struct{ r int }

func (e *empty) Rows() int                     { return e.r }
func (e *empty) Cols() int                     { return 0 }
func (e *empty) At(_, _ int) (float64, error)  { return 0, matrix.ErrOutOfRange }
func (e *empty) Set(_, _ int, _ float64) error { return matrix.ErrOutOfRange }
func (e *empty) Clone() matrix.Matrix          { return &empty{r: e.r} }

// NewFilledDense allocates an r×c *Dense from row-major data or fails the test.
func NewFilledDense(t *testing.T, r, c int, data []float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(r, c, data)
	require.NoError(t, err)

	return m
}

// MustAt reads m[i,j] or fails the test.
func MustAt(t *testing.T, m matrix.Matrix, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}

// CompareClose asserts a and b have the same shape and close elements.
func CompareClose(t *testing.T, a, b matrix.Matrix, rtol, atol float64) {
	t.Helper()
	ga, err := matrix.ToGonum(a)
	require.NoError(t, err)
	gb, err := matrix.ToGonum(b)
	require.NoError(t, err)
	ra, ca := ga.Dims()
	rb, cb := gb.Dims()
	require.Equal(t, [2]int{rb, cb}, [2]int{ra, ca}, "shape")
	sliceClose(t, ga.RawMatrix().Data, gb.RawMatrix().Data, rtol, atol)
}

// sliceClose asserts two vectors have equal length and close elements.
func sliceClose(t *testing.T, got, want []float64, rtol, atol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.Abs(got[i]-want[i]) > atol+rtol*math.Abs(want[i]) {
			t.Fatalf("index %d: got %.15g want %.15g", i, got[i], want[i])
		}
	}
}
