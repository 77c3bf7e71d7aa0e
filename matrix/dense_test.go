// SPDX-License-Identifier: MIT

package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gcem/matrix"
)

func TestNewDense_Shape(t *testing.T) {
	t.Parallel()

	_, err := matrix.NewDense(0, 3)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
	_, err = matrix.NewDense(3, -1)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)
	r, c := m.Shape()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Len(t, m.RawData(), 6)
}

func TestDense_AtSetBounds(t *testing.T) {
	t.Parallel()

	m := NewFilledDense(t, 2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, m.Set(1, 0, 9))
	assert.Equal(t, 9.0, MustAt(t, m, 1, 0))

	_, err := m.At(2, 0)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)
	assert.ErrorIs(t, m.Set(0, -1, 1), matrix.ErrOutOfRange)
	assert.ErrorIs(t, m.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
}

func TestFromRows(t *testing.T) {
	t.Parallel()

	src := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	m, err := matrix.FromRows(src)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, m.RawData())

	// The rows are copied.
	src[2][0] = 100
	assert.Equal(t, 5.0, MustAt(t, m, 2, 0))

	_, err = matrix.FromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
	_, err = matrix.FromRows(nil)
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

func TestDense_CloneIsDeep(t *testing.T) {
	t.Parallel()

	m := NewFilledDense(t, 1, 2, []float64{1, 2})
	cp := m.Clone()
	require.NoError(t, cp.Set(0, 0, 7))
	assert.Equal(t, 1.0, MustAt(t, m, 0, 0))
	assert.Equal(t, "[1, 2]\n", m.String())
}
