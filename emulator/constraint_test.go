// SPDX-License-Identifier: MIT

package emulator_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/gcem/batch"
	"github.com/katalvlaran/gcem/emulator"
	"github.com/katalvlaran/gcem/matrix"
	"github.com/katalvlaran/gcem/stream"
)

func TestEvaluateQuorum_Boundary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		d       int
		matched int
		want    bool
	}{
		{"D4 three matched", 4, 3, false},
		{"D4 four matched", 4, 4, true},
		{"D5 four matched", 5, 4, false}, // 4 > 0.8·5 is false
		{"D5 five matched", 5, 5, true},
		{"D1 one matched", 1, 1, true},
		{"D1 none", 1, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			obs := make([]float64, tc.d)
			varObs := make([]float64, tc.d)
			row := make([]float64, tc.d)
			for j := range obs {
				varObs[j] = 1
				if j >= tc.matched {
					row[j] = 5 // far outside the 0.5 window
				}
			}
			keep, n := emulator.EvaluateQuorum(mat.NewDense(1, tc.d, row), obs, varObs,
				emulator.DefaultTolerance, emulator.DefaultQuorum)
			assert.Equal(t, []bool{tc.want}, keep)
			assert.Equal(t, map[bool]int{true: 1, false: 0}[tc.want], n)
		})
	}
}

func TestEvaluateQuorum_StrictTolerance(t *testing.T) {
	t.Parallel()

	// |10.5-10| == 1·0.5 is not a match.
	mean := mat.NewDense(2, 1, []float64{10.5, 10.49})
	keep, n := emulator.EvaluateQuorum(mean, []float64{10}, []float64{1}, 0.5, 0)
	assert.Equal(t, []bool{false, true}, keep)
	assert.Equal(t, 1, n)

	// NaN never matches.
	keep, _ = emulator.EvaluateQuorum(mat.NewDense(1, 1, []float64{math.NaN()}),
		[]float64{0}, []float64{1}, 0.5, 0)
	assert.Equal(t, []bool{false}, keep)
}

func TestObsConstraint_Scenario(t *testing.T) {
	t.Parallel()

	c := trainedIdentity(t, []float64{10, 20}, emulator.WithObsVariability([]float64{1, 1}))
	rows := [][]float64{
		{10.3, 19.6},
		{10.3, 25},
		{10.1, 20.2},
		{9.8, 19.9},
	}
	res, err := c.Constrain(context.Background(), batch.NewSliceSource(rows))
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false, true, true}, res.Valid)
	assert.Equal(t, 3, res.ValidCount)
	require.NotNil(t, res.Constrained)
	assert.Equal(t, 3, res.Constrained.Count)
	assert.Equal(t, 4, res.Unconstrained.Count)

	valid := [][]float64{rows[0], rows[2], rows[3]}
	for j := 0; j < 2; j++ {
		m, sd := stat.MeanStdDev(column(valid, j), nil)
		assert.InDelta(t, m, res.Constrained.Mean[j], 1e-12)
		assert.InDelta(t, sd, res.Constrained.StdDev[j], 1e-12)

		m, sd = stat.MeanStdDev(column(rows, j), nil)
		assert.InDelta(t, m, res.Unconstrained.Mean[j], 1e-12)
		assert.InDelta(t, sd, res.Unconstrained.StdDev[j], 1e-12)
	}
}

func TestObsConstraint_MaskLengthAndBatchInvariance(t *testing.T) {
	t.Parallel()

	const n = 23
	src := func() batch.Source {
		return batch.NewFuncSource(n, 2, func(i int, dst []float64) error {
			dst[0] = 10 + 0.1*float64(i%7) - 0.3
			dst[1] = 20 + 0.3*float64(i%5) - 0.6
			return nil
		})
	}

	ref := trainedIdentity(t, []float64{10, 20},
		emulator.WithObsVariability([]float64{1, 1}), emulator.WithBatchSize(n))
	want, err := ref.Constrain(context.Background(), src())
	require.NoError(t, err)
	require.Len(t, want.Valid, n)
	require.Equal(t, 14, want.ValidCount) // i%5 in {0, 4} misses on the second output

	for _, size := range []int{1, 2, 5, 7, 22, 1000} {
		c := trainedIdentity(t, []float64{10, 20},
			emulator.WithObsVariability([]float64{1, 1}), emulator.WithBatchSize(size))
		got, err := c.Constrain(context.Background(), src())
		require.NoError(t, err, "batch size %d", size)
		assert.Len(t, got.Valid, n, "batch size %d", size)
		assert.Equal(t, want.Valid, got.Valid, "batch size %d", size)
		assert.Equal(t, want.ValidCount, got.ValidCount)
		assert.InDeltaSlice(t, want.Constrained.Mean, got.Constrained.Mean, 1e-12)
		assert.InDeltaSlice(t, want.Constrained.StdDev, got.Constrained.StdDev, 1e-12)
		assert.InDeltaSlice(t, want.Unconstrained.StdDev, got.Unconstrained.StdDev, 1e-12)
	}
}

func TestObsConstraint_NoValidSamples(t *testing.T) {
	t.Parallel()

	c := trainedIdentity(t, []float64{10, 20}, emulator.WithObsVariability([]float64{1, 1}))
	rows := [][]float64{{0, 0}, {1, 1}, {2, 2}}
	res, err := c.Constrain(context.Background(), batch.NewSliceSource(rows))

	require.ErrorIs(t, err, emulator.ErrNoValidSamples)
	assert.ErrorIs(t, err, stream.ErrDegenerateSampleSet)
	require.NotNil(t, res, "partial result is returned")
	assert.Nil(t, res.Constrained)
	assert.Equal(t, 0, res.ValidCount)
	assert.Equal(t, []bool{false, false, false}, res.Valid)
	require.NotNil(t, res.Unconstrained)
	assert.Equal(t, 3, res.Unconstrained.Count)

	// A single valid sample has no sample sd either.
	rows = [][]float64{{10, 20}, {1, 1}, {2, 2}}
	res, err = c.Constrain(context.Background(), batch.NewSliceSource(rows))
	require.ErrorIs(t, err, emulator.ErrNoValidSamples)
	assert.Equal(t, 1, res.ValidCount)
}

func TestObsConstraint_DefaultVariabilityFromTrainingOutputs(t *testing.T) {
	t.Parallel()

	c := trainedIdentity(t, []float64{0, 0})
	v, err := c.ObsVariability()
	require.NoError(t, err)
	// Outputs are {-1, 1} per column.
	assert.InDeltaSlice(t, []float64{math.Sqrt2, math.Sqrt2}, v, 1e-12)

	// Window is sqrt(2)·0.5 ≈ 0.707.
	res, err := c.Constrain(context.Background(),
		batch.NewSliceSource([][]float64{{0.7, -0.7}, {0.71, 0}, {0, 0}}))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, res.Valid)
}

func TestObsConstraint_LogObservations(t *testing.T) {
	t.Parallel()

	c := trainedIdentity(t, []float64{1},
		emulator.WithObsVariability([]float64{1}), emulator.WithLogObservations())
	res, err := c.Constrain(context.Background(),
		batch.NewSliceSource([][]float64{{1}, {1.2}, {3}}))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, res.Valid)

	m, sd := stat.MeanStdDev([]float64{10, math.Pow(10, 1.2)}, nil)
	assert.InDelta(t, m, res.Constrained.Mean[0], 1e-9)
	assert.InDelta(t, sd, res.Constrained.StdDev[0], 1e-9)
	assert.InDelta(t, (10+math.Pow(10, 1.2)+1000)/3, res.Unconstrained.Mean[0], 1e-9)
}

func TestObsConstraint_Errors(t *testing.T) {
	t.Parallel()

	_, err := emulator.NewObsConstraint(nil)
	assert.ErrorIs(t, err, emulator.ErrBadObservations)
	_, err = emulator.NewObsConstraint([]float64{math.Inf(1)})
	assert.ErrorIs(t, err, emulator.ErrBadObservations)
	_, err = emulator.NewObsConstraint([]float64{1}, emulator.WithObsVariability([]float64{-1}))
	assert.ErrorIs(t, err, emulator.ErrBadObservations)

	// Untrained.
	c, err := emulator.NewObsConstraint([]float64{1, 2})
	require.NoError(t, err)
	_, err = c.Constrain(context.Background(), batch.NewSliceSource([][]float64{{1, 2}}))
	assert.ErrorIs(t, err, emulator.ErrNotTrained)

	// Observation width differs from the outputs.
	c = trainedIdentity(t, []float64{1, 2})
	c3, err := emulator.NewObsConstraint([]float64{1, 2, 3}, emulator.WithTrainer(&stubTrainer{}))
	require.NoError(t, err)
	require.NoError(t, c3.Train(context.Background(), zeroMeanSet(2)))
	_, err = c3.Constrain(context.Background(), batch.NewSliceSource([][]float64{{1, 2}}))
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	// Variability width differs from the observations.
	cv := trainedIdentity(t, []float64{1, 2}, emulator.WithObsVariability([]float64{1}))
	_, err = cv.Constrain(context.Background(), batch.NewSliceSource([][]float64{{1, 2}, {1, 2}}))
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	// Source width differs from the inputs.
	_, err = c.Constrain(context.Background(), batch.NewSliceSource([][]float64{{1, 2, 3}}))
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	// One candidate: unconstrained moments are degenerate.
	_, err = c.Constrain(context.Background(), batch.NewSliceSource([][]float64{{1, 2}}))
	assert.ErrorIs(t, err, stream.ErrDegenerateSampleSet)
}
