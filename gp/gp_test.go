// SPDX-License-Identifier: MIT

package gp_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/gp"
	"github.com/katalvlaran/gcem/kernel"
)

// toyData samples y0 = sin(3x0) + x1, y1 = 2·x0 on [0,1]² (N rows).
func toyData(seed int64, n int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		a, b := rng.Float64(), rng.Float64()
		x.Set(i, 0, a)
		x.Set(i, 1, b)
		y.Set(i, 0, math.Sin(3*a)+b)
		y.Set(i, 1, 2*a)
	}

	return x, y
}

func mustRBF(t *testing.T, dims []int) kernel.Kernel {
	t.Helper()
	k, err := kernel.NewRBF(dims, 1, 0.3)
	require.NoError(t, err)

	return k
}

func TestFit_LogMarginalLikelihoodMatchesDirect(t *testing.T) {
	t.Parallel()

	x, y := toyData(1, 6)
	k := mustRBF(t, []int{0, 1})
	const noise = 0.1

	reg, err := gp.Fit(x, y, k, noise)
	require.NoError(t, err)

	// Direct: explicit inverse and determinant.
	n, d := 6, 2
	kn := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := k.Eval(x.RawRowView(i), x.RawRowView(j))
			if i == j {
				v += noise
			}
			kn.Set(i, j, v)
		}
	}
	var inv mat.Dense
	require.NoError(t, inv.Inverse(kn))
	logDet, sign := mat.LogDet(kn)
	require.Equal(t, 1.0, sign)
	want := -0.5*float64(d)*logDet - 0.5*float64(n*d)*math.Log(2*math.Pi)
	for c := 0; c < d; c++ {
		yc := mat.NewVecDense(n, mat.Col(nil, c, y))
		want -= 0.5 * mat.Inner(yc, &inv, yc)
	}

	assert.InDelta(t, want, reg.LogMarginalLikelihood(), 1e-8)
	assert.Equal(t, noise, reg.NoiseVariance())
	assert.Equal(t, 2, reg.InputDim())
	assert.Equal(t, 2, reg.OutputDim())
	assert.Equal(t, 6, reg.NumTrain())
}

func TestPredict_InterpolatesWithSmallNoise(t *testing.T) {
	t.Parallel()

	// 3×3 grid; spacing 0.5 keeps the Gram matrix well conditioned.
	x := mat.NewDense(9, 2, nil)
	y := mat.NewDense(9, 2, nil)
	for i := 0; i < 9; i++ {
		a, b := 0.5*float64(i/3), 0.5*float64(i%3)
		x.SetRow(i, []float64{a, b})
		y.SetRow(i, []float64{math.Sin(3*a) + b, 2 * a})
	}
	reg, err := gp.Fit(x, y, mustRBF(t, []int{0, 1}), 1e-6)
	require.NoError(t, err)

	mean, variance, err := reg.Predict(context.Background(), x)
	require.NoError(t, err)
	r, c := mean.Dims()
	require.Equal(t, 9, r)
	require.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.InDelta(t, y.At(i, j), mean.At(i, j), 1e-3)
		}
		assert.Less(t, variance.At(i, 0), 1e-3)
		assert.Equal(t, variance.At(i, 0), variance.At(i, 1), "variance shared across outputs")
		assert.GreaterOrEqual(t, variance.At(i, 0), 1e-6)
	}

	// Far from the data the mean reverts to zero and the variance to k(x,x)+σ²_n.
	far := mat.NewDense(1, 2, []float64{50, 50})
	mean, variance, err = reg.Predict(context.Background(), far)
	require.NoError(t, err)
	assert.InDelta(t, 0, mean.At(0, 0), 1e-9)
	assert.InDelta(t, 1+1e-6, variance.At(0, 1), 1e-9)
}

func TestPredict_BatchedEqualsRowWise(t *testing.T) {
	t.Parallel()

	x, y := toyData(3, 20)
	k, err := kernel.Default([]int{0, 1})
	require.NoError(t, err)
	reg, err := gp.Fit(x, y, k, 0.05)
	require.NoError(t, err)

	q, _ := toyData(4, 300)
	mean, variance, err := reg.Predict(context.Background(), q)
	require.NoError(t, err)

	for _, i := range []int{0, 63, 64, 65, 199, 299} {
		m1, v1, err := reg.Predict(context.Background(), mat.NewDense(1, 2, q.RawRowView(i)))
		require.NoError(t, err)
		assert.InDelta(t, m1.At(0, 0), mean.At(i, 0), 1e-9)
		assert.InDelta(t, m1.At(0, 1), mean.At(i, 1), 1e-9)
		assert.InDelta(t, v1.At(0, 0), variance.At(i, 0), 1e-9)
	}
}

func TestTrain_ImprovesLikelihood(t *testing.T) {
	t.Parallel()

	x, y := toyData(5, 25)
	k, err := kernel.Default([]int{0, 1})
	require.NoError(t, err)
	before := kernel.Unconstrained(k)

	base, err := gp.Fit(x, y, k, gp.DefaultNoiseVariance)
	require.NoError(t, err)

	var iterations int
	opts := gp.DefaultOptions()
	opts.MaxIterations = 30
	opts.Observe = func(it int, _ float64) { iterations = it }
	reg, report, err := gp.Train(context.Background(), x, y, k, opts)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, reg.LogMarginalLikelihood(), base.LogMarginalLikelihood()-1e-9)
	assert.InDelta(t, -reg.LogMarginalLikelihood(), report.NegLogLik, 1e-12)
	assert.LessOrEqual(t, report.Iterations, 30)
	assert.Positive(t, iterations)
	assert.NotEmpty(t, report.Status)
	assert.Contains(t, report.Params, "likelihood.variance")
	assert.Len(t, report.Params, len(k.Params())+1)
	for name, v := range report.Params {
		assert.GreaterOrEqual(t, v, gp.DefaultNoiseLower, name)
		assert.LessOrEqual(t, v, kernel.DefaultUpper, name)
	}

	// The caller's kernel is untouched.
	assert.Equal(t, before, kernel.Unconstrained(k))
}

func TestTrain_CancelledContext(t *testing.T) {
	t.Parallel()

	x, y := toyData(6, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := gp.Train(ctx, x, y, mustRBF(t, []int{0}), gp.DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)

	reg, err := gp.Fit(x, y, mustRBF(t, []int{0}), 0.1)
	require.NoError(t, err)
	_, _, err = reg.Predict(ctx, x)
	require.ErrorIs(t, err, context.Canceled)
}

func TestShapeErrors(t *testing.T) {
	t.Parallel()

	x, y := toyData(7, 5)
	k := mustRBF(t, []int{0, 1})

	_, err := gp.Fit(x, mat.NewDense(4, 2, nil), k, 0.1)
	assert.ErrorIs(t, err, gp.ErrShape)
	_, err = gp.Fit(nil, y, k, 0.1)
	assert.ErrorIs(t, err, gp.ErrEmptyInput)
	_, err = gp.Fit(x, y, k, 0)
	assert.ErrorIs(t, err, kernel.ErrHyperOutOfBounds)
	_, err = gp.Fit(x, y, mustRBF(t, []int{2}), 0.1)
	assert.ErrorIs(t, err, kernel.ErrInputTooNarrow)

	reg, err := gp.Fit(x, y, k, 0.1)
	require.NoError(t, err)
	_, _, err = reg.Predict(context.Background(), mat.NewDense(3, 3, nil))
	assert.ErrorIs(t, err, gp.ErrShape)
	_, _, err = reg.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, gp.ErrEmptyInput)
}

func TestFit_DuplicateRowsStillFactorize(t *testing.T) {
	t.Parallel()

	// Identical inputs make K singular; the likelihood variance keeps it PD.
	x := mat.NewDense(4, 1, []float64{0.5, 0.5, 0.5, 0.5})
	y := mat.NewDense(4, 1, []float64{1, 1.1, 0.9, 1})
	reg, err := gp.Fit(x, y, mustRBF(t, []int{0}), 1e-6)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(reg.LogMarginalLikelihood()))
}
