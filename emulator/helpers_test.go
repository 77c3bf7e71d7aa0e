// SPDX-License-Identifier: MIT

package emulator_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/emulator"
)

// identity predicts its input: mean = x, variance = 0. With fewer outputs
// than inputs it keeps the leading columns. Combined with a zero-mean
// training output it makes predictions fully deterministic.
type identity struct{ in, out int }

func (s identity) Predict(_ context.Context, x *mat.Dense) (mean, variance *mat.Dense, err error) {
	r, _ := x.Dims()
	mean = mat.NewDense(r, s.out, nil)
	mean.Copy(x)
	variance = mat.NewDense(r, s.out, nil)

	return mean, variance, nil
}

func (s identity) InputDim() int  { return s.in }
func (s identity) OutputDim() int { return s.out }

// stubTrainer returns identity (or err) and records what it was given.
type stubTrainer struct {
	err  error
	none bool // succeed without a surrogate

	mu     sync.Mutex
	calls  int
	y      *mat.Dense
	active []int
}

func (t *stubTrainer) Train(_ context.Context, x, y *mat.Dense, activeDims []int) (emulator.Surrogate, *emulator.TrainReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.y = mat.DenseCopyOf(y)
	t.active = append([]int(nil), activeDims...)
	if t.err != nil {
		return nil, nil, t.err
	}
	if t.none {
		return nil, &emulator.TrainReport{}, nil
	}
	_, p := x.Dims()
	_, d := y.Dims()

	return identity{in: p, out: d}, &emulator.TrainReport{Iterations: 1}, nil
}

// zeroMeanSet is a 2-run training set whose outputs are {-1, 1} in every
// column: zero mean, sample sd sqrt(2).
func zeroMeanSet(dim int) emulator.TrainingSet {
	x := mat.NewDense(2, dim, nil)
	y := mat.NewDense(2, dim, nil)
	for j := 0; j < dim; j++ {
		x.Set(0, j, -1)
		x.Set(1, j, 1)
		y.Set(0, j, -1)
		y.Set(1, j, 1)
	}

	return emulator.TrainingSet{Inputs: x, Outputs: y}
}

// trainedIdentity returns a trained ObsConstraint backed by identity.
func trainedIdentity(t *testing.T, obs []float64, opts ...emulator.Option) *emulator.ObsConstraint {
	t.Helper()
	opts = append([]emulator.Option{emulator.WithTrainer(&stubTrainer{})}, opts...)
	c, err := emulator.NewObsConstraint(obs, opts...)
	require.NoError(t, err)
	require.NoError(t, c.Train(context.Background(), zeroMeanSet(len(obs))))

	return c
}

func column(rows [][]float64, j int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r[j]
	}

	return out
}
