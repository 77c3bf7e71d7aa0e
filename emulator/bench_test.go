// SPDX-License-Identifier: MIT

package emulator_test

import (
	"context"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/batch"
	"github.com/katalvlaran/gcem/emulator"
)

func BenchmarkEvaluateQuorum_1000x16(b *testing.B) {
	const r, d = 1000, 16
	mean := mat.NewDense(r, d, nil)
	obs := make([]float64, d)
	varObs := make([]float64, d)
	for j := range varObs {
		varObs[j] = 1
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		emulator.EvaluateQuorum(mean, obs, varObs, emulator.DefaultTolerance, emulator.DefaultQuorum)
	}
}

func BenchmarkConstrain_10kCandidates(b *testing.B) {
	c, err := emulator.NewObsConstraint([]float64{0, 0, 0, 0},
		emulator.WithTrainer(&stubTrainer{}), emulator.WithObsVariability([]float64{1, 1, 1, 1}))
	if err != nil {
		b.Fatal(err)
	}
	if err = c.Train(context.Background(), zeroMeanSet(4)); err != nil {
		b.Fatal(err)
	}
	gen := func(i int, dst []float64) error {
		for j := range dst {
			dst[j] = float64((i*7+j)%11)/10 - 0.5
		}
		return nil
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err = c.Constrain(context.Background(), batch.NewFuncSource(10000, 4, gen)); err != nil {
			b.Fatal(err)
		}
	}
}
