// SPDX-License-Identifier: MIT

package emulator_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gcem/emulator"
)

func TestOptions_PanicOnNonsense(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() { emulator.WithBatchSize(0) })
	require.Panics(t, func() { emulator.WithTolerance(0) })
	require.Panics(t, func() { emulator.WithTolerance(math.NaN()) })
	require.Panics(t, func() { emulator.WithTolerance(math.Inf(1)) })
	require.Panics(t, func() { emulator.WithQuorum(-0.1) })
	require.Panics(t, func() { emulator.WithQuorum(1.1) })
	require.Panics(t, func() { emulator.WithActiveDims() })
	require.Panics(t, func() { emulator.WithActiveDims(1, 1) })
	require.Panics(t, func() { emulator.WithActiveDims(-1) })
	require.Panics(t, func() { emulator.WithDevice(-1) })
	require.Panics(t, func() { emulator.WithMaxIterations(0) })
	require.Panics(t, func() { emulator.WithAutoActiveDims(2) })
	require.Panics(t, func() { emulator.WithLogger(nil) })
	require.Panics(t, func() { emulator.WithObserver(nil) })
	require.Panics(t, func() { emulator.WithRecorder(nil) })
	require.Panics(t, func() { emulator.WithTrainer(nil) })
	require.Panics(t, func() { emulator.WithTracerProvider(nil) })
	require.Panics(t, func() { emulator.WithDevicePool(nil) })

	require.NotPanics(t, func() {
		emulator.New(
			emulator.WithBatchSize(1),
			emulator.WithTolerance(0.5),
			emulator.WithQuorum(0),
			emulator.WithQuorum(1),
			emulator.WithActiveDims(0, 2),
			emulator.WithAutoActiveDims(0),
			emulator.WithDevice(0),
			emulator.WithMaxIterations(1),
			emulator.WithVerbose(),
			emulator.WithLogObservations(),
			nil,
		)
	})
}
