// SPDX-License-Identifier: MIT

package metrics_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/gcem/batch"
	"github.com/katalvlaran/gcem/metrics"
)

func newTestCollectors(t *testing.T) (*metrics.Collectors, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)

	return c, reg
}

func TestNew_DoubleRegistrationFails(t *testing.T) {
	t.Parallel()

	_, reg := newTestCollectors(t)
	_, err := metrics.New(reg)
	assert.Error(t, err)
}

func TestProgressObserver_CountsDeltas(t *testing.T) {
	t.Parallel()

	c, reg := newTestCollectors(t)
	var obs batch.Observer = c.ProgressObserver("constrain")
	obs.Observe(1000, 2500)
	obs.Observe(2000, 2500)
	obs.Observe(2500, 2500)
	// A new run restarts the cumulative count.
	obs.Observe(10, 20)

	expected := `
# HELP gcem_samples_processed_total Candidate samples pushed through the emulator, by operation
# TYPE gcem_samples_processed_total counter
gcem_samples_processed_total{op="constrain"} 2510
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "gcem_samples_processed_total"))

	expected = `
# HELP gcem_run_progress_ratio Fraction of the current run's samples processed, by operation
# TYPE gcem_run_progress_ratio gauge
gcem_run_progress_ratio{op="constrain"} 0.5
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "gcem_run_progress_ratio"))
}

func TestRecorderMethods(t *testing.T) {
	t.Parallel()

	c, reg := newTestCollectors(t)
	c.TrainingDone(1500*time.Millisecond, 42, 12.5, nil)
	c.TrainingDone(time.Second, 0, 0, errors.New("boom"))
	c.BatchDone("constrain", 1000, 17, 10*time.Millisecond)
	c.BatchDone("constrain", 500, 3, 5*time.Millisecond)
	c.BatchDone("sample", 1000, 0, time.Millisecond)
	c.RunDone("constrain", nil)
	c.RunDone("sample", errors.New("boom"))

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "gcem_training_failures_total"))

	expected := `
# HELP gcem_training_iterations Optimizer iterations of the last training run
# TYPE gcem_training_iterations gauge
gcem_training_iterations 42
# HELP gcem_training_neg_log_likelihood Negative log marginal likelihood of the last trained emulator
# TYPE gcem_training_neg_log_likelihood gauge
gcem_training_neg_log_likelihood 12.5
# HELP gcem_valid_samples_total Samples accepted by the observational constraint
# TYPE gcem_valid_samples_total counter
gcem_valid_samples_total 20
# HELP gcem_batches_processed_total Prediction batches processed, by operation
# TYPE gcem_batches_processed_total counter
gcem_batches_processed_total{op="constrain"} 2
gcem_batches_processed_total{op="sample"} 1
# HELP gcem_runs_total Completed sample/constrain runs, by operation and status
# TYPE gcem_runs_total counter
gcem_runs_total{op="constrain",status="ok"} 1
gcem_runs_total{op="sample",status="error"} 1
# HELP gcem_training_failures_total Training runs that failed
# TYPE gcem_training_failures_total counter
gcem_training_failures_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"gcem_training_iterations", "gcem_training_neg_log_likelihood", "gcem_valid_samples_total",
		"gcem_batches_processed_total", "gcem_runs_total", "gcem_training_failures_total"))
}
