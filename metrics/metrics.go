// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus collectors for emulator runs.
//
// Collectors are registered on a caller-supplied registry (never the
// global one), so tests and embedding programs stay isolated:
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.New(reg)
//	model, _ := emulator.New(emulator.WithRecorder(m))
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "gcem"

	labelOp     = "op"
	labelStatus = "status"

	statusOK    = "ok"
	statusError = "error"
)

// Collectors is the set of gcem metrics. It implements emulator.Recorder.
type Collectors struct {
	samples        *prometheus.CounterVec
	batches        *prometheus.CounterVec
	valid          prometheus.Counter
	progress       *prometheus.GaugeVec
	runs           *prometheus.CounterVec
	batchDuration  *prometheus.HistogramVec
	trainDuration  prometheus.Histogram
	trainLoss      prometheus.Gauge
	trainIters     prometheus.Gauge
	trainFailures  prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_processed_total",
			Help:      "Candidate samples pushed through the emulator, by operation",
		}, []string{labelOp}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_processed_total",
			Help:      "Prediction batches processed, by operation",
		}, []string{labelOp}),
		valid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "valid_samples_total",
			Help:      "Samples accepted by the observational constraint",
		}),
		progress: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_progress_ratio",
			Help:      "Fraction of the current run's samples processed, by operation",
		}, []string{labelOp}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed sample/constrain runs, by operation and status",
		}, []string{labelOp, labelStatus}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time to predict and aggregate one batch",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{labelOp}),
		trainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Wall time of emulator training",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		trainLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_neg_log_likelihood",
			Help:      "Negative log marginal likelihood of the last trained emulator",
		}),
		trainIters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_iterations",
			Help:      "Optimizer iterations of the last training run",
		}),
		trainFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_failures_total",
			Help:      "Training runs that failed",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.samples, c.batches, c.valid, c.progress, c.runs,
		c.batchDuration, c.trainDuration, c.trainLoss, c.trainIters, c.trainFailures,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}

	return c, nil
}

// TrainingDone records one training run.
func (c *Collectors) TrainingDone(d time.Duration, iterations int, negLogLik float64, err error) {
	c.trainDuration.Observe(d.Seconds())
	if err != nil {
		c.trainFailures.Inc()
		return
	}
	c.trainIters.Set(float64(iterations))
	c.trainLoss.Set(negLogLik)
}

// BatchDone records one processed batch of rows samples, valid of which
// passed the constraint (0 for plain sampling).
func (c *Collectors) BatchDone(op string, rows, valid int, d time.Duration) {
	c.batches.WithLabelValues(op).Inc()
	c.batchDuration.WithLabelValues(op).Observe(d.Seconds())
	if valid > 0 {
		c.valid.Add(float64(valid))
	}
}

// RunDone records the outcome of a sample or constrain run.
func (c *Collectors) RunDone(op string, err error) {
	status := statusOK
	if err != nil {
		status = statusError
	}
	c.runs.WithLabelValues(op, status).Inc()
}

// ProgressObserver returns a batch.Observer that counts processed samples
// and tracks the run's progress ratio under the op label.
func (c *Collectors) ProgressObserver(op string) *ProgressObserver {
	return &ProgressObserver{
		samples:  c.samples.WithLabelValues(op),
		progress: c.progress.WithLabelValues(op),
	}
}

// ProgressObserver feeds per-batch progress into Prometheus.
type ProgressObserver struct {
	mu       sync.Mutex
	last     int
	samples  prometheus.Counter
	progress prometheus.Gauge
}

// Observe implements batch.Observer. done is cumulative; a done smaller
// than the previous value starts a new run.
func (p *ProgressObserver) Observe(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if done < p.last {
		p.last = 0
	}
	p.samples.Add(float64(done - p.last))
	p.last = done
	if total > 0 {
		p.progress.Set(float64(done) / float64(total))
	}
}
