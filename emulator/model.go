// SPDX-License-Identifier: MIT

package emulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/batch"
	"github.com/katalvlaran/gcem/matrix"
	"github.com/katalvlaran/gcem/stream"
)

// Emulator is the capability shared by Model and ObsConstraint.
type Emulator interface {
	Train(ctx context.Context, ts TrainingSet) error
	Predict(ctx context.Context, x *mat.Dense) (mean, variance *mat.Dense, err error)
	Sample(ctx context.Context, src batch.Source) (*stream.Moments, error)
	Constrain(ctx context.Context, src batch.Source) (*ConstraintResult, error)
}

var (
	_ Emulator = (*Model)(nil)
	_ Emulator = (*ObsConstraint)(nil)
)

// fitted is the immutable result of one successful Train.
type fitted struct {
	surrogate Surrogate
	means     []float64 // training output column means, added back to predictions
	outputSD  []float64 // across-run sd of training outputs; nil when N < 2
	inDim     int
	outDim    int
	report    TrainReport
}

// Model is a trainable emulator. Train may be called again to refit; the
// fitted state is swapped atomically so concurrent readers see either the
// old or the new fit.
type Model struct {
	opts Options

	mu  sync.RWMutex
	fit *fitted
}

// New returns an untrained Model.
func New(opts ...Option) *Model {
	return &Model{opts: gatherOptions(opts...)}
}

// Trained reports whether Train has succeeded at least once.
func (m *Model) Trained() bool {
	return m.snapshot() != nil
}

// Report returns the summary of the last successful Train.
// Errors: ErrNotTrained.
func (m *Model) Report() (TrainReport, error) {
	f := m.snapshot()
	if f == nil {
		return TrainReport{}, ErrNotTrained
	}

	return f.report, nil
}

// ActiveDims returns the input columns the kernel was restricted to.
func (m *Model) ActiveDims() []int {
	f := m.snapshot()
	if f == nil {
		return nil
	}

	return append([]int(nil), f.report.ActiveDims...)
}

func (m *Model) snapshot() *fitted {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.fit
}

// Train fits the surrogate on ts.
//
// Implementation:
//   - Stage 1: validate ts and center the outputs by their column means.
//   - Stage 2: resolve active dimensions (explicit, ParamMask, or all).
//   - Stage 3: lease the device and run the Trainer.
//   - Stage 4: publish the fit.
//
// Errors: matrix validation errors for ts, matrix.ErrOutOfRange for bad
// active dimensions, device.ErrUnknownDevice, ctx.Err(), and
// ErrTrainingFailed wrapping any backend failure.
func (m *Model) Train(ctx context.Context, ts TrainingSet) (err error) {
	ctx, span := m.opts.tracer.Start(ctx, "emulator.Train")
	defer func() { endSpan(span, err) }()

	if err = ts.Validate(); err != nil {
		return emulatorErrorf(opTrain, err)
	}
	n, p := ts.Inputs.Dims()
	_, d := ts.Outputs.Dims()
	span.SetAttributes(
		attribute.Int("gcem.train.rows", n),
		attribute.Int("gcem.train.inputs", p),
		attribute.Int("gcem.train.outputs", d))

	// Stage 1: centering.
	Y, err := matrix.FromGonum(ts.Outputs)
	if err != nil {
		return emulatorErrorf(opTrain, err)
	}
	Yc, means, err := matrix.CenterColumns(Y)
	if err != nil {
		return emulatorErrorf(opTrain, err)
	}
	yc, err := matrix.ToGonum(Yc)
	if err != nil {
		return emulatorErrorf(opTrain, err)
	}
	var sd []float64
	if n >= 2 {
		if sd, err = matrix.ColumnStdDev(Y); err != nil {
			return emulatorErrorf(opTrain, err)
		}
	}

	// Stage 2: active dimensions.
	level := slog.LevelDebug
	if m.opts.verbose {
		level = slog.LevelInfo
	}
	active, err := m.resolveActiveDims(ctx, ts, level)
	if err != nil {
		return emulatorErrorf(opTrain, err)
	}
	span.SetAttributes(attribute.IntSlice("gcem.train.active_dims", active))
	m.opts.logger.Log(ctx, level, "training emulator",
		slog.Int("rows", n),
		slog.Int("outputs", d),
		slog.Any("active_dims", active))

	// Stage 3: training on the leased device.
	lease, err := m.opts.pool.Acquire(ctx, m.opts.device)
	if err != nil {
		return emulatorErrorf(opTrain, err)
	}
	defer lease.Release()

	start := time.Now()
	s, rep, err := m.opts.trainer.Train(ctx, ts.Inputs, yc, active)
	if err != nil {
		m.opts.recorder.TrainingDone(time.Since(start), 0, math.NaN(), err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return emulatorErrorf(opTrain, err)
		}
		return fmt.Errorf("emulator: %s: %w: %w", opTrain, ErrTrainingFailed, err)
	}
	if s == nil {
		err = errors.New("trainer returned no surrogate")
		m.opts.recorder.TrainingDone(time.Since(start), 0, math.NaN(), err)
		return fmt.Errorf("emulator: %s: %w: %w", opTrain, ErrTrainingFailed, err)
	}
	if s.InputDim() != p || s.OutputDim() != d {
		err = fmt.Errorf("surrogate is %d→%d, want %d→%d: %w",
			s.InputDim(), s.OutputDim(), p, d, matrix.ErrDimensionMismatch)
		m.opts.recorder.TrainingDone(time.Since(start), 0, math.NaN(), err)
		return fmt.Errorf("emulator: %s: %w: %w", opTrain, ErrTrainingFailed, err)
	}
	if rep == nil {
		rep = &TrainReport{}
	}
	if rep.ActiveDims == nil {
		rep.ActiveDims = append([]int(nil), active...)
	}
	if rep.Duration == 0 {
		rep.Duration = time.Since(start)
	}
	m.opts.recorder.TrainingDone(rep.Duration, rep.Iterations, rep.NegLogLik, nil)
	span.SetAttributes(
		attribute.Int("gcem.train.iterations", rep.Iterations),
		attribute.Float64("gcem.train.neg_log_lik", rep.NegLogLik))
	m.opts.logger.Log(ctx, level, "emulator trained",
		slog.Int("iterations", rep.Iterations),
		slog.Float64("neg_log_lik", rep.NegLogLik),
		slog.Bool("degraded", rep.Degraded),
		slog.Duration("duration", rep.Duration))

	// Stage 4: publish.
	m.mu.Lock()
	m.fit = &fitted{
		surrogate: s,
		means:     means,
		outputSD:  sd,
		inDim:     p,
		outDim:    d,
		report:    *rep,
	}
	m.mu.Unlock()

	return nil
}

// resolveActiveDims applies WithActiveDims or WithAutoActiveDims, falling
// back to every input column.
func (m *Model) resolveActiveDims(ctx context.Context, ts TrainingSet, level slog.Level) ([]int, error) {
	_, p := ts.Inputs.Dims()
	switch {
	case m.opts.activeDims != nil:
		if err := matrix.ValidateIndices(m.opts.activeDims, p); err != nil {
			return nil, err
		}
		return append([]int(nil), m.opts.activeDims...), nil

	case m.opts.autoActive:
		C, err := correlations(ts.Inputs, ts.Outputs)
		if err != nil {
			return nil, emulatorErrorf(opParamMask, err)
		}
		dims := selectCorrelated(C, m.opts.maskThreshold)
		m.opts.logger.Log(ctx, level, "input/output correlations",
			slog.Float64("threshold", m.opts.maskThreshold),
			slog.Any("selected", dims),
			slog.String("correlation", C.String()))
		if len(dims) > 0 {
			return dims, nil
		}
		m.opts.logger.Warn("no input reaches the correlation threshold; using all inputs",
			slog.Float64("threshold", m.opts.maskThreshold))
	}

	all := make([]int, p)
	for i := range all {
		all[i] = i
	}

	return all, nil
}

// Predict returns the de-centered predictive mean and the predictive
// variance for the rows of x, both rows×OutputDim.
//
// Errors: ErrNotTrained, matrix.ErrDimensionMismatch, backend errors.
func (m *Model) Predict(ctx context.Context, x *mat.Dense) (mean, variance *mat.Dense, err error) {
	f := m.snapshot()
	if f == nil {
		return nil, nil, emulatorErrorf(opPredict, ErrNotTrained)
	}
	if x == nil || x.IsEmpty() {
		return nil, nil, emulatorErrorf(opPredict, matrix.ErrNilMatrix)
	}
	if _, c := x.Dims(); c != f.inDim {
		return nil, nil, emulatorErrorf(opPredict,
			fmt.Errorf("%d columns want %d: %w", c, f.inDim, matrix.ErrDimensionMismatch))
	}

	mean, variance, err = f.predict(ctx, x)
	if err != nil {
		return nil, nil, emulatorErrorf(opPredict, err)
	}

	return mean, variance, nil
}

func (f *fitted) predict(ctx context.Context, x *mat.Dense) (mean, variance *mat.Dense, err error) {
	mean, variance, err = f.surrogate.Predict(ctx, x)
	if err != nil {
		return nil, nil, err
	}
	r, _ := mean.Dims()
	for i := 0; i < r; i++ {
		row := mean.RawRowView(i)
		for j, mu := range f.means {
			row[j] += mu
		}
	}

	return mean, variance, nil
}

// Sample streams every candidate of src through the emulator and returns
// the mean and standard deviation (N-1 divisor) of the predictive means
// per output dimension. With WithLogObservations the moments are of
// 10^prediction.
//
// Errors: ErrNotTrained, matrix.ErrDimensionMismatch, batch errors,
// stream.ErrDegenerateSampleSet (fewer than two candidates), ctx.Err().
func (m *Model) Sample(ctx context.Context, src batch.Source) (_ *stream.Moments, err error) {
	ctx, span := m.opts.tracer.Start(ctx, "emulator.Sample")
	defer func() {
		m.opts.recorder.RunDone(opSample, err)
		endSpan(span, err)
	}()

	f := m.snapshot()
	if f == nil {
		return nil, emulatorErrorf(opSample, ErrNotTrained)
	}
	acc := stream.NewAccumulator(f.outDim)
	err = m.forEachBatch(ctx, f, opSample, src, func(_ batch.Batch, mean *mat.Dense) (int, error) {
		return 0, acc.AddBatch(m.represent(mean), nil)
	})
	if err != nil {
		return nil, emulatorErrorf(opSample, err)
	}

	moments, err := acc.Finalize()
	if err != nil {
		return nil, emulatorErrorf(opSample, err)
	}
	span.SetAttributes(attribute.Int("gcem.samples", moments.Count))

	return moments, nil
}

// Constrain is not supported by the base emulator, which has no
// observations: it always returns ErrNotSupported. Use ObsConstraint.
func (m *Model) Constrain(context.Context, batch.Source) (*ConstraintResult, error) {
	return nil, emulatorErrorf(opConstrain, ErrNotSupported)
}

// batchFunc consumes the de-centered predictive means of one batch and
// returns how many of its samples were valid.
type batchFunc func(b batch.Batch, mean *mat.Dense) (valid int, err error)

// forEachBatch predicts src batch by batch on the leased device, calling
// fn once per batch in order. Cancellation is checked between batches.
func (m *Model) forEachBatch(ctx context.Context, f *fitted, op string, src batch.Source, fn batchFunc) error {
	b, err := batch.NewBatcher(src, m.opts.batchSize)
	if err != nil {
		return err
	}
	if src.Dims() != f.inDim {
		return fmt.Errorf("source has %d dims want %d: %w", src.Dims(), f.inDim, matrix.ErrDimensionMismatch)
	}
	lease, err := m.opts.pool.Acquire(ctx, m.opts.device)
	if err != nil {
		return err
	}
	defer lease.Release()

	total, done := b.Total(), 0
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("gcem.batch.size", m.opts.batchSize),
		attribute.Int("gcem.batch.count", b.Count()),
		attribute.Int("gcem.device", lease.Device()))
	for b.Next() {
		if err = ctx.Err(); err != nil {
			return err
		}
		cur := b.Batch()
		start := time.Now()
		mean, _, err := f.predict(ctx, cur.X)
		if err != nil {
			return fmt.Errorf("batch at %d: %w", cur.Offset, err)
		}
		valid, err := fn(cur, mean)
		if err != nil {
			return fmt.Errorf("batch at %d: %w", cur.Offset, err)
		}
		m.opts.recorder.BatchDone(op, cur.Len(), valid, time.Since(start))
		done += cur.Len()
		m.opts.observer.Observe(done, total)
	}

	return b.Err()
}

// represent maps predictive means into the space moments are reported in.
func (m *Model) represent(mean *mat.Dense) *mat.Dense {
	if !m.opts.logObs {
		return mean
	}
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return math.Pow(10, v) }, mean)

	return &out
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
