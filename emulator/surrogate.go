// SPDX-License-Identifier: MIT

package emulator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/gp"
	"github.com/katalvlaran/gcem/kernel"
	"github.com/katalvlaran/gcem/matrix"
)

// Surrogate is a fitted emulator backend. Predict must not mutate it, so
// one Surrogate may serve concurrent callers.
type Surrogate interface {
	// Predict returns the predictive mean and variance, both rows×OutputDim.
	Predict(ctx context.Context, x *mat.Dense) (mean, variance *mat.Dense, err error)
	InputDim() int
	OutputDim() int
}

// Trainer fits a Surrogate to centered outputs y over the active input
// columns of x.
type Trainer interface {
	Train(ctx context.Context, x, y *mat.Dense, activeDims []int) (Surrogate, *TrainReport, error)
}

// TrainReport summarizes one training run.
type TrainReport struct {
	ActiveDims []int              `json:"active_dims"`
	Iterations int                `json:"iterations"`
	NegLogLik  float64            `json:"neg_log_lik"`
	Duration   time.Duration      `json:"duration_ns"`
	Params     map[string]float64 `json:"params,omitempty"`
	Degraded   bool               `json:"degraded,omitempty"`
}

// TrainingSet pairs simulator inputs (N×P) with outputs (N×D), one row per run.
type TrainingSet struct {
	Inputs  *mat.Dense
	Outputs *mat.Dense
}

// Validate checks that both matrices are present, finite and row-aligned.
// Errors: matrix.ErrNilMatrix, matrix.ErrDimensionMismatch, matrix.ErrNaNInf.
func (ts TrainingSet) Validate() error {
	if ts.Inputs == nil || ts.Outputs == nil {
		return fmt.Errorf("emulator: TrainingSet: %w", matrix.ErrNilMatrix)
	}
	if ts.Inputs.IsEmpty() || ts.Outputs.IsEmpty() {
		return fmt.Errorf("emulator: TrainingSet: %w", matrix.ErrInvalidDimensions)
	}
	nx, _ := ts.Inputs.Dims()
	ny, _ := ts.Outputs.Dims()
	if nx != ny {
		return fmt.Errorf("emulator: TrainingSet: %d input rows, %d output rows: %w",
			nx, ny, matrix.ErrDimensionMismatch)
	}
	for _, m := range []*mat.Dense{ts.Inputs, ts.Outputs} {
		r, _ := m.Dims()
		for i := 0; i < r; i++ {
			if err := matrix.ValidateFinite(m.RawRowView(i)); err != nil {
				return fmt.Errorf("emulator: TrainingSet: row %d: %w", i, err)
			}
		}
	}

	return nil
}

// GPTrainer trains a Gaussian-process regression with the composite
// kernel of kernel.Default over the active dimensions.
type GPTrainer struct {
	MaxIterations int
	Logger        *slog.Logger
	Verbose       bool
}

// Train implements Trainer. Each optimizer iteration is added as an event
// to the span carried by ctx.
func (t *GPTrainer) Train(ctx context.Context, x, y *mat.Dense, activeDims []int) (Surrogate, *TrainReport, error) {
	k, err := kernel.Default(activeDims)
	if err != nil {
		return nil, nil, err
	}
	span := trace.SpanFromContext(ctx)
	opts := gp.DefaultOptions()
	opts.MaxIterations = t.MaxIterations
	opts.Logger = t.Logger
	opts.Verbose = t.Verbose
	opts.Observe = func(it int, negLogLik float64) {
		span.AddEvent("optimizer iteration", trace.WithAttributes(
			attribute.Int("iteration", it),
			attribute.Float64("neg_log_lik", negLogLik)))
	}

	reg, rep, err := gp.Train(ctx, x, y, k, opts)
	if err != nil {
		return nil, nil, err
	}

	return reg, &TrainReport{
		ActiveDims: append([]int(nil), activeDims...),
		Iterations: rep.Iterations,
		NegLogLik:  rep.NegLogLik,
		Duration:   rep.Duration,
		Params:     rep.Params,
		Degraded:   rep.Degraded,
	}, nil
}
