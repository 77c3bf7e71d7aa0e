// SPDX-License-Identifier: MIT

package emulator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/batch"
	"github.com/katalvlaran/gcem/matrix"
	"github.com/katalvlaran/gcem/stream"
)

// ConstraintResult is the outcome of ObsConstraint.Constrain.
type ConstraintResult struct {
	Unconstrained *stream.Moments // over every candidate
	Constrained   *stream.Moments // over valid candidates; nil when fewer than two
	Valid         []bool          // one flag per candidate, in source order
	ValidCount    int
}

// ObsConstraint is a Model that can also accept or reject candidates
// against observations.
type ObsConstraint struct {
	*Model
	obs []float64
}

// NewObsConstraint returns an untrained ObsConstraint for the observation
// vector obs (one value per output dimension).
//
// Errors: ErrBadObservations when obs is empty or non-finite, or when a
// WithObsVariability vector is non-finite or negative.
func NewObsConstraint(obs []float64, opts ...Option) (*ObsConstraint, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("emulator: NewObsConstraint: %w", ErrBadObservations)
	}
	if err := matrix.ValidateFinite(obs); err != nil {
		return nil, fmt.Errorf("emulator: NewObsConstraint: %w: %w", ErrBadObservations, err)
	}
	m := New(opts...)
	if v := m.opts.obsVar; v != nil {
		if err := matrix.ValidateFinite(v); err != nil {
			return nil, fmt.Errorf("emulator: NewObsConstraint: variability: %w: %w", ErrBadObservations, err)
		}
		for _, s := range v {
			if s < 0 {
				return nil, fmt.Errorf("emulator: NewObsConstraint: negative variability: %w", ErrBadObservations)
			}
		}
	}

	return &ObsConstraint{Model: m, obs: append([]float64(nil), obs...)}, nil
}

// Observations returns a copy of the observation vector.
func (c *ObsConstraint) Observations() []float64 {
	return append([]float64(nil), c.obs...)
}

// ObsVariability returns var_obs: the WithObsVariability vector, or the
// across-run standard deviation of the training outputs.
//
// Errors: ErrNotTrained (no explicit vector and no fit),
// matrix.ErrTooFewRows (trained on a single run),
// matrix.ErrDimensionMismatch.
func (c *ObsConstraint) ObsVariability() ([]float64, error) {
	f := c.snapshot()

	return c.obsVariability(f)
}

func (c *ObsConstraint) obsVariability(f *fitted) ([]float64, error) {
	if v := c.opts.obsVar; v != nil {
		if err := matrix.ValidateVecLen(v, len(c.obs)); err != nil {
			return nil, err
		}
		return append([]float64(nil), v...), nil
	}
	if f == nil {
		return nil, ErrNotTrained
	}
	if f.outputSD == nil {
		return nil, matrix.ErrTooFewRows
	}

	return append([]float64(nil), f.outputSD...), nil
}

// Constrain streams every candidate of src through the emulator, marks
// each one valid or invalid against the observations (see EvaluateQuorum)
// and aggregates moments over all candidates and over the valid ones.
//
// Implementation:
//   - Stage 1: resolve var_obs and check it and obs against the output width.
//   - Stage 2: per batch, evaluate the quorum on the de-centered means and
//     feed both accumulators (the constrained one through the mask).
//   - Stage 3: finalize.
//
// When fewer than two candidates are valid the returned result is still
// populated (Unconstrained, Valid, ValidCount) with Constrained nil, and
// the error wraps ErrNoValidSamples.
//
// Errors: ErrNotTrained, matrix.ErrDimensionMismatch,
// stream.ErrDegenerateSampleSet (fewer than two candidates),
// ErrNoValidSamples, batch errors, ctx.Err().
func (c *ObsConstraint) Constrain(ctx context.Context, src batch.Source) (_ *ConstraintResult, err error) {
	ctx, span := c.opts.tracer.Start(ctx, "emulator.Constrain")
	defer func() {
		c.opts.recorder.RunDone(opConstrain, err)
		endSpan(span, err)
	}()

	// Stage 1.
	f := c.snapshot()
	if f == nil {
		return nil, emulatorErrorf(opConstrain, ErrNotTrained)
	}
	if f.outDim != len(c.obs) {
		return nil, emulatorErrorf(opConstrain,
			fmt.Errorf("%d observations for %d outputs: %w", len(c.obs), f.outDim, matrix.ErrDimensionMismatch))
	}
	varObs, err := c.obsVariability(f)
	if err != nil {
		return nil, emulatorErrorf(opConstrain, err)
	}

	// Stage 2.
	unc := stream.NewAccumulator(f.outDim)
	con := stream.NewAccumulator(f.outDim)
	var mask []bool
	if src != nil {
		mask = make([]bool, 0, src.Len())
	}
	err = c.forEachBatch(ctx, f, opConstrain, src, func(_ batch.Batch, mean *mat.Dense) (int, error) {
		keep, n := EvaluateQuorum(mean, c.obs, varObs, c.opts.tolerance, c.opts.quorum)
		rep := c.represent(mean)
		if err := unc.AddBatch(rep, nil); err != nil {
			return 0, err
		}
		if err := con.AddBatch(rep, keep); err != nil {
			return 0, err
		}
		mask = append(mask, keep...)
		return n, nil
	})
	if err != nil {
		return nil, emulatorErrorf(opConstrain, err)
	}

	// Stage 3.
	res := &ConstraintResult{Valid: mask, ValidCount: con.Count()}
	span.SetAttributes(
		attribute.Int("gcem.samples", unc.Count()),
		attribute.Int("gcem.samples.valid", res.ValidCount))
	if res.Unconstrained, err = unc.Finalize(); err != nil {
		return nil, emulatorErrorf(opConstrain, err)
	}
	if res.Constrained, err = con.Finalize(); err != nil {
		if errors.Is(err, stream.ErrDegenerateSampleSet) {
			err = fmt.Errorf("%d of %d valid: %w", res.ValidCount, len(mask), ErrNoValidSamples)
		}
		return res, emulatorErrorf(opConstrain, err)
	}

	return res, nil
}

// EvaluateQuorum applies the validity rule to every row of mean:
// dimension d matches when |mean[d]-obs[d]| < varObs[d]·tol, and a row is
// valid when its match count is strictly greater than quorum·D.
// It returns the per-row flags and the number of valid rows.
//
// mean must have len(obs) columns and len(varObs) == len(obs); a NaN
// prediction never matches.
//
// Complexity: O(rows·D).
func EvaluateQuorum(mean mat.Matrix, obs, varObs []float64, tol, quorum float64) ([]bool, int) {
	r, d := mean.Dims()
	need := quorum * float64(d)
	keep := make([]bool, r)
	valid := 0
	for i := 0; i < r; i++ {
		matched := 0
		for j := 0; j < d; j++ {
			if math.Abs(mean.At(i, j)-obs[j]) < varObs[j]*tol {
				matched++
			}
		}
		if float64(matched) > need {
			keep[i] = true
			valid++
		}
	}

	return keep, valid
}
