// SPDX-License-Identifier: MIT

package gp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/katalvlaran/gcem/kernel"
)

// Report summarizes one Train call.
type Report struct {
	Iterations  int                // L-BFGS major iterations
	Evaluations int                // objective evaluations (including finite differences)
	Status      string             // optimizer termination status
	NegLogLik   float64            // -log p(Y) at the returned hyperparameters
	Duration    time.Duration      // wall time of the optimization
	Params      map[string]float64 // final hyperparameters by name, including "likelihood.variance"
	Degraded    bool               // the optimizer reported an error but left a usable location
}

// Train maximizes the log marginal likelihood of (x, y) over the
// hyperparameters of k and the likelihood variance, then fits.
//
// Implementation:
//   - Stage 1: validate shapes and clone k (the caller's kernel is not mutated).
//   - Stage 2: map every hyperparameter to its unconstrained coordinate.
//   - Stage 3: minimize -log p(Y) with L-BFGS; gradients by central finite differences.
//   - Stage 4: on optimizer error, keep the returned location if it is finite
//     (logged as a warning, Report.Degraded); otherwise fail.
//   - Stage 5: Fit at the optimum.
//
// Errors: ErrEmptyInput, ErrShape, kernel.ErrInputTooNarrow,
// ErrOptimizationFailed, ErrNotPositiveDefinite, ctx.Err().
func Train(ctx context.Context, x, y *mat.Dense, k kernel.Kernel, opts Options) (*Regression, *Report, error) {
	opts = opts.normalized()
	if err := checkTraining(x, y, k); err != nil {
		return nil, nil, gpErrorf(opTrain, err)
	}
	noise, err := kernel.NewBoundedParam("likelihood.variance", opts.NoiseVariance, opts.NoiseLower, opts.NoiseUpper)
	if err != nil {
		return nil, nil, gpErrorf(opTrain, err)
	}
	work := k.Clone()
	m := len(work.Params())

	u0 := append(kernel.Unconstrained(work), noise.Unconstrained())

	// objective is pure in u so finite differences may run concurrently.
	objective := func(u []float64) float64 {
		kk := work.Clone()
		if err := kernel.SetUnconstrained(kk, u[:m]); err != nil {
			return math.Inf(1)
		}
		nz := *noise
		nz.SetUnconstrained(u[m])
		post, err := factorize(kk, nz.Value, x, y)
		if err != nil {
			return math.Inf(1)
		}
		return -post.lml
	}
	fdSettings := &fd.Settings{Formula: fd.Central, Concurrent: opts.Concurrency > 1}
	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, u []float64) {
			fd.Gradient(grad, objective, u, fdSettings)
		},
	}
	rec := &progressRecorder{ctx: ctx, logger: opts.Logger, verbose: opts.Verbose, observe: opts.Observe}
	settings := &optimize.Settings{
		MajorIterations: opts.MaxIterations,
		Recorder:        rec,
	}

	start := time.Now()
	res, err := optimize.Minimize(problem, u0, settings, &optimize.LBFGS{})
	report := &Report{Duration: time.Since(start)}
	if cerr := ctx.Err(); cerr != nil {
		return nil, nil, gpErrorf(opTrain, cerr)
	}
	if res == nil || len(res.X) != len(u0) || math.IsNaN(res.F) || math.IsInf(res.F, 0) {
		if err == nil {
			err = errors.New("no finite location")
		}
		return nil, nil, gpErrorf(opTrain, fmt.Errorf("%v: %w", err, ErrOptimizationFailed))
	}
	if err != nil {
		report.Degraded = true
		opts.Logger.Warn("hyperparameter optimization did not converge cleanly; using best location",
			slog.String("error", err.Error()),
			slog.String("status", res.Status.String()),
			slog.Float64("neg_log_lik", res.F))
	}

	if err = kernel.SetUnconstrained(work, res.X[:m]); err != nil {
		return nil, nil, gpErrorf(opTrain, err)
	}
	noise.SetUnconstrained(res.X[m])

	reg, err := fit(x, y, work, noise.Value, opts.Concurrency)
	if err != nil {
		return nil, nil, gpErrorf(opTrain, err)
	}

	report.Iterations = res.Stats.MajorIterations
	report.Evaluations = res.Stats.FuncEvaluations
	report.Status = res.Status.String()
	report.NegLogLik = -reg.lml
	report.Params = make(map[string]float64, m+1)
	for _, p := range work.Params() {
		report.Params[p.Name] = p.Value
	}
	report.Params[noise.Name] = noise.Value

	opts.Logger.Debug("hyperparameters optimized",
		slog.Int("iterations", report.Iterations),
		slog.Int("evaluations", report.Evaluations),
		slog.String("status", report.Status),
		slog.Float64("neg_log_lik", report.NegLogLik),
		slog.Float64("noise_variance", noise.Value),
		slog.Duration("duration", report.Duration))

	return reg, report, nil
}

// progressRecorder logs major iterations and aborts on context cancellation.
type progressRecorder struct {
	ctx     context.Context
	logger  *slog.Logger
	verbose bool
	observe func(int, float64)
	iter    int
}

func (r *progressRecorder) Init() error {
	r.iter = 0

	return r.ctx.Err()
}

func (r *progressRecorder) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if op != optimize.MajorIteration {
		return nil
	}
	r.iter++
	if r.observe != nil {
		r.observe(r.iter, loc.F)
	}
	level := slog.LevelDebug
	if r.verbose {
		level = slog.LevelInfo
	}
	r.logger.Log(r.ctx, level, "optimizer iteration",
		slog.Int("iteration", r.iter),
		slog.Float64("neg_log_lik", loc.F))

	return nil
}
