// SPDX-License-Identifier: MIT

package gp

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/kernel"
)

const (
	// maxJitterAttempts bounds the diagonal jitter retries in factorize.
	maxJitterAttempts = 5

	// crossChunk is the number of query rows one Predict worker handles.
	crossChunk = 64
)

var log2Pi = math.Log(2 * math.Pi)

// Regression is a GP conditioned on training data.
type Regression struct {
	kern        kernel.Kernel
	noise       float64
	x           *mat.Dense // N×P training inputs
	chol        *mat.Cholesky
	alpha       *mat.Dense // N×D, (K+σ²_n I)⁻¹Y
	lml         float64
	concurrency int
}

// Fit conditions a GP with kernel k and likelihood variance noise on (x, y).
// The kernel is cloned; later changes to k do not affect the result.
//
// Errors: ErrEmptyInput, ErrShape, kernel.ErrInputTooNarrow, ErrNotPositiveDefinite.
//
// Complexity: O(N²·P) for the Gram matrix, O(N³) for the factorization.
func Fit(x, y *mat.Dense, k kernel.Kernel, noise float64) (*Regression, error) {
	if err := checkTraining(x, y, k); err != nil {
		return nil, gpErrorf(opFit, err)
	}
	if !(noise > 0) {
		return nil, gpErrorf(opFit, fmt.Errorf("noise %g: %w", noise, kernel.ErrHyperOutOfBounds))
	}

	return fit(x, y, k.Clone(), noise, runtime.GOMAXPROCS(0))
}

func fit(x, y *mat.Dense, k kernel.Kernel, noise float64, concurrency int) (*Regression, error) {
	post, err := factorize(k, noise, x, y)
	if err != nil {
		return nil, gpErrorf(opFit, err)
	}

	return &Regression{
		kern:        k,
		noise:       noise,
		x:           mat.DenseCopyOf(x),
		chol:        post.chol,
		alpha:       post.alpha,
		lml:         post.lml,
		concurrency: concurrency,
	}, nil
}

func checkTraining(x, y *mat.Dense, k kernel.Kernel) error {
	if x == nil || y == nil || x.IsEmpty() || y.IsEmpty() {
		return ErrEmptyInput
	}
	n, p := x.Dims()
	if m, _ := y.Dims(); m != n {
		return fmt.Errorf("%d input rows, %d output rows: %w", n, m, ErrShape)
	}

	return kernel.CheckInputWidth(k, p)
}

type posterior struct {
	chol  *mat.Cholesky
	alpha *mat.Dense
	lml   float64
}

// factorize computes the Cholesky factor of K+σ²_n I, α = (K+σ²_n I)⁻¹Y and
// the log marginal likelihood. If the factorization fails, growing jitter
// (10⁻⁸·mean diagonal, ×10 per attempt) is added to the diagonal.
func factorize(k kernel.Kernel, noise float64, x, y *mat.Dense) (*posterior, error) {
	n, _ := x.Dims()
	_, d := y.Dims()

	g := gram(k, x)
	var trace float64
	for i := 0; i < n; i++ {
		v := g.At(i, i) + noise
		g.SetSym(i, i, v)
		trace += v
	}

	chol := new(mat.Cholesky)
	jitter, added := 1e-8*trace/float64(n), 0.0
	for attempt := 0; !chol.Factorize(g); attempt++ {
		if attempt == maxJitterAttempts || math.IsNaN(trace) || math.IsInf(trace, 0) {
			return nil, ErrNotPositiveDefinite
		}
		for i := 0; i < n; i++ {
			g.SetSym(i, i, g.At(i, i)+jitter-added)
		}
		added = jitter
		jitter *= 10
	}

	alpha := new(mat.Dense)
	if err := chol.SolveTo(alpha, y); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrNotPositiveDefinite)
	}

	var fitTerm float64
	ay, yy := alpha.RawMatrix(), y.RawMatrix()
	for i := 0; i < n; i++ {
		ar := ay.Data[i*ay.Stride : i*ay.Stride+d]
		yr := yy.Data[i*yy.Stride : i*yy.Stride+d]
		for j := range ar {
			fitTerm += ar[j] * yr[j]
		}
	}
	nd := float64(n * d)
	lml := -0.5*fitTerm - 0.5*float64(d)*chol.LogDet() - 0.5*nd*log2Pi

	return &posterior{chol: chol, alpha: alpha, lml: lml}, nil
}

// gram returns the N×N kernel matrix of the rows of x.
func gram(k kernel.Kernel, x *mat.Dense) *mat.SymDense {
	n, _ := x.Dims()
	g := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		xi := x.RawRowView(i)
		for j := i; j < n; j++ {
			g.SetSym(i, j, k.Eval(xi, x.RawRowView(j)))
		}
	}

	return g
}

// LogMarginalLikelihood returns log p(Y | θ) at the fitted hyperparameters.
func (r *Regression) LogMarginalLikelihood() float64 { return r.lml }

// NoiseVariance returns the Gaussian likelihood variance.
func (r *Regression) NoiseVariance() float64 { return r.noise }

// Kernel returns a copy of the fitted kernel.
func (r *Regression) Kernel() kernel.Kernel { return r.kern.Clone() }

// InputDim returns the number of input columns Predict expects.
func (r *Regression) InputDim() int {
	_, p := r.x.Dims()

	return p
}

// OutputDim returns the number of outputs.
func (r *Regression) OutputDim() int {
	_, d := r.alpha.Dims()

	return d
}

// NumTrain returns the number of training rows.
func (r *Regression) NumTrain() int {
	n, _ := r.x.Dims()

	return n
}

// Predict returns the posterior mean (B×D) and predictive variance (B×D,
// identical across columns) at the B query rows of xs.
//
// Implementation:
//   - Stage 1: cross-covariance K* (B×N), rows computed in parallel chunks.
//   - Stage 2: mean = K*·α.
//   - Stage 3: var_i = k(x_i,x_i) - K*_i·(K+σ²_n I)⁻¹K*_iᵀ + σ²_n, floored at σ²_n.
//
// Errors: ErrEmptyInput, ErrShape, ctx.Err() when cancelled mid-way.
//
// Complexity: O(B·N·(P+N+D)).
func (r *Regression) Predict(ctx context.Context, xs *mat.Dense) (mean, variance *mat.Dense, err error) {
	if xs == nil || xs.IsEmpty() {
		return nil, nil, gpErrorf(opPredict, ErrEmptyInput)
	}
	b, p := xs.Dims()
	if p != r.InputDim() {
		return nil, nil, gpErrorf(opPredict, fmt.Errorf("%d columns, want %d: %w", p, r.InputDim(), ErrShape))
	}

	ks, err := r.crossCov(ctx, xs)
	if err != nil {
		return nil, nil, gpErrorf(opPredict, err)
	}

	mean = new(mat.Dense)
	mean.Mul(ks, r.alpha)

	var s mat.Dense // N×B
	if err = r.chol.SolveTo(&s, ks.T()); err != nil {
		return nil, nil, gpErrorf(opPredict, err)
	}
	d := r.OutputDim()
	variance = mat.NewDense(b, d, nil)
	n := r.NumTrain()
	for i := 0; i < b; i++ {
		xi := xs.RawRowView(i)
		row := ks.RawRowView(i)
		q := 0.0
		for j := 0; j < n; j++ {
			q += row[j] * s.At(j, i)
		}
		v := r.kern.Eval(xi, xi) - q
		if v < 0 {
			v = 0
		}
		v += r.noise
		vr := variance.RawRowView(i)
		for c := range vr {
			vr[c] = v
		}
	}

	return mean, variance, nil
}

// crossCov fills K*[i,n] = k(xs_i, x_n) with bounded parallelism.
func (r *Regression) crossCov(ctx context.Context, xs *mat.Dense) (*mat.Dense, error) {
	b, _ := xs.Dims()
	n := r.NumTrain()
	ks := mat.NewDense(b, n, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for lo := 0; lo < b; lo += crossChunk {
		hi := min(lo+crossChunk, b)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				xi := xs.RawRowView(i)
				row := ks.RawRowView(i)
				for j := 0; j < n; j++ {
					row[j] = r.kern.Eval(xi, r.x.RawRowView(j))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ks, nil
}
