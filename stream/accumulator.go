// SPDX-License-Identifier: MIT

package stream

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDegenerateSampleSet is returned by Finalize when fewer than two rows
	// were accumulated, so the N-1 standard deviation is undefined.
	ErrDegenerateSampleSet = errors.New("stream: at least two samples required")

	// ErrDimensionMismatch indicates a row, batch, mask or peer accumulator
	// whose width does not match the accumulator.
	ErrDimensionMismatch = errors.New("stream: dimension mismatch")
)

// Moments is the finalized per-dimension summary of a sample set.
type Moments struct {
	Mean   []float64 `json:"mean"`   // per-dimension mean
	StdDev []float64 `json:"stddev"` // per-dimension sample standard deviation (N-1 divisor)
	Count  int       `json:"count"`  // number of rows summarized
}

// Accumulator folds rows into running per-dimension moments.
//
// State per dimension j: the running mean, M2 (sum of squared deviations
// from the running mean) and, for observability, the raw sums Σx and Σx².
// Every update is a Chan et al. merge of the current state with the
// incoming block, which makes the final Moments independent of batching.
//
// An Accumulator is not safe for concurrent use; shard and Merge instead.
type Accumulator struct {
	dim   int
	count int
	mean  []float64
	m2    []float64
	sum   []float64
	sumSq []float64

	// scratch for batch merges
	bMean []float64
	bM2   []float64
}

// NewAccumulator returns an empty accumulator over dim dimensions.
// Panics if dim <= 0.
func NewAccumulator(dim int) *Accumulator {
	if dim <= 0 {
		panic("stream: NewAccumulator: dim must be positive")
	}

	return &Accumulator{
		dim:   dim,
		mean:  make([]float64, dim),
		m2:    make([]float64, dim),
		sum:   make([]float64, dim),
		sumSq: make([]float64, dim),
		bMean: make([]float64, dim),
		bM2:   make([]float64, dim),
	}
}

// Dims returns the row width the accumulator expects.
func (a *Accumulator) Dims() int { return a.dim }

// Count returns the number of rows absorbed so far.
func (a *Accumulator) Count() int { return a.count }

// Add absorbs one row (Welford update).
func (a *Accumulator) Add(row []float64) error {
	if len(row) != a.dim {
		return fmt.Errorf("stream: Add: len %d want %d: %w", len(row), a.dim, ErrDimensionMismatch)
	}
	a.count++
	n := float64(a.count)
	for j, x := range row {
		delta := x - a.mean[j]
		a.mean[j] += delta / n
		a.m2[j] += delta * (x - a.mean[j])
		a.sum[j] += x
		a.sumSq[j] += x * x
	}

	return nil
}

// AddBatch absorbs the rows of rows whose keep flag is true. A nil keep
// absorbs every row. The batch is reduced to its own count, mean and M2
// (two passes over the batch) and merged in one step.
//
// Errors: ErrDimensionMismatch when the column count differs from Dims or
// len(keep) differs from the row count.
//
// Complexity: O(rows·dim), no allocation.
func (a *Accumulator) AddBatch(rows mat.Matrix, keep []bool) error {
	r, c := rows.Dims()
	if c != a.dim {
		return fmt.Errorf("stream: AddBatch: %d columns want %d: %w", c, a.dim, ErrDimensionMismatch)
	}
	if keep != nil && len(keep) != r {
		return fmt.Errorf("stream: AddBatch: mask length %d want %d: %w", len(keep), r, ErrDimensionMismatch)
	}

	// Stage 1: batch count and mean.
	nb := 0
	for j := range a.bMean {
		a.bMean[j] = 0
		a.bM2[j] = 0
	}
	var i, j int
	for i = 0; i < r; i++ {
		if keep != nil && !keep[i] {
			continue
		}
		nb++
		for j = 0; j < c; j++ {
			x := rows.At(i, j)
			a.bMean[j] += x
			a.sum[j] += x
			a.sumSq[j] += x * x
		}
	}
	if nb == 0 {
		return nil
	}
	floats.Scale(1/float64(nb), a.bMean)

	// Stage 2: batch M2 around its own mean.
	for i = 0; i < r; i++ {
		if keep != nil && !keep[i] {
			continue
		}
		for j = 0; j < c; j++ {
			d := rows.At(i, j) - a.bMean[j]
			a.bM2[j] += d * d
		}
	}

	// Stage 3: merge.
	a.merge(nb, a.bMean, a.bM2)

	return nil
}

// Merge folds the state of o into a. o is left unchanged.
func (a *Accumulator) Merge(o *Accumulator) error {
	if o.dim != a.dim {
		return fmt.Errorf("stream: Merge: %d dims want %d: %w", o.dim, a.dim, ErrDimensionMismatch)
	}
	if o.count == 0 {
		return nil
	}
	floats.Add(a.sum, o.sum)
	floats.Add(a.sumSq, o.sumSq)
	a.merge(o.count, o.mean, o.m2)

	return nil
}

// merge combines the running state with a block of nb rows summarized by
// (mb, m2b): n = na+nb, δ = mb-ma, mean = ma + δ·nb/n, M2 = M2a + M2b + δ²·na·nb/n.
func (a *Accumulator) merge(nb int, mb, m2b []float64) {
	na := float64(a.count)
	nbf := float64(nb)
	n := na + nbf
	for j := range a.mean {
		delta := mb[j] - a.mean[j]
		a.mean[j] += delta * nbf / n
		a.m2[j] += m2b[j] + delta*delta*na*nbf/n
	}
	a.count += nb
}

// Sum returns a copy of the per-dimension running sum Σx.
func (a *Accumulator) Sum() []float64 { return append([]float64(nil), a.sum...) }

// SumSquares returns a copy of the per-dimension running sum Σx².
func (a *Accumulator) SumSquares() []float64 { return append([]float64(nil), a.sumSq...) }

// Reset clears all state, keeping the dimension.
func (a *Accumulator) Reset() {
	a.count = 0
	for j := 0; j < a.dim; j++ {
		a.mean[j], a.m2[j], a.sum[j], a.sumSq[j] = 0, 0, 0, 0
	}
}

// Finalize returns the moments of everything absorbed so far. It does not
// consume the state, so calling it twice yields identical results.
//
// Errors: ErrDegenerateSampleSet when Count() < 2.
func (a *Accumulator) Finalize() (*Moments, error) {
	if a.count < 2 {
		return nil, fmt.Errorf("stream: Finalize: %d samples: %w", a.count, ErrDegenerateSampleSet)
	}
	m := &Moments{
		Mean:   append([]float64(nil), a.mean...),
		StdDev: make([]float64, a.dim),
		Count:  a.count,
	}
	inv := 1 / float64(a.count-1)
	for j, v := range a.m2 {
		if v < 0 {
			v = 0
		}
		m.StdDev[j] = math.Sqrt(v * inv)
	}

	return m, nil
}
