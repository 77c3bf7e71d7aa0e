// SPDX-License-Identifier: MIT

package kernel

import (
	"math"
	"slices"
)

// RBF is the squared-exponential kernel with automatic relevance
// determination: σ²·exp(-½·Σ_k ((x[d_k]-y[d_k])/ℓ_k)²).
type RBF struct {
	dims        []int
	variance    *Param
	lengthscale []*Param
}

// NewRBF builds an RBF over dims with one shared initial lengthscale value
// (optimized per dimension afterwards) and an initial variance.
func NewRBF(dims []int, variance, lengthscale float64) (*RBF, error) {
	d, err := checkDims("NewRBF", dims)
	if err != nil {
		return nil, err
	}
	v, err := NewParam("rbf.variance", variance)
	if err != nil {
		return nil, kernelErrorf("NewRBF", err)
	}
	ls, err := perDim("rbf.lengthscale", d, lengthscale)
	if err != nil {
		return nil, kernelErrorf("NewRBF", err)
	}

	return &RBF{dims: d, variance: v, lengthscale: ls}, nil
}

func (k *RBF) Eval(x, y []float64) float64 {
	var r2 float64
	for i, d := range k.dims {
		z := (x[d] - y[d]) / k.lengthscale[i].Value
		r2 += z * z
	}

	return k.variance.Value * math.Exp(-0.5*r2)
}

// Params returns the variance followed by the lengthscales in dims order.
func (k *RBF) Params() []*Param {
	return append([]*Param{k.variance}, k.lengthscale...)
}

func (k *RBF) ActiveDims() []int { return slices.Clone(k.dims) }

func (k *RBF) Clone() Kernel {
	return &RBF{dims: slices.Clone(k.dims), variance: k.variance.clone(), lengthscale: cloneParams(k.lengthscale)}
}
