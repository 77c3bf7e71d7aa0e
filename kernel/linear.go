// SPDX-License-Identifier: MIT

package kernel

import "slices"

// Linear is the dot-product kernel with per-dimension variances:
// Σ_k v_k·x[d_k]·y[d_k].
type Linear struct {
	dims      []int
	variances []*Param
}

// NewLinear builds a Linear kernel over dims with every variance set to variance.
func NewLinear(dims []int, variance float64) (*Linear, error) {
	d, err := checkDims("NewLinear", dims)
	if err != nil {
		return nil, err
	}
	vs, err := perDim("linear.variance", d, variance)
	if err != nil {
		return nil, kernelErrorf("NewLinear", err)
	}

	return &Linear{dims: d, variances: vs}, nil
}

func (k *Linear) Eval(x, y []float64) float64 { return weightedDot(k.dims, k.variances, x, y) }

func (k *Linear) Params() []*Param { return slices.Clone(k.variances) }

func (k *Linear) ActiveDims() []int { return slices.Clone(k.dims) }

func (k *Linear) Clone() Kernel {
	return &Linear{dims: slices.Clone(k.dims), variances: cloneParams(k.variances)}
}
