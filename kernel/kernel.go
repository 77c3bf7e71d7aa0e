// SPDX-License-Identifier: MIT

package kernel

import (
	"fmt"
	"slices"
)

// Kernel is a positive semi-definite covariance function over full input
// vectors. Implementations read only their active dimensions.
type Kernel interface {
	// Eval returns k(x, y). x and y are full input rows; both must be
	// wider than the largest active dimension.
	Eval(x, y []float64) float64

	// Params returns the live hyperparameters in a stable order. Mutating
	// a returned *Param changes the kernel.
	Params() []*Param

	// ActiveDims returns the input columns the kernel reads.
	ActiveDims() []int

	// Clone returns a deep copy sharing no hyperparameter storage.
	Clone() Kernel
}

var (
	_ Kernel = (*RBF)(nil)
	_ Kernel = (*Linear)(nil)
	_ Kernel = (*Polynomial)(nil)
	_ Kernel = (*Bias)(nil)
	_ Kernel = (*Sum)(nil)
)

// checkDims validates an active-dimension set and returns a private copy.
func checkDims(op string, dims []int) ([]int, error) {
	if len(dims) == 0 {
		return nil, kernelErrorf(op, ErrNoActiveDims)
	}
	seen := make(map[int]struct{}, len(dims))
	for _, d := range dims {
		if d < 0 {
			return nil, kernelErrorf(fmt.Sprintf("%s: dim %d", op, d), ErrBadActiveDims)
		}
		if _, dup := seen[d]; dup {
			return nil, kernelErrorf(fmt.Sprintf("%s: dim %d repeated", op, d), ErrBadActiveDims)
		}
		seen[d] = struct{}{}
	}

	return slices.Clone(dims), nil
}

// CheckInputWidth reports ErrInputTooNarrow when inputs with width columns
// cannot feed every active dimension of k.
func CheckInputWidth(k Kernel, width int) error {
	dims := k.ActiveDims()
	if len(dims) == 0 {
		return nil
	}
	if m := slices.Max(dims); m >= width {
		return kernelErrorf(fmt.Sprintf("CheckInputWidth: dim %d, width %d", m, width), ErrInputTooNarrow)
	}

	return nil
}

// weightedDot returns Σ_k v_k·x[d_k]·y[d_k].
func weightedDot(dims []int, v []*Param, x, y []float64) float64 {
	var s float64
	for k, d := range dims {
		s += v[k].Value * x[d] * y[d]
	}

	return s
}

// perDim builds one Param per active dimension named prefix[d].
func perDim(prefix string, dims []int, value float64) ([]*Param, error) {
	ps := make([]*Param, len(dims))
	for k, d := range dims {
		p, err := NewParam(fmt.Sprintf("%s[%d]", prefix, d), value)
		if err != nil {
			return nil, err
		}
		ps[k] = p
	}

	return ps, nil
}

func cloneParams(ps []*Param) []*Param {
	out := make([]*Param, len(ps))
	for i, p := range ps {
		out[i] = p.clone()
	}

	return out
}
