// SPDX-License-Identifier: MIT

package kernel

import (
	"fmt"
	"math"
	"slices"
)

// DefaultDegree is the polynomial degree used by Default.
const DefaultDegree = 3

// Polynomial is (Σ_k v_k·x[d_k]·y[d_k] + c)^degree. The degree is fixed;
// the variances and the offset c are hyperparameters.
type Polynomial struct {
	dims      []int
	degree    int
	variances []*Param
	offset    *Param
}

// NewPolynomial builds a Polynomial kernel. degree must be >= 1.
func NewPolynomial(dims []int, degree int, variance, offset float64) (*Polynomial, error) {
	d, err := checkDims("NewPolynomial", dims)
	if err != nil {
		return nil, err
	}
	if degree < 1 {
		return nil, kernelErrorf(fmt.Sprintf("NewPolynomial: degree %d", degree), ErrHyperOutOfBounds)
	}
	vs, err := perDim("poly.variance", d, variance)
	if err != nil {
		return nil, kernelErrorf("NewPolynomial", err)
	}
	c, err := NewParam("poly.offset", offset)
	if err != nil {
		return nil, kernelErrorf("NewPolynomial", err)
	}

	return &Polynomial{dims: d, degree: degree, variances: vs, offset: c}, nil
}

func (k *Polynomial) Eval(x, y []float64) float64 {
	base := weightedDot(k.dims, k.variances, x, y) + k.offset.Value
	switch k.degree {
	case 1:
		return base
	case 2:
		return base * base
	case 3:
		return base * base * base
	}

	return math.Pow(base, float64(k.degree))
}

// Degree returns the fixed exponent.
func (k *Polynomial) Degree() int { return k.degree }

// Params returns the variances in dims order followed by the offset.
func (k *Polynomial) Params() []*Param {
	return append(slices.Clone(k.variances), k.offset)
}

func (k *Polynomial) ActiveDims() []int { return slices.Clone(k.dims) }

func (k *Polynomial) Clone() Kernel {
	return &Polynomial{
		dims:      slices.Clone(k.dims),
		degree:    k.degree,
		variances: cloneParams(k.variances),
		offset:    k.offset.clone(),
	}
}
