// SPDX-License-Identifier: MIT

package kernel

// Initial hyperparameter values of the default composite.
const (
	DefaultRBFLengthscale = 0.5
	DefaultRBFVariance    = 0.01
	DefaultLinearVariance = 1.0
	DefaultPolyVariance   = 1.0
	DefaultPolyOffset     = 1.0
	DefaultBiasVariance   = 1.0
)

// Default builds the emulator's composite kernel over dims:
//
//	RBF(ℓ=0.5, σ²=0.01) + Linear(v=1) + Polynomial(degree 3, v=1, c=1) + Bias(1)
//
// Errors: ErrNoActiveDims, ErrBadActiveDims.
func Default(dims []int) (*Sum, error) {
	rbf, err := NewRBF(dims, DefaultRBFVariance, DefaultRBFLengthscale)
	if err != nil {
		return nil, err
	}
	lin, err := NewLinear(dims, DefaultLinearVariance)
	if err != nil {
		return nil, err
	}
	poly, err := NewPolynomial(dims, DefaultDegree, DefaultPolyVariance, DefaultPolyOffset)
	if err != nil {
		return nil, err
	}
	bias, err := NewBias(DefaultBiasVariance)
	if err != nil {
		return nil, err
	}

	return NewSum(rbf, lin, poly, bias), nil
}
