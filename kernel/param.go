// SPDX-License-Identifier: MIT

package kernel

import (
	"fmt"
	"math"
)

const (
	// DefaultLower is the default lower bound of every hyperparameter box.
	DefaultLower = 1e-6

	// DefaultUpper is the default upper bound of every hyperparameter box.
	DefaultUpper = 1e6

	// maxLogit caps |u| so sigmoid(u) never rounds to exactly 0 or 1.
	maxLogit = 30.0
)

// Param is one strictly positive hyperparameter constrained to [Lower, Upper].
type Param struct {
	Name  string
	Value float64
	Lower float64
	Upper float64
}

// NewParam returns a Param with the default box. It fails with
// ErrHyperOutOfBounds when value lies outside [DefaultLower, DefaultUpper].
func NewParam(name string, value float64) (*Param, error) {
	return NewBoundedParam(name, value, DefaultLower, DefaultUpper)
}

// NewBoundedParam returns a Param with an explicit box.
// Errors: ErrHyperOutOfBounds when lower <= 0, lower >= upper, or value ∉ [lower, upper].
func NewBoundedParam(name string, value, lower, upper float64) (*Param, error) {
	if !(lower > 0) || !(upper > lower) || math.IsInf(upper, 0) || !(value >= lower && value <= upper) {
		return nil, fmt.Errorf("kernel: param %q = %g in [%g, %g]: %w", name, value, lower, upper, ErrHyperOutOfBounds)
	}

	return &Param{Name: name, Value: value, Lower: lower, Upper: upper}, nil
}

// Unconstrained returns u with θ(u) = Value.
func (p *Param) Unconstrained() float64 {
	a, b := math.Log(p.Lower), math.Log(p.Upper)
	s := (math.Log(p.Value) - a) / (b - a)
	switch {
	case s <= 0:
		return -maxLogit
	case s >= 1:
		return maxLogit
	}

	return math.Max(-maxLogit, math.Min(maxLogit, math.Log(s)-math.Log1p(-s)))
}

// SetUnconstrained sets Value = θ(u). The result always lies in [Lower, Upper].
func (p *Param) SetUnconstrained(u float64) {
	a, b := math.Log(p.Lower), math.Log(p.Upper)
	v := math.Exp(a + (b-a)*sigmoid(u))
	p.Value = math.Min(math.Max(v, p.Lower), p.Upper)
}

func (p *Param) clone() *Param {
	cp := *p

	return &cp
}

func (p *Param) String() string {
	return fmt.Sprintf("%s=%.6g", p.Name, p.Value)
}

func sigmoid(u float64) float64 {
	if u >= 0 {
		return 1 / (1 + math.Exp(-u))
	}
	e := math.Exp(u)

	return e / (1 + e)
}

// Unconstrained flattens the hyperparameters of k into a fresh vector of
// unconstrained coordinates, in Params() order.
func Unconstrained(k Kernel) []float64 {
	ps := k.Params()
	u := make([]float64, len(ps))
	for i, p := range ps {
		u[i] = p.Unconstrained()
	}

	return u
}

// SetUnconstrained writes u back into the hyperparameters of k.
// Errors: ErrParamCount when len(u) != len(k.Params()).
func SetUnconstrained(k Kernel, u []float64) error {
	ps := k.Params()
	if len(u) != len(ps) {
		return kernelErrorf("SetUnconstrained", ErrParamCount)
	}
	for i, p := range ps {
		p.SetUnconstrained(u[i])
	}

	return nil
}
