// SPDX-License-Identifier: MIT

package kernel

import (
	"slices"
)

// Sum is the additive combination k(x, y) = Σ_i k_i(x, y).
type Sum struct {
	parts []Kernel
}

// NewSum combines parts; nested *Sum operands are flattened so Params()
// stays a flat list in left-to-right order. Nil parts are skipped.
func NewSum(parts ...Kernel) *Sum {
	flat := make([]Kernel, 0, len(parts))
	for _, p := range parts {
		switch p := p.(type) {
		case nil:
		case *Sum:
			flat = append(flat, p.parts...)
		default:
			flat = append(flat, p)
		}
	}

	return &Sum{parts: flat}
}

func (k *Sum) Eval(x, y []float64) float64 {
	var s float64
	for _, p := range k.parts {
		s += p.Eval(x, y)
	}

	return s
}

func (k *Sum) Params() []*Param {
	var ps []*Param
	for _, p := range k.parts {
		ps = append(ps, p.Params()...)
	}

	return ps
}

// ActiveDims returns the sorted union of the parts' active dimensions.
func (k *Sum) ActiveDims() []int {
	var dims []int
	for _, p := range k.parts {
		dims = append(dims, p.ActiveDims()...)
	}
	slices.Sort(dims)

	return slices.Compact(dims)
}

// Parts returns the flattened terms.
func (k *Sum) Parts() []Kernel { return slices.Clone(k.parts) }

func (k *Sum) Clone() Kernel {
	parts := make([]Kernel, len(k.parts))
	for i, p := range k.parts {
		parts[i] = p.Clone()
	}

	return &Sum{parts: parts}
}
