// SPDX-License-Identifier: MIT

package kernel

// Bias is the constant kernel k(x, y) = σ². It reads no input dimension.
type Bias struct {
	variance *Param
}

// NewBias builds a Bias kernel with the given initial variance.
func NewBias(variance float64) (*Bias, error) {
	v, err := NewParam("bias.variance", variance)
	if err != nil {
		return nil, kernelErrorf("NewBias", err)
	}

	return &Bias{variance: v}, nil
}

func (k *Bias) Eval(_, _ []float64) float64 { return k.variance.Value }

func (k *Bias) Params() []*Param { return []*Param{k.variance} }

func (k *Bias) ActiveDims() []int { return nil }

func (k *Bias) Clone() Kernel { return &Bias{variance: k.variance.clone()} }
