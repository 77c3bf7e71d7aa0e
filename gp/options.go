// SPDX-License-Identifier: MIT

package gp

import (
	"log/slog"
	"runtime"

	"github.com/katalvlaran/gcem/kernel"
)

const (
	// DefaultMaxIterations bounds L-BFGS major iterations.
	DefaultMaxIterations = 100

	// DefaultNoiseVariance is the initial Gaussian likelihood variance.
	DefaultNoiseVariance = 1.0

	// DefaultNoiseLower is the lower bound of the likelihood variance.
	DefaultNoiseLower = 1e-6
)

// Options configures Train.
//
// Zero values fall back to the defaults, except Logger (nil discards) and
// Observe (nil skips).
type Options struct {
	// MaxIterations bounds the optimizer's major iterations.
	MaxIterations int

	// NoiseVariance is the initial likelihood variance, kept inside
	// [NoiseLower, NoiseUpper] during optimization.
	NoiseVariance float64
	NoiseLower    float64
	NoiseUpper    float64

	// Concurrency bounds parallel work in Predict and in gradient
	// evaluation. Zero means runtime.GOMAXPROCS(0).
	Concurrency int

	// Logger receives optimizer progress. With Verbose every major
	// iteration is logged at Info; otherwise at Debug.
	Logger  *slog.Logger
	Verbose bool

	// Observe, when set, is called after each major iteration with the
	// iteration number and the negative log marginal likelihood.
	Observe func(iteration int, negLogLik float64)
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxIterations: DefaultMaxIterations,
		NoiseVariance: DefaultNoiseVariance,
		NoiseLower:    DefaultNoiseLower,
		NoiseUpper:    kernel.DefaultUpper,
		Concurrency:   runtime.GOMAXPROCS(0),
	}
}

// normalized fills zero fields from DefaultOptions.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.NoiseVariance <= 0 {
		o.NoiseVariance = d.NoiseVariance
	}
	if o.NoiseLower <= 0 {
		o.NoiseLower = d.NoiseLower
	}
	if o.NoiseUpper <= o.NoiseLower {
		o.NoiseUpper = d.NoiseUpper
	}
	if o.Concurrency <= 0 {
		o.Concurrency = d.Concurrency
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	return o
}
