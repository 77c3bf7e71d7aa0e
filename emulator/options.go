// SPDX-License-Identifier: MIT

// Functional configuration for Model and ObsConstraint.
//
// Defaults are the single source of truth below; WithX constructors panic
// on nonsensical values (programmer error), never on data.

package emulator

import (
	"log/slog"
	"math"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/katalvlaran/gcem/batch"
	"github.com/katalvlaran/gcem/device"
	"github.com/katalvlaran/gcem/gp"
	"github.com/katalvlaran/gcem/logging"
)

const (
	// DefaultBatchSize is the number of candidates predicted per batch.
	DefaultBatchSize = 1000

	// DefaultTolerance scales var_obs into the per-dimension match window.
	DefaultTolerance = 0.5

	// DefaultQuorum is the fraction of output dimensions a sample must
	// (strictly) exceed in matches to be valid.
	DefaultQuorum = 0.8

	// DefaultDevice is the device index runs are placed on.
	DefaultDevice = 0

	// DefaultMaxIterations bounds optimizer iterations during training.
	DefaultMaxIterations = gp.DefaultMaxIterations

	// DefaultMaskThreshold is the absolute correlation ParamMask requires.
	DefaultMaskThreshold = 0.1
)

const (
	panicBatchSize     = "emulator: WithBatchSize: size must be >= 1"
	panicTolerance     = "emulator: WithTolerance: tol must be finite and > 0"
	panicQuorum        = "emulator: WithQuorum: quorum must be in [0, 1]"
	panicActiveDims    = "emulator: WithActiveDims: dims must be non-empty, distinct and >= 0"
	panicDevice        = "emulator: WithDevice: index must be >= 0"
	panicMaxIterations = "emulator: WithMaxIterations: n must be >= 1"
	panicThreshold     = "emulator: WithAutoActiveDims: threshold must be in [0, 1]"
	panicNil           = "emulator: option argument must not be nil"
)

// Option mutates Options.
type Option func(*Options)

// Options is the resolved configuration of a Model.
type Options struct {
	batchSize     int
	tolerance     float64
	quorum        float64
	activeDims    []int
	autoActive    bool
	maskThreshold float64
	device        int
	pool          *device.Pool
	maxIterations int
	observer      batch.Observer
	logger        *slog.Logger
	verbose       bool
	logObs        bool
	obsVar        []float64
	recorder      Recorder
	trainer       Trainer
	tracer        trace.Tracer
}

// WithBatchSize sets the number of candidates predicted per batch.
func WithBatchSize(size int) Option {
	if size < 1 {
		panic(panicBatchSize)
	}

	return func(o *Options) { o.batchSize = size }
}

// WithTolerance sets tol in |mean-obs| < var_obs·tol.
func WithTolerance(tol float64) Option {
	if !(tol > 0) || math.IsInf(tol, 0) {
		panic(panicTolerance)
	}

	return func(o *Options) { o.tolerance = tol }
}

// WithQuorum sets the fraction of output dimensions that must be
// strictly exceeded in matches.
func WithQuorum(q float64) Option {
	if !(q >= 0 && q <= 1) {
		panic(panicQuorum)
	}

	return func(o *Options) { o.quorum = q }
}

// WithActiveDims restricts the kernel to the given input columns.
// Indices are checked against the training inputs at Train time.
func WithActiveDims(dims ...int) Option {
	if len(dims) == 0 {
		panic(panicActiveDims)
	}
	seen := make(map[int]bool, len(dims))
	for _, d := range dims {
		if d < 0 || seen[d] {
			panic(panicActiveDims)
		}
		seen[d] = true
	}
	cp := slices.Clone(dims)

	return func(o *Options) {
		o.activeDims = cp
		o.autoActive = false
	}
}

// WithAutoActiveDims selects the active dimensions at Train time with
// ParamMask(inputs, outputs, threshold). A threshold of 0 means
// DefaultMaskThreshold.
func WithAutoActiveDims(threshold float64) Option {
	if !(threshold >= 0 && threshold <= 1) {
		panic(panicThreshold)
	}
	if threshold == 0 {
		threshold = DefaultMaskThreshold
	}

	return func(o *Options) {
		o.autoActive = true
		o.maskThreshold = threshold
		o.activeDims = nil
	}
}

// WithDevice places every run on device idx of the pool.
func WithDevice(idx int) Option {
	if idx < 0 {
		panic(panicDevice)
	}

	return func(o *Options) { o.device = idx }
}

// WithDevicePool replaces the process-wide default pool.
func WithDevicePool(p *device.Pool) Option {
	if p == nil {
		panic(panicNil)
	}

	return func(o *Options) { o.pool = p }
}

// WithMaxIterations bounds optimizer iterations during training.
func WithMaxIterations(n int) Option {
	if n < 1 {
		panic(panicMaxIterations)
	}

	return func(o *Options) { o.maxIterations = n }
}

// WithObserver receives progress after each batch.
func WithObserver(obs batch.Observer) Option {
	if obs == nil {
		panic(panicNil)
	}

	return func(o *Options) { o.observer = obs }
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic(panicNil)
	}

	return func(o *Options) { o.logger = l }
}

// WithVerbose logs the selected dimensions and every optimizer iteration at Info.
func WithVerbose() Option {
	return func(o *Options) { o.verbose = true }
}

// WithLogObservations declares that observations and training outputs are
// log10 values: matching happens in log space and reported moments are
// of 10^prediction.
func WithLogObservations() Option {
	return func(o *Options) { o.logObs = true }
}

// WithObsVariability overrides the observational variability var_obs,
// which otherwise is the per-dimension standard deviation of the training
// outputs. The vector is validated against the output width at Constrain.
func WithObsVariability(v []float64) Option {
	cp := slices.Clone(v)

	return func(o *Options) { o.obsVar = cp }
}

// WithRecorder receives training and batch metrics (see metrics.Collectors).
func WithRecorder(r Recorder) Option {
	if r == nil {
		panic(panicNil)
	}

	return func(o *Options) { o.recorder = r }
}

// WithTrainer replaces the Gaussian-process trainer.
func WithTrainer(t Trainer) Option {
	if t == nil {
		panic(panicNil)
	}

	return func(o *Options) { o.trainer = t }
}

// WithTracerProvider sets the OpenTelemetry provider spans are created
// from. Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	if tp == nil {
		panic(panicNil)
	}

	return func(o *Options) { o.tracer = tp.Tracer(tracerName) }
}

const tracerName = "github.com/katalvlaran/gcem/emulator"

func defaultOptions() Options {
	return Options{
		batchSize:     DefaultBatchSize,
		tolerance:     DefaultTolerance,
		quorum:        DefaultQuorum,
		maskThreshold: DefaultMaskThreshold,
		device:        DefaultDevice,
		maxIterations: DefaultMaxIterations,
		observer:      batch.NopObserver{},
		logger:        logging.Discard(),
		recorder:      nopRecorder{},
	}
}

// gatherOptions applies opts over the defaults and fills dependent fields.
func gatherOptions(opts ...Option) Options {
	o := defaultOptions()
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if o.pool == nil {
		o.pool = device.Default()
	}
	if o.tracer == nil {
		o.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	if o.trainer == nil {
		o.trainer = &GPTrainer{MaxIterations: o.maxIterations, Logger: o.logger, Verbose: o.verbose}
	}

	return o
}
