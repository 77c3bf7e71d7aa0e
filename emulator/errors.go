// SPDX-License-Identifier: MIT

package emulator

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/gcem/stream"
)

var (
	// ErrTrainingFailed wraps any backend failure during Train.
	ErrTrainingFailed = errors.New("emulator: training failed")

	// ErrNotTrained indicates Predict, Sample or Constrain before a successful Train.
	ErrNotTrained = errors.New("emulator: model not trained")

	// ErrNotSupported is returned by Model.Constrain: the base emulator has
	// no observations to constrain against.
	ErrNotSupported = errors.New("emulator: operation not supported by this emulator")

	// ErrNoValidSamples indicates fewer than two samples passed the
	// constraint, so constrained moments are undefined.
	ErrNoValidSamples = fmt.Errorf("emulator: fewer than two valid samples: %w", stream.ErrDegenerateSampleSet)

	// ErrBadObservations indicates an empty or non-finite observation or
	// observational-variability vector.
	ErrBadObservations = errors.New("emulator: observations must be non-empty and finite")
)

const (
	opTrain     = "Train"
	opPredict   = "Predict"
	opSample    = "Sample"
	opConstrain = "Constrain"
	opParamMask = "ParamMask"
)

// emulatorErrorf tags err with the operation, keeping it matchable with errors.Is.
func emulatorErrorf(op string, err error) error {
	return fmt.Errorf("emulator: %s: %w", op, err)
}
