// SPDX-License-Identifier: MIT

package emulator

import "time"

// Recorder receives run telemetry. metrics.Collectors implements it.
type Recorder interface {
	TrainingDone(d time.Duration, iterations int, negLogLik float64, err error)
	BatchDone(op string, rows, valid int, d time.Duration)
	RunDone(op string, err error)
}

type nopRecorder struct{}

func (nopRecorder) TrainingDone(time.Duration, int, float64, error) {}
func (nopRecorder) BatchDone(string, int, int, time.Duration)       {}
func (nopRecorder) RunDone(string, error)                           {}
