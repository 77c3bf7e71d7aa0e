// Package gcem builds Gaussian-process emulators of expensive simulators
// and uses them to constrain parameter spaces against observations.
//
// 🚀 What is gcem?
//
//	A small, concurrent-safe toolkit that brings together:
//		• Training: composite RBF + Linear + Polynomial(3) + Bias kernels fitted by L-BFGS
//		• Prediction: fixed-size batches streamed from any candidate source
//		• Aggregation: mergeable running moments (mean, sd with the N-1 divisor)
//		• Constraint: per-dimension tolerance windows and a strict quorum rule
//
// ✨ Why gcem?
//
//   - Batch-size independent results: moments merge exactly across batches
//   - Defined failures: too few samples or no valid samples are errors, never NaN
//   - Observable: slog logging, Prometheus metrics and OpenTelemetry spans
//
// Under the hood, everything is organized into subpackages:
//
//	matrix/   : training-data matrix, validators and column statistics
//	kernel/   : covariance functions with bounded hyperparameters
//	gp/       : exact GP regression: fit, train, batched predict
//	stream/   : streaming moment accumulator
//	batch/    : candidate sources, batcher and progress observers
//	device/   : device pool with scoped leases
//	emulator/ : Model (train, predict, sample) and ObsConstraint (constrain)
//	logging/  : slog setup and rate-limited progress logging
//	metrics/  : Prometheus collectors
//	config/   : YAML run descriptions
//	results/  : badger archive of constraint runs
//	cmd/gcem  : command-line front end
package gcem
