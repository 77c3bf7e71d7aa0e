// Package emulator trains Gaussian-process surrogates of expensive
// simulators and pushes large candidate sample sets through them in
// fixed-size batches.
//
// 🚀 Workflow
//
//	m, _ := emulator.New(emulator.WithBatchSize(1000))
//	_ = m.Train(ctx, emulator.TrainingSet{Inputs: X, Outputs: Y})
//	moments, _ := m.Sample(ctx, batch.NewMatrixSource(candidates))
//
// An ObsConstraint additionally compares every prediction with
// observations and keeps the samples that match on enough output
// dimensions:
//
//	c, _ := emulator.NewObsConstraint(obs, emulator.WithTolerance(0.5))
//	_ = c.Train(ctx, ts)
//	res, err := c.Constrain(ctx, src)
//	// res.Unconstrained, res.Constrained, res.Valid (one flag per candidate)
//
// ✨ Validity rule
//
// Output dimension d of a prediction matches when
// |mean[d] - obs[d]| < var_obs[d]·tol (strict), and a sample is valid when
// the number of matched dimensions is strictly greater than quorum·D.
// var_obs defaults to the across-run standard deviation of the training
// outputs; quorum defaults to 0.8.
//
// ⚙️ Numerics
//
// Training outputs are centered before fitting and the column means are
// added back to every prediction. Moments are streamed with a merge-based
// accumulator (package stream), so results do not depend on the batch
// size. Fewer than two samples, or fewer than two valid samples, are
// defined errors rather than NaNs.
package emulator
