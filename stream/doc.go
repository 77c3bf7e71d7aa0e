// Package stream provides one-pass, per-dimension moment aggregation over
// row batches of unbounded length.
//
// An Accumulator absorbs rows (singly or a batch at a time) and finalizes
// into Moments: the per-dimension mean and the sample standard deviation
// with the N-1 divisor. Aggregation is merge-based (Welford/Chan), so the
// result does not depend on how the rows were partitioned into batches,
// and two accumulators fed disjoint shards can be combined with Merge.
//
// Finalizing fewer than two rows is a defined error, ErrDegenerateSampleSet,
// never a NaN.
//
//	acc := stream.NewAccumulator(2)
//	_ = acc.Add([]float64{1, 10})
//	_ = acc.Add([]float64{3, 30})
//	m, err := acc.Finalize()   // m.Mean = [2 20], m.StdDev = [1.414… 14.14…]
package stream
