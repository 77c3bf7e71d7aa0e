// Package batch turns a sample-point source of any length into a sequence
// of fixed-size row batches.
//
// A Source yields rows one at a time; a Batcher groups them into
// ceil(N/B) batches of B rows (the last one possibly shorter), each tagged
// with the absolute index of its first row so that per-sample results can
// be written back in input order.
//
//	b, err := batch.NewBatcher(src, 1000)
//	for b.Next() {
//		bt := b.Batch() // bt.Offset, bt.X (rows×dims)
//		...
//	}
//	if err := b.Err(); err != nil { ... }
//
// Observers receive (done, total) after each batch for progress reporting.
package batch
