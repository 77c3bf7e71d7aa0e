// SPDX-License-Identifier: MIT

package stream_test

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/gcem/stream"
)

// ExampleAccumulator folds two batches and keeps only flagged rows of the second.
func ExampleAccumulator() {
	acc := stream.NewAccumulator(1)
	_ = acc.AddBatch(mat.NewDense(2, 1, []float64{1, 2}), nil)
	_ = acc.AddBatch(mat.NewDense(3, 1, []float64{3, 40, 5}), []bool{true, false, true})

	m, _ := acc.Finalize()
	fmt.Printf("n=%d mean=%.1f sd=%.4f\n", m.Count, m.Mean[0], m.StdDev[0])

	// Output:
	// n=4 mean=2.8 sd=1.7078
}
