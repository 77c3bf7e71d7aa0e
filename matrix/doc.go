// Package matrix holds the training-data layer of gcem.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with safe accessors (errors, never
//     panics) and an optional finite-value policy (NaN/Inf rejection).
//   - Column statistics over samples: ColumnMeans, CenterColumns,
//     ColumnStdDev, CrossCorrelation.
//   - Bridges to gonum (ToGonum, FromGonum) and a tensor Flatten helper for
//     N×… simulator outputs.
//
// Rows are samples (simulator runs, candidate parameter vectors) and
// columns are parameter or output dimensions everywhere in this module.
//
// See the examples in this package for usage patterns.
package matrix
