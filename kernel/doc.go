// Package kernel defines the covariance functions of the emulator's
// Gaussian-process backend and the bounded hyperparameters they carry.
//
// 🚀 What is here?
//
//   - RBF: σ²·exp(-½·Σ_d ((x_d-y_d)/ℓ_d)²), one lengthscale per active dimension.
//   - Linear: Σ_d v_d·x_d·y_d, one variance per active dimension.
//   - Polynomial: (Σ_d v_d·x_d·y_d + c)^degree.
//   - Bias: a constant σ².
//   - Sum: the additive combination; nested sums are flattened.
//
// Every kernel reads only its active dimensions (column indices into the
// full input vector), so different parameter subsets can drive different
// terms of the composite.
//
// ⚙️ Hyperparameters
//
// Each hyperparameter is a *Param holding a strictly positive value inside
// a box [Lower, Upper] (default [1e-6, 1e6]). Optimizers never see the
// value directly: they work on an unconstrained real u mapped through
//
//	θ(u) = exp(log L + (log U - log L)·sigmoid(u))
//
// which keeps every trial point inside the box. See Param.Unconstrained
// and Param.SetUnconstrained.
//
// ✨ Default composite
//
// Default(dims) builds RBF + Linear + Polynomial(3) + Bias on dims with the
// initial values RBF ℓ=0.5, σ²=0.01; Linear v=1; Polynomial v=1, c=1; Bias 1.
package kernel
