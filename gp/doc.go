// Package gp is the exact Gaussian-process regression backend of the
// emulator: a zero-mean multi-output GP with a shared kernel and a shared
// Gaussian likelihood.
//
// Fit conditions a GP with fixed hyperparameters on training data.
// Train first maximizes the log marginal likelihood over the kernel's
// bounded hyperparameters and the likelihood variance with L-BFGS
// (gonum/optimize, central finite-difference gradients), then fits.
//
// For N training rows and D outputs sharing kernel K and noise σ²_n:
//
//	log p(Y) = -½·Σ_d y_dᵀ(K+σ²_n I)⁻¹y_d - (D/2)·log|K+σ²_n I| - (N·D/2)·log 2π
//
// Predict returns, for each query row, the posterior mean of every output
// and the predictive variance k(x,x) - k_xᵀ(K+σ²_n I)⁻¹k_x + σ²_n, which
// is the same for every output because the kernel is shared.
//
// A fitted *Regression is immutable and safe for concurrent Predict calls.
package gp
