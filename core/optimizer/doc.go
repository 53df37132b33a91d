// Package optimizer defines the contract between the decomposition engine
// and the solver computing staggering delays for one simplified epoch.
// Solvers report infeasibility with ErrInfeasible and budget exhaustion with
// ErrTimeout; the engine recovers from both by keeping the status quo.
//
// Two solvers are provided. NoopOptimizer never staggers. LPOptimizer solves
// an order-preserving separation program with gonum's simplex: on every
// conflicting arc vehicles keep their status-quo entry order and the j-th
// vehicle may only enter once the (j-capacity)-th has left.
package optimizer
