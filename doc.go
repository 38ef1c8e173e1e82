// Package linprog solves linear and integer programming models.
//
// Continuous models are solved with a two-phase tableau primal simplex
// (PrimalSimplex) or a matrix-based revised simplex (RevisedSimplex).
// Integer and binary models are solved by relaxation-based
// branch-and-bound (BranchAndBound), a specialized 0/1 knapsack
// branch-and-bound (KnapsackBranchAndBound), or a cutting-plane loop
// (CuttingPlaneSolver). All algorithms are dispatched uniformly through
// a SimplexEngine and report results as a closed set of statuses rather
// than errors.
package linprog
