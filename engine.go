package linprog

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Registered algorithm names.
const (
	AlgorithmPrimalSimplex          = "PrimalSimplex"
	AlgorithmRevisedSimplex         = "RevisedSimplex"
	AlgorithmBranchAndBoundSimplex  = "BranchAndBoundSimplex"
	AlgorithmBranchAndBoundKnapsack = "BranchAndBoundKnapsack"
	AlgorithmCuttingPlane           = "CuttingPlane"
)

// Algorithm is the capability interface every solver implements. Solve
// always returns a uniform result record; solvers with richer results
// (node lists, cuts) expose those through their concrete types.
type Algorithm interface {
	AlgorithmName() string
	MaxIterations() int
	Tolerance() float64

	// SupportsModel reports whether the algorithm can solve the model,
	// checked before any solve attempt.
	SupportsModel(m *LPModel) error

	Solve(m *LPModel) *SolveResult
}

// SimplexEngine dispatches a named algorithm against a model after
// validating both, and guarantees callers a result record even when an
// algorithm faults.
type SimplexEngine struct {
	algorithms map[string]Algorithm
}

// NewSimplexEngine returns an engine with the given algorithms
// registered; with no arguments it registers the full default set.
func NewSimplexEngine(algorithms ...Algorithm) *SimplexEngine {
	e := &SimplexEngine{algorithms: make(map[string]Algorithm)}
	if len(algorithms) == 0 {
		algorithms = []Algorithm{
			NewPrimalSimplex(),
			NewRevisedSimplex(),
			NewBranchAndBound(),
			NewKnapsackBranchAndBound(),
			NewCuttingPlaneSolver(),
		}
	}
	for _, a := range algorithms {
		e.Register(a)
	}
	return e
}

// Register adds or replaces an algorithm under its own name.
func (e *SimplexEngine) Register(a Algorithm) {
	e.algorithms[a.AlgorithmName()] = a
}

// Algorithm returns a registered algorithm by name.
func (e *SimplexEngine) Algorithm(name string) (Algorithm, error) {
	a, ok := e.algorithms[name]
	if !ok {
		return nil, errors.Errorf("unknown algorithm %q", name)
	}
	return a, nil
}

// AlgorithmNames lists the registered algorithms in sorted order.
func (e *SimplexEngine) AlgorithmNames() []string {
	names := make([]string, 0, len(e.algorithms))
	for name := range e.algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Solve validates the model, checks algorithm support and dispatches.
// Malformed models are reported without running any algorithm; an
// algorithm panic is converted to a StatusError result rather than
// propagated.
func (e *SimplexEngine) Solve(name string, m *LPModel) (res *SolveResult) {
	defer func() {
		if r := recover(); r != nil {
			res = errorResult(fmt.Sprint(r))
		}
	}()

	algo, err := e.Algorithm(name)
	if err != nil {
		return errorResult(err.Error())
	}
	if err := m.Validate(); err != nil {
		return errorResult(err.Error())
	}
	if err := algo.SupportsModel(m); err != nil {
		return errorResult(errors.Wrapf(err, "model not supported by %s", name).Error())
	}
	return algo.Solve(m)
}
