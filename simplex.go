package linprog

import (
	"fmt"
	"time"
)

// Default configuration knobs. The LP solvers run a tight numerical
// tolerance; the integer-programming layers use a looser one because
// they compare incumbent objectives, not pivot elements.
const (
	DefaultLPTolerance      = 1e-10
	DefaultIntegerTolerance = 1e-6
	DefaultMaxIterations    = 1000
	DefaultMaxCutRounds     = 20
)

// PrimalSimplex is the two-phase tableau simplex. Models whose canonical
// form needs artificial variables go through phase 1 (minimize the
// artificial sum) before the true objective is optimized in phase 2.
// Integer and binary restrictions are treated as plain nonnegativity:
// this solver is also the relaxation oracle of the branch-and-bound
// search.
type PrimalSimplex struct {
	Tol     float64
	MaxIter int
	Trace   TraceSink
}

// NewPrimalSimplex returns a solver with default tolerance and
// iteration cap.
func NewPrimalSimplex() *PrimalSimplex {
	return &PrimalSimplex{
		Tol:     DefaultLPTolerance,
		MaxIter: DefaultMaxIterations,
		Trace:   nopSink{},
	}
}

func (s *PrimalSimplex) AlgorithmName() string { return AlgorithmPrimalSimplex }
func (s *PrimalSimplex) MaxIterations() int    { return s.MaxIter }
func (s *PrimalSimplex) Tolerance() float64    { return s.Tol }

// SupportsModel accepts every valid model; integral restrictions are
// relaxed to continuous ones.
func (s *PrimalSimplex) SupportsModel(m *LPModel) error {
	return m.Validate()
}

// Solve runs the two-phase simplex and returns a uniform result record.
// Unexpected internal faults are converted to a StatusError result at
// this boundary.
func (s *PrimalSimplex) Solve(model *LPModel) (res *SolveResult) {
	start := time.Now()
	res = &SolveResult{Status: StatusUnknown, Solution: map[string]float64{}}
	defer func() {
		if r := recover(); r != nil {
			res = errorResult(fmt.Sprint(r))
		}
		res.Elapsed = time.Since(start)
	}()

	if err := model.Validate(); err != nil {
		res.Status = StatusError
		res.ErrorMessage = err.Error()
		return res
	}

	cf := GenerateCanonicalForm(model)
	if !cf.Valid {
		res.Status = StatusError
		res.ErrorMessage = cf.Reason
		return res
	}

	iter := 0
	if len(cf.ArtificialVariables) > 0 {
		if status := s.phase1(cf, &iter, res); status != StatusUnknown {
			res.Status = status
			return res
		}
	}

	if status := s.iterate(cf, 2, &iter, res); status != StatusUnknown {
		res.Status = status
		return res
	}

	res.Status = StatusOptimal
	res.IsSuccessful = true
	res.Solution = cf.OriginalSolution(cf.Tableau.ColumnValues())
	res.ObjectiveValue = model.ObjectiveAt(res.Solution)
	return res
}

// phase1 minimizes the sum of artificial variables. If the optimal sum
// exceeds tolerance the model is infeasible; otherwise the artificial
// columns are stripped and the true objective row is restored on the
// same tableau. Returns StatusUnknown on success.
func (s *PrimalSimplex) phase1(cf *CanonicalForm, iter *int, res *SolveResult) Status {
	cf.loadPhase1Objective()
	if status := s.iterate(cf, 1, iter, res); status != StatusUnknown {
		return status
	}
	if cf.phase1Infeasibility() > phaseTolerance(s.Tol) {
		return StatusInfeasible
	}
	if err := cf.cleanupArtificials(phaseTolerance(s.Tol)); err != nil {
		panic(err)
	}
	cf.restoreObjective()
	return StatusUnknown
}

// iterate runs pivots until the tableau is optimal for the current
// objective row, the problem proves unbounded, or the iteration cap is
// hit. Each pivot is recorded as an IterationRecord. Returns
// StatusUnknown when optimality was reached.
func (s *PrimalSimplex) iterate(cf *CanonicalForm, phase int, iter *int, res *SolveResult) Status {
	tab := cf.Tableau
	for {
		col := tab.EnteringColumn(s.Tol)
		if col < 0 {
			return StatusUnknown
		}
		if *iter >= s.MaxIter {
			return StatusMaxIterationsReached
		}
		if tab.IsUnbounded(col, s.Tol) {
			if phase == 1 {
				// The phase-1 objective is bounded below by zero; an
				// unbounded direction here is an internal fault.
				panic(fmt.Sprintf("phase-1 objective unbounded in column %s", tab.VariableNames[col]))
			}
			return StatusUnbounded
		}
		row, ratios := tab.LeavingRow(col, s.Tol)
		if row < 0 {
			panic(fmt.Sprintf("no legal leaving row for entering column %s", tab.VariableNames[col]))
		}

		entering := tab.VariableNames[col]
		leaving := tab.BasicVariables[row]
		if err := tab.Pivot(row, col); err != nil {
			panic(err)
		}
		*iter++

		// The ratio test keeps the basis feasible; a negative RHS after
		// the pivot means the invariant broke.
		for i := 0; i < tab.NumConstraints(); i++ {
			if tab.RHS(i) < -phaseTolerance(s.Tol) {
				panic(fmt.Sprintf("pivot on row %d produced negative RHS in row %d", row, i))
			}
		}

		rec := IterationRecord{
			Iteration:      *iter,
			Phase:          phase,
			Entering:       entering,
			Leaving:        leaving,
			Ratios:         ratios,
			ObjectiveValue: cf.ObjectiveValue(),
		}
		res.Iterations = append(res.Iterations, rec)
		s.Trace.OnPivot(rec)
	}
}

// phaseTolerance loosens a pivot tolerance for feasibility comparisons;
// accumulated elimination error is larger than single-pivot error.
func phaseTolerance(tol float64) float64 {
	if tol < 1e-9 {
		return 1e-9
	}
	return tol
}
