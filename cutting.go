package linprog

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// stallWindow is the number of consecutive rounds with no objective
// movement after which the cutting-plane loop gives up.
const stallWindow = 5

// stallDelta is the objective movement below which a round counts as
// stalled.
const stallDelta = 1e-6

// CuttingPlaneSolver tightens a continuous relaxation towards integer
// feasibility by repeatedly solving the relaxation and appending bound
// cuts on fractional variables.
//
// The cuts are simple roundings, x_j <= floor(value) on the most
// fractional variables, not Gomory cuts derived from a tableau row: a
// cut here can tighten the bound without excluding the exact fractional
// vertex, which is why the loop carries stall detection.
type CuttingPlaneSolver struct {
	Tol       float64
	MaxRounds int
	Trace     TraceSink
}

// NewCuttingPlaneSolver returns a solver with default tolerance and
// round cap.
func NewCuttingPlaneSolver() *CuttingPlaneSolver {
	return &CuttingPlaneSolver{
		Tol:       DefaultIntegerTolerance,
		MaxRounds: DefaultMaxCutRounds,
		Trace:     nopSink{},
	}
}

func (c *CuttingPlaneSolver) AlgorithmName() string { return AlgorithmCuttingPlane }
func (c *CuttingPlaneSolver) MaxIterations() int    { return c.MaxRounds }
func (c *CuttingPlaneSolver) Tolerance() float64    { return c.Tol }

// SupportsModel accepts every valid model with at least one integral
// variable.
func (c *CuttingPlaneSolver) SupportsModel(m *LPModel) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if !m.HasIntegralVariables() {
		return fmt.Errorf("model has no integer or binary variables to cut on")
	}
	return nil
}

// Solve adapts SolveWithCuts to the Algorithm interface.
func (c *CuttingPlaneSolver) Solve(m *LPModel) *SolveResult {
	return &c.SolveWithCuts(m).SolveResult
}

// SolveWithCuts runs the cutting-plane loop on a relaxed working copy of
// the model. Each round solves the relaxation with the embedded
// standard-form simplex; a non-integral optimum produces up to two cuts,
// one per most-fractional variable, appended permanently to the working
// model. Stalling for stallWindow consecutive rounds aborts with
// StatusError, distinct from exhausting MaxRounds.
func (c *CuttingPlaneSolver) SolveWithCuts(model *LPModel) (res *CutResult) {
	start := time.Now()
	res = &CutResult{SolveResult: SolveResult{Status: StatusUnknown, Solution: map[string]float64{}}}
	defer func() {
		if r := recover(); r != nil {
			res = &CutResult{SolveResult: *errorResult(fmt.Sprint(r))}
		}
		res.Elapsed = time.Since(start)
	}()

	if err := model.Validate(); err != nil {
		res.Status = StatusError
		res.ErrorMessage = err.Error()
		return res
	}

	working := model.relaxedClone()
	embedded := miniSimplex{tol: DefaultLPTolerance, maxIter: DefaultMaxIterations}
	cutID := 0
	stalled := 0
	prevObjective := math.NaN()

	for round := 1; round <= c.MaxRounds; round++ {
		status, values := embedded.solve(working)
		if status != StatusOptimal {
			res.Status = status
			if status == StatusError {
				res.ErrorMessage = "embedded simplex failed on the working relaxation"
			}
			return res
		}

		objective := model.ObjectiveAt(values)
		if integerFeasible(model, values, c.Tol) {
			res.Status = StatusOptimal
			res.IsSuccessful = true
			res.Solution = roundIntegral(model, values, c.Tol)
			res.ObjectiveValue = model.ObjectiveAt(res.Solution)
			return res
		}

		if !math.IsNaN(prevObjective) && math.Abs(objective-prevObjective) < stallDelta {
			stalled++
			if stalled >= stallWindow {
				res.Status = StatusError
				res.ErrorMessage = fmt.Sprintf("cutting planes stalled: objective unchanged for %d rounds", stalled)
				return res
			}
		} else {
			stalled = 0
		}
		prevObjective = objective

		for _, v := range fractionalCandidates(model, values, c.Tol, 2) {
			cutID++
			cut := Cut{
				Variable:  v.Name,
				Relation:  LessEqual,
				RHS:       math.Floor(values[v.Name]),
				Violation: fractionalPart(values[v.Name]),
				Iteration: round,
			}
			working.AddConstraint(
				fmt.Sprintf("__cut%d_%s", cutID, v.Name),
				map[string]float64{v.Name: 1},
				cut.Relation,
				cut.RHS,
			)
			res.Cuts = append(res.Cuts, cut)
			c.Trace.OnCut(cut)
		}
	}

	res.Status = StatusMaxIterationsReached
	return res
}

// fractionalCandidates returns up to max integral variables ranked most
// fractional first (fractional part closest to 1/2), ties broken by
// variable index.
func fractionalCandidates(m *LPModel, values map[string]float64, eps float64, max int) []*Variable {
	var fractional []*Variable
	for _, v := range m.Variables {
		if v.IsIntegral() && !isNearInteger(values[v.Name], eps) {
			fractional = append(fractional, v)
		}
	}
	sort.SliceStable(fractional, func(a, b int) bool {
		fa := math.Abs(fractionalPart(values[fractional[a].Name]) - 0.5)
		fb := math.Abs(fractionalPart(values[fractional[b].Name]) - 0.5)
		return fa < fb
	})
	if len(fractional) > max {
		fractional = fractional[:max]
	}
	return fractional
}

// miniSimplex is the cutting-plane loop's embedded relaxation solver: a
// compact two-phase standard-form simplex over the shared tableau
// primitives, without iteration tracing.
type miniSimplex struct {
	tol     float64
	maxIter int
}

// solve returns the terminal status and, when optimal, the solution
// mapped back to model variables.
func (ms miniSimplex) solve(model *LPModel) (Status, map[string]float64) {
	cf := GenerateCanonicalForm(model)
	if !cf.Valid {
		return StatusError, nil
	}

	iter := 0
	if len(cf.ArtificialVariables) > 0 {
		cf.loadPhase1Objective()
		if status := ms.iterate(cf, &iter, true); status != StatusUnknown {
			return status, nil
		}
		if cf.phase1Infeasibility() > phaseTolerance(ms.tol) {
			return StatusInfeasible, nil
		}
		if err := cf.cleanupArtificials(phaseTolerance(ms.tol)); err != nil {
			return StatusError, nil
		}
		cf.restoreObjective()
	}
	if status := ms.iterate(cf, &iter, false); status != StatusUnknown {
		return status, nil
	}
	return StatusOptimal, cf.OriginalSolution(cf.Tableau.ColumnValues())
}

func (ms miniSimplex) iterate(cf *CanonicalForm, iter *int, phase1 bool) Status {
	tab := cf.Tableau
	for {
		col := tab.EnteringColumn(ms.tol)
		if col < 0 {
			return StatusUnknown
		}
		if *iter >= ms.maxIter {
			return StatusMaxIterationsReached
		}
		if tab.IsUnbounded(col, ms.tol) {
			if phase1 {
				return StatusError
			}
			return StatusUnbounded
		}
		row, _ := tab.LeavingRow(col, ms.tol)
		if row < 0 {
			return StatusError
		}
		if err := tab.Pivot(row, col); err != nil {
			return StatusError
		}
		*iter++
	}
}
