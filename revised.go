package linprog

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// RevisedSimplex solves the same models as PrimalSimplex but works on
// extracted matrices (A, b, c and basic/non-basic index sets) instead of
// a full tableau. Reduced costs are priced as c_j - cB*Binv*A_j and the
// basis inverse is maintained incrementally with elementary row
// operations at each pivot (product-form update), never recomputed from
// scratch.
type RevisedSimplex struct {
	Tol     float64
	MaxIter int
	Trace   TraceSink
}

// NewRevisedSimplex returns a solver with default tolerance and
// iteration cap.
func NewRevisedSimplex() *RevisedSimplex {
	return &RevisedSimplex{
		Tol:     DefaultLPTolerance,
		MaxIter: DefaultMaxIterations,
		Trace:   nopSink{},
	}
}

func (s *RevisedSimplex) AlgorithmName() string { return AlgorithmRevisedSimplex }
func (s *RevisedSimplex) MaxIterations() int    { return s.MaxIter }
func (s *RevisedSimplex) Tolerance() float64    { return s.Tol }

// SupportsModel accepts every valid model; integral restrictions are
// relaxed to continuous ones.
func (s *RevisedSimplex) SupportsModel(m *LPModel) error {
	return m.Validate()
}

// revisedState carries the matrix form of one solve call.
type revisedState struct {
	m, n int

	A *mat.Dense
	b *mat.VecDense

	// Binv is the basis inverse, updated in place at every pivot.
	Binv *mat.Dense

	// basis[i] is the column occupying basis position i.
	basis []int

	names      []string
	artificial []bool
}

// Solve runs the two-phase revised simplex. Its external contract and
// termination states match PrimalSimplex: for any model without
// integral variables the two must agree on the objective value within
// tolerance.
func (s *RevisedSimplex) Solve(model *LPModel) (res *SolveResult) {
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

	st := newRevisedState(cf)
	iter := 0

	if hasTrue(st.artificial) {
		// Phase 1: minimize the artificial sum. In maximize-equivalent
		// terms every artificial column costs -1 and everything else 0.
		costs1 := make([]float64, st.n)
		for j := range costs1 {
			if st.artificial[j] {
				costs1[j] = -1
			}
		}
		if status := s.iterate(cf, st, costs1, 1, &iter, res); status != StatusUnknown {
			return finishRevised(res, status)
		}

		xB := st.basicValues()
		var infeasibility float64
		for i, col := range st.basis {
			if st.artificial[col] {
				infeasibility += xB.AtVec(i)
			}
		}
		if infeasibility > phaseTolerance(s.Tol) {
			return finishRevised(res, StatusInfeasible)
		}
		s.pivotOutArtificials(st)
	}

	if status := s.iterate(cf, st, cfCosts(cf, st), 2, &iter, res); status != StatusUnknown {
		return finishRevised(res, status)
	}

	res.Status = StatusOptimal
	res.IsSuccessful = true
	res.Solution = cf.OriginalSolution(st.columnValues())
	res.ObjectiveValue = cf.model.ObjectiveAt(res.Solution)
	return res
}

func finishRevised(res *SolveResult, status Status) *SolveResult {
	res.Status = status
	return res
}

func newRevisedState(cf *CanonicalForm) *revisedState {
	tab := cf.Tableau
	m, n := tab.NumConstraints(), tab.NumColumns()

	data := make([]float64, 0, m*n)
	b := make([]float64, m)
	for i := 0; i < m; i++ {
		data = append(data, tab.Rows[i+1][:n]...)
		b[i] = tab.RHS(i)
	}

	artSet := cf.artificialSet()
	artificial := make([]bool, n)
	for j, name := range tab.VariableNames {
		artificial[j] = artSet[name]
	}

	basis := make([]int, m)
	for i, name := range tab.BasicVariables {
		basis[i] = tab.Column(name)
	}

	binv := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		binv.Set(i, i, 1)
	}

	return &revisedState{
		m:          m,
		n:          n,
		A:          mat.NewDense(m, n, data),
		b:          mat.NewVecDense(m, b),
		Binv:       binv,
		basis:      basis,
		names:      append([]string(nil), tab.VariableNames...),
		artificial: artificial,
	}
}

func cfCosts(cf *CanonicalForm, st *revisedState) []float64 {
	costs := make([]float64, st.n)
	for j, name := range st.names {
		costs[j] = cf.cost(name)
	}
	return costs
}

func hasTrue(bs []bool) bool {
	for _, b := range bs {
		if b {
			return true
		}
	}
	return false
}

// basicValues returns xB = Binv * b.
func (st *revisedState) basicValues() *mat.VecDense {
	xB := mat.NewVecDense(st.m, nil)
	xB.MulVec(st.Binv, st.b)
	return xB
}

// columnValues maps every column to its current value: basis positions
// take xB, non-basic columns are 0.
func (st *revisedState) columnValues() map[string]float64 {
	values := make(map[string]float64, st.n)
	for _, name := range st.names {
		values[name] = 0
	}
	xB := st.basicValues()
	for i, col := range st.basis {
		values[st.names[col]] = xB.AtVec(i)
	}
	return values
}

func (st *revisedState) inBasis(j int) bool {
	for _, col := range st.basis {
		if col == j {
			return true
		}
	}
	return false
}

// iterate prices, ratio-tests and updates the basis until no reduced
// cost exceeds tolerance. In phase 2 artificial columns are barred from
// entering. Returns StatusUnknown on optimality.
func (s *RevisedSimplex) iterate(cf *CanonicalForm, st *revisedState, costs []float64, phase int, iter *int, res *SolveResult) Status {
	for {
		xB := st.basicValues()

		// y = cB * Binv, then reduced costs r_j = c_j - y*A_j.
		cB := mat.NewVecDense(st.m, nil)
		for i, col := range st.basis {
			cB.SetVec(i, costs[col])
		}
		y := mat.NewVecDense(st.m, nil)
		y.MulVec(st.Binv.T(), cB)

		entering := -1
		bestReduced := s.Tol
		for j := 0; j < st.n; j++ {
			if st.inBasis(j) {
				continue
			}
			if phase == 2 && st.artificial[j] {
				continue
			}
			reduced := costs[j] - mat.Dot(y, st.A.ColView(j))
			if reduced > bestReduced {
				bestReduced = reduced
				entering = j
			}
		}
		if entering < 0 {
			return StatusUnknown
		}
		if *iter >= s.MaxIter {
			return StatusMaxIterationsReached
		}

		// Direction d = Binv * A_j.
		d := mat.NewVecDense(st.m, nil)
		d.MulVec(st.Binv, st.A.ColView(entering))

		leave := -1
		bestRatio := math.Inf(1)
		var ratios []RatioEntry
		for i := 0; i < st.m; i++ {
			if d.AtVec(i) <= s.Tol {
				continue
			}
			ratio := xB.AtVec(i) / d.AtVec(i)
			ratios = append(ratios, RatioEntry{
				Row:         i,
				Basic:       st.names[st.basis[i]],
				RHS:         xB.AtVec(i),
				Coefficient: d.AtVec(i),
				Ratio:       ratio,
			})
			if ratio < bestRatio {
				bestRatio = ratio
				leave = i
			}
		}
		if leave < 0 {
			if phase == 1 {
				panic(fmt.Sprintf("phase-1 objective unbounded in column %s", st.names[entering]))
			}
			return StatusUnbounded
		}

		leavingName := st.names[st.basis[leave]]
		st.applyPivot(leave, entering, d)
		*iter++

		rec := IterationRecord{
			Iteration:      *iter,
			Phase:          phase,
			Entering:       st.names[entering],
			Leaving:        leavingName,
			Ratios:         ratios,
			ObjectiveValue: cf.model.ObjectiveAt(cf.OriginalSolution(st.columnValues())),
		}
		res.Iterations = append(res.Iterations, rec)
		s.Trace.OnPivot(rec)
	}
}

// applyPivot swaps the entering column into basis position r and applies
// the product-form eta update to Binv with elementary row operations:
// subtract multiples of row r to zero the direction everywhere else,
// then scale row r by the pivot element.
func (st *revisedState) applyPivot(r, entering int, d *mat.VecDense) {
	pivot := d.AtVec(r)
	if math.Abs(pivot) < 1e-14 {
		panic(fmt.Sprintf("zero pivot element in basis position %d", r))
	}

	pivotRow := st.Binv.RawRowView(r)
	for i := 0; i < st.m; i++ {
		if i == r {
			continue
		}
		factor := d.AtVec(i) / pivot
		if factor == 0 {
			continue
		}
		row := st.Binv.RawRowView(i)
		for k := range row {
			row[k] -= factor * pivotRow[k]
		}
	}
	for k := range pivotRow {
		pivotRow[k] /= pivot
	}

	st.basis[r] = entering
}

// pivotOutArtificials removes artificials that finished phase 1 basic at
// zero level by pivoting in any non-artificial column with a nonzero
// direction entry in that position. A position with no such column
// corresponds to a redundant row and is left in place; the artificial
// stays at zero and is barred from entering in phase 2.
func (s *RevisedSimplex) pivotOutArtificials(st *revisedState) {
	for r := 0; r < st.m; r++ {
		if !st.artificial[st.basis[r]] {
			continue
		}
		for j := 0; j < st.n; j++ {
			if st.artificial[j] || st.inBasis(j) {
				continue
			}
			d := mat.NewVecDense(st.m, nil)
			d.MulVec(st.Binv, st.A.ColView(j))
			if math.Abs(d.AtVec(r)) > phaseTolerance(s.Tol) {
				st.applyPivot(r, j, d)
				break
			}
		}
	}
}
