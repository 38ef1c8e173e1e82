package linprog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

// maximize 3x1+2x2 s.t. x1+x2<=4, 2x1+x2<=6.
func twoVarMax() *LPModel {
	m := NewModel(Maximize)
	m.AddVariable("x1", 3, Positive)
	m.AddVariable("x2", 2, Positive)
	m.AddConstraint("c1", map[string]float64{"x1": 1, "x2": 1}, LessEqual, 4)
	m.AddConstraint("c2", map[string]float64{"x1": 2, "x2": 1}, LessEqual, 6)
	return m
}

// minimize -x1-2x2 s.t. -x1+2x2+x3=4, 3x1+x2+x4=9. Optimum z=-8 at (2,3,0,0).
func equalityFormMin() *LPModel {
	m := NewModel(Minimize)
	m.AddVariable("x1", -1, Positive)
	m.AddVariable("x2", -2, Positive)
	m.AddVariable("x3", 0, Positive)
	m.AddVariable("x4", 0, Positive)
	m.AddConstraint("c1", map[string]float64{"x1": -1, "x2": 2, "x3": 1}, Equal, 4)
	m.AddConstraint("c2", map[string]float64{"x1": 3, "x2": 1, "x4": 1}, Equal, 9)
	return m
}

func TestPrimalSimplex_Maximize(t *testing.T) {
	res := NewPrimalSimplex().Solve(twoVarMax())

	assert.True(t, res.IsSuccessful)
	assert.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, 10, res.ObjectiveValue, 1e-9)
	assert.InDelta(t, 2, res.Solution["x1"], 1e-9)
	assert.InDelta(t, 2, res.Solution["x2"], 1e-9)
	assert.NotEmpty(t, res.Iterations)
}

func TestPrimalSimplex_TwoPhase(t *testing.T) {
	res := NewPrimalSimplex().Solve(equalityFormMin())

	assert.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, -8, res.ObjectiveValue, 1e-9)
	assert.InDelta(t, 2, res.Solution["x1"], 1e-9)
	assert.InDelta(t, 3, res.Solution["x2"], 1e-9)
}

func TestPrimalSimplex_Infeasible(t *testing.T) {
	m := NewModel(Maximize)
	m.AddVariable("x1", 1, Positive)
	m.AddConstraint("c1", map[string]float64{"x1": 1}, GreaterEqual, 5)
	m.AddConstraint("c2", map[string]float64{"x1": 1}, LessEqual, 2)

	res := NewPrimalSimplex().Solve(m)
	assert.Equal(t, StatusInfeasible, res.Status)
	assert.False(t, res.IsSuccessful)
}

func TestPrimalSimplex_Unbounded(t *testing.T) {
	m := NewModel(Maximize)
	m.AddVariable("x1", 1, Positive)
	m.AddConstraint("c1", map[string]float64{"x1": 1}, GreaterEqual, 0)

	res := NewPrimalSimplex().Solve(m)
	assert.Equal(t, StatusUnbounded, res.Status)
}

func TestPrimalSimplex_UnrestrictedVariable(t *testing.T) {
	// minimize x1 with x1 >= -5 and x1 free: optimum at the lower bound.
	m := NewModel(Minimize)
	m.AddVariable("x1", 1, Unrestricted)
	m.AddConstraint("c1", map[string]float64{"x1": 1}, GreaterEqual, -5)

	res := NewPrimalSimplex().Solve(m)
	assert.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, -5, res.ObjectiveValue, 1e-9)
	assert.InDelta(t, -5, res.Solution["x1"], 1e-9)
}

func TestPrimalSimplex_NegativeVariable(t *testing.T) {
	// maximize x1 with x1 <= 0: optimum is 0.
	m := NewModel(Maximize)
	m.AddVariable("x1", 1, Negative)
	m.AddConstraint("c1", map[string]float64{"x1": 1}, GreaterEqual, -3)

	res := NewPrimalSimplex().Solve(m)
	assert.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, 0, res.ObjectiveValue, 1e-9)
}

func TestPrimalSimplex_InvalidModel(t *testing.T) {
	m := NewModel(Maximize)
	res := NewPrimalSimplex().Solve(m)
	assert.Equal(t, StatusError, res.Status)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestPrimalSimplex_ObjectiveRecomputation(t *testing.T) {
	for _, m := range []*LPModel{twoVarMax(), equalityFormMin()} {
		res := NewPrimalSimplex().Solve(m)
		assert.Equal(t, StatusOptimal, res.Status)
		assert.InDelta(t, m.ObjectiveAt(res.Solution), res.ObjectiveValue, 1e-9)
		for _, rec := range res.Iterations {
			assert.NotEmpty(t, rec.Entering)
			assert.NotEmpty(t, rec.Leaving)
		}
	}
}

func TestPrimalSimplex_MaxIterations(t *testing.T) {
	s := NewPrimalSimplex()
	s.MaxIter = 1
	res := s.Solve(twoVarMax())
	assert.Equal(t, StatusMaxIterationsReached, res.Status)
}

// Differential check against the gonum simplex on the equality-form
// model both can express directly.
func TestPrimalSimplex_AgreesWithGonum(t *testing.T) {
	c := []float64{-1, -2, 0, 0}
	A := mat.NewDense(2, 4, []float64{
		-1, 2, 1, 0,
		3, 1, 0, 1,
	})
	b := []float64{4, 9}

	z, x, err := gonumlp.Simplex(c, A, b, 0, nil)
	assert.NoError(t, err)

	res := NewPrimalSimplex().Solve(equalityFormMin())
	assert.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, z, res.ObjectiveValue, 1e-6)
	assert.InDelta(t, x[0], res.Solution["x1"], 1e-6)
	assert.InDelta(t, x[1], res.Solution["x2"], 1e-6)
}
