package linprog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplexEngine_DefaultRegistry(t *testing.T) {
	e := NewSimplexEngine()

	assert.Equal(t, []string{
		AlgorithmBranchAndBoundKnapsack,
		AlgorithmBranchAndBoundSimplex,
		AlgorithmCuttingPlane,
		AlgorithmPrimalSimplex,
		AlgorithmRevisedSimplex,
	}, e.AlgorithmNames())

	for _, name := range e.AlgorithmNames() {
		a, err := e.Algorithm(name)
		require.NoError(t, err)
		assert.Equal(t, name, a.AlgorithmName())
		assert.Greater(t, a.MaxIterations(), 0)
		assert.Greater(t, a.Tolerance(), 0.0)
	}
}

func TestSimplexEngine_Dispatch(t *testing.T) {
	e := NewSimplexEngine()

	for _, name := range []string{AlgorithmPrimalSimplex, AlgorithmRevisedSimplex} {
		res := e.Solve(name, twoVarMax())
		assert.Equal(t, StatusOptimal, res.Status, name)
		assert.InDelta(t, 10, res.ObjectiveValue, 1e-6, name)
	}

	res := e.Solve(AlgorithmBranchAndBoundSimplex, binaryMax())
	assert.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, 5, res.ObjectiveValue, 1e-6)
}

func TestSimplexEngine_UnknownAlgorithm(t *testing.T) {
	e := NewSimplexEngine()
	res := e.Solve("Newton", twoVarMax())

	assert.Equal(t, StatusError, res.Status)
	assert.False(t, res.IsSuccessful)
	assert.Contains(t, res.ErrorMessage, "unknown algorithm")

	_, err := e.Algorithm("Newton")
	assert.Error(t, err)
}

func TestSimplexEngine_InvalidModelRejected(t *testing.T) {
	m := NewModel(Maximize) // no variables
	res := NewSimplexEngine().Solve(AlgorithmPrimalSimplex, m)

	assert.Equal(t, StatusError, res.Status)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestSimplexEngine_UnsupportedModelRejected(t *testing.T) {
	// The cutting-plane solver refuses purely continuous models.
	res := NewSimplexEngine().Solve(AlgorithmCuttingPlane, twoVarMax())

	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.ErrorMessage, "model not supported by "+AlgorithmCuttingPlane)
}

func TestSimplexEngine_RegisterReplaces(t *testing.T) {
	e := NewSimplexEngine(NewPrimalSimplex())
	assert.Equal(t, []string{AlgorithmPrimalSimplex}, e.AlgorithmNames())

	custom := NewPrimalSimplex()
	custom.MaxIter = 7
	e.Register(custom)

	a, err := e.Algorithm(AlgorithmPrimalSimplex)
	require.NoError(t, err)
	assert.Equal(t, 7, a.MaxIterations())
}
