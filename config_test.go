package linprog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions_Defaults(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		algo    string
		tol     float64
		maxIter int
	}{
		{"empty input", "", AlgorithmPrimalSimplex, DefaultLPTolerance, DefaultMaxIterations},
		{"revised", "algorithm: RevisedSimplex", AlgorithmRevisedSimplex, DefaultLPTolerance, DefaultMaxIterations},
		{"branch and bound", "algorithm: BranchAndBoundSimplex", AlgorithmBranchAndBoundSimplex, DefaultIntegerTolerance, DefaultMaxIterations},
		{"knapsack", "algorithm: BranchAndBoundKnapsack", AlgorithmBranchAndBoundKnapsack, DefaultIntegerTolerance, DefaultMaxIterations},
		{"cutting plane", "algorithm: CuttingPlane", AlgorithmCuttingPlane, DefaultIntegerTolerance, DefaultMaxCutRounds},
		{
			"explicit values",
			"algorithm: PrimalSimplex\ntolerance: 0.001\nmax_iterations: 50",
			AlgorithmPrimalSimplex, 0.001, 50,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts, err := ParseOptions([]byte(tc.yaml))
			require.NoError(t, err)
			assert.Equal(t, tc.algo, opts.Algorithm)
			assert.Equal(t, tc.tol, opts.Tolerance)
			assert.Equal(t, tc.maxIter, opts.MaxIterations)
		})
	}
}

func TestParseOptions_MalformedYAML(t *testing.T) {
	_, err := ParseOptions([]byte("algorithm: [not, a, string"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing solver options")
}

func TestOptions_BuildAllAlgorithms(t *testing.T) {
	for _, name := range []string{
		AlgorithmPrimalSimplex,
		AlgorithmRevisedSimplex,
		AlgorithmBranchAndBoundSimplex,
		AlgorithmBranchAndBoundKnapsack,
		AlgorithmCuttingPlane,
	} {
		opts, err := ParseOptions([]byte("algorithm: " + name))
		require.NoError(t, err)
		algo, err := opts.Build()
		require.NoError(t, err)
		assert.Equal(t, name, algo.AlgorithmName())
		assert.Equal(t, opts.Tolerance, algo.Tolerance())
		assert.Equal(t, opts.MaxIterations, algo.MaxIterations())
	}
}

func TestOptions_BuildUnknownAlgorithm(t *testing.T) {
	_, err := (&Options{Algorithm: "Newton"}).Build()
	assert.Error(t, err)
}

func TestEngineFromYAML(t *testing.T) {
	e, err := EngineFromYAML([]byte("algorithm: PrimalSimplex\nmax_iterations: 3"))
	require.NoError(t, err)

	a, err := e.Algorithm(AlgorithmPrimalSimplex)
	require.NoError(t, err)
	assert.Equal(t, 3, a.MaxIterations())

	// The other defaults stay registered.
	assert.Len(t, e.AlgorithmNames(), 5)

	res := e.Solve(AlgorithmPrimalSimplex, twoVarMax())
	assert.Equal(t, StatusOptimal, res.Status)
}
