package linprog

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Options are the per-solver configuration knobs. Zero values are
// replaced by the algorithm's defaults: tolerance 1e-10 for the LP
// solvers and 1e-6 for the integer-programming layers, iteration cap
// 1000 for everything except the cutting-plane loop's 20 rounds.
type Options struct {
	Algorithm     string  `yaml:"algorithm"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
}

// ParseOptions reads Options from YAML and fills in defaults.
func ParseOptions(data []byte) (*Options, error) {
	opts := &Options{}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, errors.Wrap(err, "parsing solver options")
	}
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmPrimalSimplex
	}
	if opts.Tolerance == 0 {
		switch opts.Algorithm {
		case AlgorithmPrimalSimplex, AlgorithmRevisedSimplex:
			opts.Tolerance = DefaultLPTolerance
		default:
			opts.Tolerance = DefaultIntegerTolerance
		}
	}
	if opts.MaxIterations == 0 {
		if opts.Algorithm == AlgorithmCuttingPlane {
			opts.MaxIterations = DefaultMaxCutRounds
		} else {
			opts.MaxIterations = DefaultMaxIterations
		}
	}
	return opts, nil
}

// Build constructs the configured algorithm.
func (o *Options) Build() (Algorithm, error) {
	switch o.Algorithm {
	case AlgorithmPrimalSimplex:
		return &PrimalSimplex{Tol: o.Tolerance, MaxIter: o.MaxIterations, Trace: nopSink{}}, nil
	case AlgorithmRevisedSimplex:
		return &RevisedSimplex{Tol: o.Tolerance, MaxIter: o.MaxIterations, Trace: nopSink{}}, nil
	case AlgorithmBranchAndBoundSimplex:
		return &BranchAndBound{
			Tol:        o.Tolerance,
			MaxNodes:   o.MaxIterations,
			Relaxation: NewPrimalSimplex(),
			Trace:      nopSink{},
		}, nil
	case AlgorithmBranchAndBoundKnapsack:
		return &KnapsackBranchAndBound{Tol: o.Tolerance, MaxNodes: o.MaxIterations, Trace: nopSink{}}, nil
	case AlgorithmCuttingPlane:
		return &CuttingPlaneSolver{Tol: o.Tolerance, MaxRounds: o.MaxIterations, Trace: nopSink{}}, nil
	}
	return nil, errors.Errorf("unknown algorithm %q", o.Algorithm)
}

// EngineFromYAML builds an engine with one algorithm configured from
// YAML options registered alongside the defaults for the others.
func EngineFromYAML(data []byte) (*SimplexEngine, error) {
	opts, err := ParseOptions(data)
	if err != nil {
		return nil, err
	}
	algo, err := opts.Build()
	if err != nil {
		return nil, err
	}
	engine := NewSimplexEngine()
	engine.Register(algo)
	return engine, nil
}
