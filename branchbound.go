package linprog

import (
	"fmt"
	"math"
	"time"
)

// BranchAndBound is the generic relaxation-based integer search. Every
// node's LP relaxation is solved from scratch by the configured
// relaxation oracle; the frontier is explored best-bound-first with
// deterministic lowest-id tie-breaking.
type BranchAndBound struct {
	Tol      float64
	MaxNodes int

	// Relaxation is the LP oracle used for every node.
	Relaxation *PrimalSimplex

	Trace TraceSink
}

// NewBranchAndBound returns a solver with default tolerance and node cap.
func NewBranchAndBound() *BranchAndBound {
	return &BranchAndBound{
		Tol:        DefaultIntegerTolerance,
		MaxNodes:   DefaultMaxIterations,
		Relaxation: NewPrimalSimplex(),
		Trace:      nopSink{},
	}
}

func (b *BranchAndBound) AlgorithmName() string { return AlgorithmBranchAndBoundSimplex }
func (b *BranchAndBound) MaxIterations() int    { return b.MaxNodes }
func (b *BranchAndBound) Tolerance() float64    { return b.Tol }

// SupportsModel accepts every valid model; a model without integral
// variables degenerates to a single relaxation solve.
func (b *BranchAndBound) SupportsModel(m *LPModel) error {
	return m.Validate()
}

// Solve adapts SolveInteger to the Algorithm interface.
func (b *BranchAndBound) Solve(m *LPModel) *SolveResult {
	return &b.SolveInteger(m).SolveResult
}

// bnbSearch is the call-local state of one SolveInteger invocation.
// Node ids are indexes into the arena; nothing here outlives the call,
// so concurrent Solve calls on one BranchAndBound share no state.
type bnbSearch struct {
	cfg       *BranchAndBound
	model     *LPModel
	arena     []*BranchNode
	open      []int
	incumbent *IntegerSolution
	capped    bool
}

// SolveInteger runs the branch-and-bound search and returns the result
// with full node list, root bound and optimality gap.
func (b *BranchAndBound) SolveInteger(model *LPModel) (res *IntegerResult) {
	start := time.Now()
	res = &IntegerResult{SolveResult: SolveResult{Status: StatusUnknown, Solution: map[string]float64{}}}
	defer func() {
		if r := recover(); r != nil {
			res = &IntegerResult{SolveResult: *errorResult(fmt.Sprint(r))}
		}
		res.Elapsed = time.Since(start)
	}()

	if err := model.Validate(); err != nil {
		res.Status = StatusError
		res.ErrorMessage = err.Error()
		return res
	}

	s := &bnbSearch{cfg: b, model: model}

	root := s.newNode(-1, 0, nil, "", 0, BranchNone)
	res.Nodes = s.arena
	switch root.Status {
	case NodeFathomedByInfeasibility:
		res.Status = StatusInfeasible
		return res
	case NodeActive:
		// expected
	default:
		res.Status = StatusError
		res.ErrorMessage = "root relaxation failed"
		return res
	}
	if math.IsInf(root.Bound, 0) {
		res.Status = StatusUnbounded
		return res
	}
	res.RootBound = root.Bound

	s.run()

	res.Nodes = s.arena
	res.NodesExhausted = len(s.open) == 0
	res.Incumbent = s.incumbent

	if s.incumbent != nil {
		// An incumbent found under an exhausted node budget is reported
		// Optimal as well; NodesExhausted distinguishes the proven case.
		res.Status = StatusOptimal
		res.IsSuccessful = true
		res.Solution = s.incumbent.Values
		res.ObjectiveValue = s.incumbent.Objective
		if math.Abs(res.RootBound) > 1e-12 {
			res.Gap = math.Abs(res.RootBound-res.ObjectiveValue) / math.Abs(res.RootBound) * 100
		}
		return res
	}
	if s.capped {
		res.Status = StatusMaxIterationsReached
		return res
	}
	// Frontier exhausted without any integer-feasible point.
	res.Status = StatusInfeasible
	return res
}

// newNode allocates the next arena slot, solves the node's relaxation
// and classifies the outcome. Infeasible nodes are fathomed immediately;
// solvable nodes join the open frontier.
func (s *bnbSearch) newNode(parentID, level int, inherited []branchBound, branchVar string, branchVal float64, dir BranchDirection) *BranchNode {
	n := &BranchNode{
		ID:              len(s.arena),
		ParentID:        parentID,
		Level:           level,
		Status:          NodeActive,
		BranchVariable:  branchVar,
		BranchValue:     branchVal,
		BranchDirection: dir,
		inherited:       inherited,
		Solution:        map[string]float64{},
	}
	s.arena = append(s.arena, n)

	rel := s.cfg.Relaxation.Solve(nodeModel(s.model, inherited))
	switch rel.Status {
	case StatusOptimal:
		n.Solution = rel.Solution
		n.Bound = rel.ObjectiveValue
		s.open = append(s.open, n.ID)
	case StatusInfeasible:
		n.Status = NodeFathomedByInfeasibility
		n.Bound = worstBound(s.model.Sense)
		s.cfg.Trace.OnNode(n, DecisionRelaxationInfeasible)
	case StatusUnbounded:
		if parentID >= 0 {
			// A child relaxation is a restriction of its parent's and
			// cannot be unbounded when the parent was not.
			panic(fmt.Sprintf("node %d: child relaxation unbounded", n.ID))
		}
		n.Bound = bestBound(s.model.Sense)
		s.cfg.Trace.OnNode(n, DecisionRelaxationUnbounded)
	default:
		panic(fmt.Sprintf("node %d: relaxation returned %s: %s", n.ID, rel.Status, rel.ErrorMessage))
	}
	return n
}

// run pops the best-bound open node until the frontier empties or the
// node cap trips.
func (s *bnbSearch) run() {
	for len(s.open) > 0 {
		n := s.pop()

		if s.incumbent != nil && !beatsIncumbent(s.model.Sense, n.Bound, s.incumbent.Objective, s.cfg.Tol) {
			n.Status = NodeFathomedByBound
			s.cfg.Trace.OnNode(n, DecisionWorseThanIncumbent)
			continue
		}

		if integerFeasible(s.model, n.Solution, s.cfg.Tol) {
			n.Status = NodeFathomedByIntegrality
			objective := s.model.ObjectiveAt(n.Solution)
			if s.incumbent == nil || strictlyBetter(s.model.Sense, objective, s.incumbent.Objective) {
				rounded := roundIntegral(s.model, n.Solution, s.cfg.Tol)
				s.incumbent = &IntegerSolution{
					Values:    rounded,
					Objective: s.model.ObjectiveAt(rounded),
					NodeID:    n.ID,
				}
				s.cfg.Trace.OnNode(n, DecisionNewIncumbent)
			} else {
				s.cfg.Trace.OnNode(n, DecisionIntegerFeasible)
			}
			continue
		}

		v := branchingVariable(s.model, n.Solution, s.cfg.Tol)
		if v == nil {
			panic(fmt.Sprintf("node %d: fractional solution without branching candidate", n.ID))
		}
		if len(s.arena)+2 > s.cfg.MaxNodes {
			// Expanding would blow the node budget; put the node back so
			// the frontier reflects the unexplored work.
			s.open = append(s.open, n.ID)
			s.capped = true
			return
		}

		value := n.Solution[v.Name]
		down, up := childBounds(v, value)
		n.Status = NodeCompleted
		n.BranchVariable = v.Name
		n.BranchValue = value
		s.cfg.Trace.OnNode(n, DecisionBranched)

		for _, bound := range []branchBound{down, up} {
			inherited := make([]branchBound, len(n.inherited), len(n.inherited)+1)
			copy(inherited, n.inherited)
			inherited = append(inherited, bound)
			child := s.newNode(n.ID, n.Level+1, inherited, bound.Variable, value, bound.Direction)
			n.Children = append(n.Children, child.ID)
		}
	}
}

// pop removes and returns the open node with the best bound for the
// objective sense, ties broken by lowest node id.
func (s *bnbSearch) pop() *BranchNode {
	bestIdx := 0
	best := s.arena[s.open[0]]
	for k := 1; k < len(s.open); k++ {
		candidate := s.arena[s.open[k]]
		if strictlyBetter(s.model.Sense, candidate.Bound, best.Bound) {
			bestIdx, best = k, candidate
		}
	}
	s.open = append(s.open[:bestIdx], s.open[bestIdx+1:]...)
	return best
}

// nodeModel builds a node's working model: a relaxed deep copy of the
// original (binary upper bounds injected, integrality dropped) plus all
// branch constraints inherited from ancestors.
func nodeModel(model *LPModel, inherited []branchBound) *LPModel {
	clone := model.relaxedClone()
	for i, bb := range inherited {
		relation := LessEqual
		if bb.Direction == BranchCeil {
			relation = GreaterEqual
		}
		clone.AddConstraint(
			fmt.Sprintf("__branch%d_%s", i, bb.Variable),
			map[string]float64{bb.Variable: 1},
			relation,
			bb.Bound,
		)
	}
	return clone
}

// roundIntegral snaps near-integer values of integral variables to exact
// integers so incumbents report clean solutions.
func roundIntegral(m *LPModel, values map[string]float64, eps float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	for k, x := range values {
		out[k] = x
	}
	for _, v := range m.Variables {
		if v.IsIntegral() && isNearInteger(out[v.Name], eps) {
			out[v.Name] = math.Round(out[v.Name])
		}
	}
	return out
}

// strictlyBetter compares two objective values under the model sense.
func strictlyBetter(sense ObjectiveSense, a, b float64) bool {
	if sense == Minimize {
		return a < b
	}
	return a > b
}

// beatsIncumbent reports whether a relaxation bound can still improve on
// the incumbent objective by more than tol.
func beatsIncumbent(sense ObjectiveSense, bound, incumbent, tol float64) bool {
	if sense == Minimize {
		return bound < incumbent-tol
	}
	return bound > incumbent+tol
}

func worstBound(sense ObjectiveSense) float64 {
	if sense == Minimize {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

func bestBound(sense ObjectiveSense) float64 {
	if sense == Minimize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}
