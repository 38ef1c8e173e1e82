package linprog

import "time"

// Status is the closed set of terminal solve outcomes. Optimal,
// Infeasible, Unbounded and MaxIterationsReached are expected terminal
// states of the algorithms, not defects; StatusError is reserved for
// genuinely unexpected internal conditions.
type Status string

const (
	StatusUnknown              Status = "Unknown"
	StatusOptimal              Status = "Optimal"
	StatusInfeasible           Status = "Infeasible"
	StatusUnbounded            Status = "Unbounded"
	StatusMaxIterationsReached Status = "MaxIterationsReached"
	StatusError                Status = "Error"
)

// RatioEntry is one row of the minimum-ratio test table recorded per
// iteration: the candidate leaving row, its basic variable, and the
// RHS / pivot-column ratio that was compared.
type RatioEntry struct {
	Row         int
	Basic       string
	RHS         float64
	Coefficient float64
	Ratio       float64
}

// IterationRecord is a full before/after snapshot of one pivot, recorded
// for audit and replay.
type IterationRecord struct {
	Iteration int
	Phase     int
	Entering  string
	Leaving   string
	Ratios    []RatioEntry

	// ObjectiveValue is recomputed from the original model coefficients
	// after the pivot, never read from the tableau's RHS cell.
	ObjectiveValue float64
}

// SolveResult is the uniform result record every solve entry point
// returns. Callers never see a raw error from inside an algorithm: the
// outcome space is the Status set, with ErrorMessage populated for
// StatusError and validation failures.
type SolveResult struct {
	IsSuccessful   bool
	Status         Status
	ObjectiveValue float64
	Solution       map[string]float64
	Iterations     []IterationRecord
	ErrorMessage   string
	Elapsed        time.Duration
}

// IsOptimal reports whether the solve terminated at a proven or reported
// optimum.
func (r *SolveResult) IsOptimal() bool {
	return r.Status == StatusOptimal
}

func errorResult(msg string) *SolveResult {
	return &SolveResult{
		Status:       StatusError,
		ErrorMessage: msg,
		Solution:     map[string]float64{},
	}
}

// NodeStatus is the per-node state machine of a branch-and-bound search.
// A node starts Active and moves to exactly one terminal state.
type NodeStatus string

const (
	NodeActive                  NodeStatus = "Active"
	NodeCompleted               NodeStatus = "Completed"
	NodeFathomedByBound         NodeStatus = "FathomedByBound"
	NodeFathomedByInfeasibility NodeStatus = "FathomedByInfeasibility"
	NodeFathomedByIntegrality   NodeStatus = "FathomedByIntegrality"
)

// BranchDirection labels which side of a branching disjunction a node
// explores.
type BranchDirection string

const (
	BranchNone  BranchDirection = ""
	BranchFloor BranchDirection = "floor" // x <= floor(v)
	BranchCeil  BranchDirection = "ceil"  // x >= ceil(v)
)

// branchBound is one inherited branching constraint: Variable <= Bound
// (floor direction) or Variable >= Bound (ceil direction).
type branchBound struct {
	Variable  string
	Direction BranchDirection
	Bound     float64
}

// BranchNode is one node of the enumeration tree, stored in a flat arena
// indexed by ID. ParentID is a plain id, never an owning pointer.
type BranchNode struct {
	ID       int
	ParentID int
	Level    int

	// Bound is the node's relaxation objective value; it limits the best
	// integer objective achievable in the node's subtree.
	Bound    float64
	Solution map[string]float64
	Status   NodeStatus

	BranchVariable  string
	BranchValue     float64
	BranchDirection BranchDirection

	// constraints accumulated from the root down to this node.
	inherited []branchBound

	Children []int
}

// IntegerSolution is a materialized incumbent.
type IntegerSolution struct {
	Values    map[string]float64
	Objective float64
	NodeID    int
}

// IntegerResult extends SolveResult with the search-tree bookkeeping of
// the integer-programming algorithms.
type IntegerResult struct {
	SolveResult

	Nodes     []*BranchNode
	RootBound float64

	// Gap is |RootBound - incumbent| / |RootBound| * 100.
	Gap float64

	// NodesExhausted is true when the frontier was fully explored, i.e.
	// a reported Optimal status is proven rather than budget-limited.
	NodesExhausted bool

	Incumbent *IntegerSolution
}

// Cut is one generated cutting plane: a bound Variable <= RHS, together
// with the fractional violation that produced it and the iteration it
// was added in.
type Cut struct {
	Variable  string
	Relation  Relation
	RHS       float64
	Violation float64
	Iteration int
}

// CutResult extends SolveResult with the cuts generated by the
// cutting-plane solver.
type CutResult struct {
	SolveResult

	Cuts []Cut
}
