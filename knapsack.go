package linprog

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// KnapsackItem is one candidate object of a 0/1 knapsack.
type KnapsackItem struct {
	Name   string
	Weight float64
	Value  float64
}

// KnapsackInstance is a 0/1 knapsack: maximize total value of the
// selected items subject to a single capacity constraint.
type KnapsackInstance struct {
	Capacity float64
	Items    []KnapsackItem
}

// KnapsackBranchAndBound solves 0/1 knapsack models with a specialized
// branch-and-bound that replaces the per-node LP solve with a greedy
// fractional-completion upper bound. It applies only to models where
// every variable is binary, the objective is Maximize, and there is
// exactly one <= constraint with strictly positive coefficients.
type KnapsackBranchAndBound struct {
	Tol      float64
	MaxNodes int
	Trace    TraceSink
}

// NewKnapsackBranchAndBound returns a solver with default tolerance and
// node cap.
func NewKnapsackBranchAndBound() *KnapsackBranchAndBound {
	return &KnapsackBranchAndBound{
		Tol:      DefaultIntegerTolerance,
		MaxNodes: DefaultMaxIterations,
		Trace:    nopSink{},
	}
}

func (k *KnapsackBranchAndBound) AlgorithmName() string { return AlgorithmBranchAndBoundKnapsack }
func (k *KnapsackBranchAndBound) MaxIterations() int    { return k.MaxNodes }
func (k *KnapsackBranchAndBound) Tolerance() float64    { return k.Tol }

// SupportsModel checks the 0/1 knapsack shape.
func (k *KnapsackBranchAndBound) SupportsModel(m *LPModel) error {
	if err := m.Validate(); err != nil {
		return err
	}
	_, err := KnapsackInstanceFromModel(m)
	return err
}

// KnapsackInstanceFromModel extracts the knapsack instance from a
// knapsack-shaped model, items in variable-index order.
func KnapsackInstanceFromModel(m *LPModel) (*KnapsackInstance, error) {
	if m.Sense != Maximize {
		return nil, errors.New("knapsack models must maximize")
	}
	if len(m.Constraints) != 1 {
		return nil, errors.Errorf("knapsack models need exactly one constraint, got %d", len(m.Constraints))
	}
	c := m.Constraints[0]
	if c.Relation != LessEqual {
		return nil, errors.Errorf("knapsack constraint must be <=, got %s", c.Relation)
	}
	inst := &KnapsackInstance{Capacity: c.RHS}
	for _, v := range m.Variables {
		if v.Restriction != Binary {
			return nil, errors.Errorf("variable %q is not binary", v.Name)
		}
		w, ok := c.Coefficients[v.Name]
		if !ok || w <= 0 {
			return nil, errors.Errorf("variable %q needs a strictly positive weight", v.Name)
		}
		inst.Items = append(inst.Items, KnapsackItem{Name: v.Name, Weight: w, Value: v.Coefficient})
	}
	return inst, nil
}

// Solve adapts the knapsack search to the Algorithm interface.
func (k *KnapsackBranchAndBound) Solve(m *LPModel) *SolveResult {
	return &k.SolveInteger(m).SolveResult
}

// SolveInteger extracts the knapsack instance and runs the search.
func (k *KnapsackBranchAndBound) SolveInteger(m *LPModel) *IntegerResult {
	if err := m.Validate(); err != nil {
		return &IntegerResult{SolveResult: *errorResult(err.Error())}
	}
	inst, err := KnapsackInstanceFromModel(m)
	if err != nil {
		return &IntegerResult{SolveResult: *errorResult(err.Error())}
	}
	return k.SolveInstance(inst)
}

// knapNode is the specialized node state: items decided so far (level),
// the inclusion bitset over decided items, remaining capacity and
// accumulated value.
type knapNode struct {
	id       int
	parentID int
	level    int
	included *bitset.BitSet
	rest     float64
	value    float64
	bound    float64
	status   NodeStatus
	children []int
}

// SolveInstance runs best-first branch-and-bound over the item decision
// tree. Expansion processes items strictly in their fixed input order;
// the frontier pops the node with the highest fractional-completion
// bound, ties broken by lowest node id.
func (k *KnapsackBranchAndBound) SolveInstance(inst *KnapsackInstance) (res *IntegerResult) {
	start := time.Now()
	res = &IntegerResult{SolveResult: SolveResult{Status: StatusUnknown, Solution: map[string]float64{}}}
	defer func() {
		if r := recover(); r != nil {
			res = &IntegerResult{SolveResult: *errorResult(fmt.Sprint(r))}
		}
		res.Elapsed = time.Since(start)
	}()

	if len(inst.Items) == 0 {
		res.Status = StatusError
		res.ErrorMessage = "knapsack instance has no items"
		return res
	}

	n := len(inst.Items)
	var arena []*knapNode
	var open []int
	var incumbent *knapNode
	capped := false

	newKnapNode := func(parentID, level int, included *bitset.BitSet, rest, value float64) *knapNode {
		node := &knapNode{
			id:       len(arena),
			parentID: parentID,
			level:    level,
			included: included,
			rest:     rest,
			value:    value,
			bound:    fractionalCompletionBound(inst, level, rest, value),
			status:   NodeActive,
		}
		arena = append(arena, node)
		open = append(open, node.id)
		return node
	}

	root := newKnapNode(-1, 0, bitset.New(uint(n)), inst.Capacity, 0)
	res.RootBound = root.bound

	for len(open) > 0 {
		bestIdx := 0
		node := arena[open[0]]
		for i := 1; i < len(open); i++ {
			if arena[open[i]].bound > node.bound {
				bestIdx, node = i, arena[open[i]]
			}
		}
		open = append(open[:bestIdx], open[bestIdx+1:]...)

		if incumbent != nil && node.bound <= incumbent.value+k.Tol {
			node.status = NodeFathomedByBound
			k.Trace.OnNode(briefKnapNode(node), DecisionWorseThanIncumbent)
			continue
		}

		if node.level == n {
			node.status = NodeFathomedByIntegrality
			if incumbent == nil || node.value > incumbent.value {
				incumbent = node
				k.Trace.OnNode(briefKnapNode(node), DecisionNewIncumbent)
			} else {
				k.Trace.OnNode(briefKnapNode(node), DecisionIntegerFeasible)
			}
			continue
		}

		if len(arena)+2 > k.MaxNodes {
			open = append(open, node.id)
			capped = true
			break
		}

		item := inst.Items[node.level]
		node.status = NodeCompleted
		if item.Weight <= node.rest {
			in := node.included.Clone()
			in.Set(uint(node.level))
			child := newKnapNode(node.id, node.level+1, in, node.rest-item.Weight, node.value+item.Value)
			node.children = append(node.children, child.id)
		}
		out := newKnapNode(node.id, node.level+1, node.included.Clone(), node.rest, node.value)
		node.children = append(node.children, out.id)
		k.Trace.OnNode(briefKnapNode(node), DecisionBranched)
	}

	res.Nodes = materializeKnapNodes(inst, arena)
	res.NodesExhausted = len(open) == 0

	if incumbent != nil {
		res.Status = StatusOptimal
		res.IsSuccessful = true
		res.Solution = knapSolution(inst, incumbent)
		res.ObjectiveValue = incumbent.value
		res.Incumbent = &IntegerSolution{
			Values:    res.Solution,
			Objective: incumbent.value,
			NodeID:    incumbent.id,
		}
		if math.Abs(res.RootBound) > 1e-12 {
			res.Gap = math.Abs(res.RootBound-res.ObjectiveValue) / math.Abs(res.RootBound) * 100
		}
		return res
	}
	if capped {
		res.Status = StatusMaxIterationsReached
		return res
	}
	res.Status = StatusInfeasible
	return res
}

// fractionalCompletionBound is the classic fractional-knapsack upper
// bound: accumulated value plus greedy completion over the undecided
// items sorted by value/weight ratio descending, ending with a
// fractional slice of the first item that does not fit.
func fractionalCompletionBound(inst *KnapsackInstance, level int, rest, value float64) float64 {
	type rated struct {
		idx   int
		ratio float64
	}
	undecided := make([]rated, 0, len(inst.Items)-level)
	for i := level; i < len(inst.Items); i++ {
		undecided = append(undecided, rated{idx: i, ratio: inst.Items[i].Value / inst.Items[i].Weight})
	}
	sort.SliceStable(undecided, func(a, b int) bool {
		return undecided[a].ratio > undecided[b].ratio
	})

	bound := value
	for _, r := range undecided {
		item := inst.Items[r.idx]
		if item.Weight <= rest {
			bound += item.Value
			rest -= item.Weight
			continue
		}
		bound += item.Value * rest / item.Weight
		break
	}
	return bound
}

// briefKnapNode builds the shared node shape for trace callbacks.
func briefKnapNode(kn *knapNode) *BranchNode {
	return &BranchNode{
		ID:       kn.id,
		ParentID: kn.parentID,
		Level:    kn.level,
		Bound:    kn.bound,
		Status:   kn.status,
	}
}

// knapSolution maps an incumbent leaf's bitset to variable values.
func knapSolution(inst *KnapsackInstance, node *knapNode) map[string]float64 {
	values := make(map[string]float64, len(inst.Items))
	for i, item := range inst.Items {
		if node.included.Test(uint(i)) {
			values[item.Name] = 1
		} else {
			values[item.Name] = 0
		}
	}
	return values
}

// materializeKnapNodes converts the specialized nodes to the shared
// BranchNode shape for uniform reporting. Undecided items carry no entry
// in the node's solution map.
func materializeKnapNodes(inst *KnapsackInstance, arena []*knapNode) []*BranchNode {
	nodes := make([]*BranchNode, len(arena))
	for i, kn := range arena {
		values := make(map[string]float64, kn.level)
		for j := 0; j < kn.level; j++ {
			if kn.included.Test(uint(j)) {
				values[inst.Items[j].Name] = 1
			} else {
				values[inst.Items[j].Name] = 0
			}
		}
		bn := &BranchNode{
			ID:       kn.id,
			ParentID: kn.parentID,
			Level:    kn.level,
			Bound:    kn.bound,
			Solution: values,
			Status:   kn.status,
			Children: append([]int(nil), kn.children...),
		}
		if kn.level > 0 {
			bn.BranchVariable = inst.Items[kn.level-1].Name
			if kn.included.Test(uint(kn.level - 1)) {
				bn.BranchDirection = BranchCeil
				bn.BranchValue = 1
			} else {
				bn.BranchDirection = BranchFloor
				bn.BranchValue = 0
			}
		}
		nodes[i] = bn
	}
	return nodes
}
