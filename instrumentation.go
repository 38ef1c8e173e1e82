package linprog

import "github.com/sirupsen/logrus"

// NodeDecision labels what the branch-and-bound search decided to do
// with a node. Reported through the TraceSink only; algorithms never
// branch on these values.
type NodeDecision string

const (
	DecisionRelaxationInfeasible NodeDecision = "relaxation has no feasible solution"
	DecisionRelaxationUnbounded  NodeDecision = "relaxation is unbounded"
	DecisionWorseThanIncumbent   NodeDecision = "bound cannot beat incumbent"
	DecisionIntegerFeasible      NodeDecision = "relaxation is integer feasible"
	DecisionNewIncumbent         NodeDecision = "new incumbent"
	DecisionBranched             NodeDecision = "fractional, branching"
	DecisionCutAdded             NodeDecision = "cutting plane added"
)

// TraceSink receives one callback per pivot and per node decision,
// decoupled from the algorithms' control flow. Implementations must not
// retain the *BranchNode beyond the call.
type TraceSink interface {
	OnPivot(rec IterationRecord)
	OnNode(n *BranchNode, decision NodeDecision)
	OnCut(c Cut)
}

type nopSink struct{}

func (nopSink) OnPivot(IterationRecord)          {}
func (nopSink) OnNode(*BranchNode, NodeDecision) {}
func (nopSink) OnCut(Cut)                        {}

// NopSink returns a sink that discards every event.
func NopSink() TraceSink { return nopSink{} }

// LogrusSink logs every pivot and node decision through a logrus logger
// at debug level.
type LogrusSink struct {
	Logger *logrus.Logger
}

func (s LogrusSink) OnPivot(rec IterationRecord) {
	s.Logger.WithFields(logrus.Fields{
		"iteration": rec.Iteration,
		"phase":     rec.Phase,
		"entering":  rec.Entering,
		"leaving":   rec.Leaving,
		"objective": rec.ObjectiveValue,
	}).Debug("pivot")
}

func (s LogrusSink) OnNode(n *BranchNode, decision NodeDecision) {
	s.Logger.WithFields(logrus.Fields{
		"node":   n.ID,
		"parent": n.ParentID,
		"level":  n.Level,
		"bound":  n.Bound,
		"status": n.Status,
	}).Debug(string(decision))
}

func (s LogrusSink) OnCut(c Cut) {
	s.Logger.WithFields(logrus.Fields{
		"variable":  c.Variable,
		"rhs":       c.RHS,
		"violation": c.Violation,
		"iteration": c.Iteration,
	}).Debug(string(DecisionCutAdded))
}
