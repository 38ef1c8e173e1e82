package linprog

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink records every trace event for assertions.
type captureSink struct {
	pivots    []IterationRecord
	decisions []NodeDecision
	cuts      []Cut
}

func (s *captureSink) OnPivot(rec IterationRecord)          { s.pivots = append(s.pivots, rec) }
func (s *captureSink) OnNode(_ *BranchNode, d NodeDecision) { s.decisions = append(s.decisions, d) }
func (s *captureSink) OnCut(c Cut)                          { s.cuts = append(s.cuts, c) }

func TestTraceSink_PrimalPivots(t *testing.T) {
	sink := &captureSink{}
	p := NewPrimalSimplex()
	p.Trace = sink

	res := p.Solve(twoVarMax())
	require.Equal(t, StatusOptimal, res.Status)

	require.Len(t, sink.pivots, len(res.Iterations))
	for i, rec := range sink.pivots {
		assert.Equal(t, res.Iterations[i].Iteration, rec.Iteration)
		assert.Equal(t, res.Iterations[i].Entering, rec.Entering)
		assert.Equal(t, res.Iterations[i].Leaving, rec.Leaving)
	}
}

func TestTraceSink_BranchAndBoundDecisions(t *testing.T) {
	sink := &captureSink{}
	b := NewBranchAndBound()
	b.Trace = sink

	res := b.SolveInteger(integerMax())
	require.Equal(t, StatusOptimal, res.Status)

	assert.Contains(t, sink.decisions, DecisionBranched)
	assert.Contains(t, sink.decisions, DecisionNewIncumbent)
	assert.Contains(t, sink.decisions, DecisionWorseThanIncumbent)
}

func TestTraceSink_CuttingPlaneCuts(t *testing.T) {
	sink := &captureSink{}
	c := NewCuttingPlaneSolver()
	c.Trace = sink

	m := NewModel(Maximize)
	m.AddVariable("x", 3, Integer)
	m.AddVariable("y", 2, Integer)
	m.AddConstraint("c1", map[string]float64{"x": 1, "y": 1}, LessEqual, 1.5)

	res := c.SolveWithCuts(m)
	require.Equal(t, StatusOptimal, res.Status)
	assert.Equal(t, res.Cuts, sink.cuts)
}

func TestNopSink(t *testing.T) {
	sink := NopSink()
	sink.OnPivot(IterationRecord{})
	sink.OnNode(&BranchNode{}, DecisionBranched)
	sink.OnCut(Cut{})
}

func TestLogrusSink(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	sink := LogrusSink{Logger: logger}

	p := NewPrimalSimplex()
	p.Trace = sink
	require.Equal(t, StatusOptimal, p.Solve(twoVarMax()).Status)
	assert.NotEmpty(t, hook.Entries)
	assert.Equal(t, "pivot", hook.Entries[0].Message)

	hook.Reset()
	b := NewBranchAndBound()
	b.Trace = sink
	require.Equal(t, StatusOptimal, b.SolveInteger(integerMax()).Status)
	assert.NotEmpty(t, hook.Entries)
}
