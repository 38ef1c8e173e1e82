package linprog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCanonicalForm_AuxiliaryVariables(t *testing.T) {
	tests := []struct {
		name           string
		relation       Relation
		wantSlack      int
		wantSurplus    int
		wantArtificial int
	}{
		{name: "less-equal adds slack", relation: LessEqual, wantSlack: 1},
		{name: "greater-equal adds surplus and artificial", relation: GreaterEqual, wantSurplus: 1, wantArtificial: 1},
		{name: "equality adds artificial", relation: Equal, wantArtificial: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(Maximize)
			m.AddVariable("x1", 1, Positive)
			m.AddConstraint("c1", map[string]float64{"x1": 1}, tt.relation, 5)

			cf := GenerateCanonicalForm(m)
			assert.True(t, cf.Valid)
			assert.Len(t, cf.SlackVariables, tt.wantSlack)
			assert.Len(t, cf.SurplusVariables, tt.wantSurplus)
			assert.Len(t, cf.ArtificialVariables, tt.wantArtificial)
		})
	}
}

func TestGenerateCanonicalForm_ObjectiveRow(t *testing.T) {
	// Row 0 stores negated maximize-equivalent coefficients, so a
	// minimize model is negated twice.
	m := NewModel(Minimize)
	m.AddVariable("x1", 3, Positive)
	m.AddVariable("x2", -2, Positive)
	m.AddConstraint("c1", map[string]float64{"x1": 1, "x2": 1}, LessEqual, 4)

	cf := GenerateCanonicalForm(m)
	assert.True(t, cf.Valid)
	assert.Equal(t, float64(3), cf.Tableau.Rows[0][cf.Tableau.Column("x1")])
	assert.Equal(t, float64(-2), cf.Tableau.Rows[0][cf.Tableau.Column("x2")])
}

func TestGenerateCanonicalForm_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		model *LPModel
	}{
		{name: "no variables", model: NewModel(Maximize)},
		{
			name: "no constraints",
			model: func() *LPModel {
				m := NewModel(Maximize)
				m.AddVariable("x1", 1, Positive)
				return m
			}(),
		},
		{
			name: "unknown variable reference",
			model: func() *LPModel {
				m := NewModel(Maximize)
				m.AddVariable("x1", 1, Positive)
				m.AddConstraint("c1", map[string]float64{"ghost": 1}, LessEqual, 1)
				return m
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf := GenerateCanonicalForm(tt.model)
			assert.False(t, cf.Valid)
			assert.NotEmpty(t, cf.Reason)
		})
	}
}

func TestGenerateCanonicalForm_NegativeRHSNormalized(t *testing.T) {
	// x1 <= -2 flips to -x1 >= 2, which needs surplus+artificial.
	m := NewModel(Maximize)
	m.AddVariable("x1", 1, Unrestricted)
	m.AddConstraint("c1", map[string]float64{"x1": 1}, LessEqual, -2)

	cf := GenerateCanonicalForm(m)
	assert.True(t, cf.Valid)
	assert.Empty(t, cf.SlackVariables)
	assert.Len(t, cf.SurplusVariables, 1)
	assert.Len(t, cf.ArtificialVariables, 1)
	for i := 0; i < cf.Tableau.NumConstraints(); i++ {
		assert.GreaterOrEqual(t, cf.Tableau.RHS(i), float64(0))
	}
}

func TestCanonicalForm_SignSubstitutions(t *testing.T) {
	m := NewModel(Maximize)
	m.AddVariable("neg", 1, Negative)
	m.AddVariable("free", 1, Unrestricted)
	m.AddConstraint("c1", map[string]float64{"neg": 1, "free": 1}, LessEqual, 4)

	cf := GenerateCanonicalForm(m)
	assert.True(t, cf.Valid)

	// negative variables are mirrored, unrestricted ones split in two
	assert.Equal(t, -1, cf.Tableau.Column("neg"))
	assert.NotEqual(t, -1, cf.Tableau.Column("neg_neg"))
	assert.NotEqual(t, -1, cf.Tableau.Column("free_pos"))
	assert.NotEqual(t, -1, cf.Tableau.Column("free_neg"))

	values := cf.OriginalSolution(map[string]float64{
		"neg_neg":  2,
		"free_pos": 1,
		"free_neg": 3,
	})
	assert.Equal(t, float64(-2), values["neg"])
	assert.Equal(t, float64(-2), values["free"])
}
