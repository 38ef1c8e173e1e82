package linprog

import (
	"fmt"
	"math"
)

// substitutionKind describes how a model variable maps onto tableau
// columns after sign-restriction handling.
type substitutionKind int

const (
	// substDirect: one column, same value (x >= 0).
	substDirect substitutionKind = iota

	// substMirrored: one column holding -x (x <= 0).
	substMirrored

	// substSplit: two columns, x = pos - neg (unrestricted).
	substSplit
)

type substitution struct {
	kind substitutionKind
	pos  string
	neg  string
}

// CanonicalForm is the standard-form artifact derived from one LPModel:
// the generated tableau plus the bookkeeping needed to interpret it.
// A CanonicalForm with Valid == false carries the reason in Reason and
// must not be solved.
type CanonicalForm struct {
	Valid  bool
	Reason string

	Tableau *Tableau

	SlackVariables      []string
	SurplusVariables    []string
	ArtificialVariables []string

	// costs holds the maximize-equivalent objective coefficient per
	// tableau column (zero on slack/surplus/artificial columns).
	costs []float64

	substitutions map[string]substitution
	model         *LPModel
}

func invalidCanonicalForm(reason string) *CanonicalForm {
	return &CanonicalForm{Valid: false, Reason: reason}
}

// GenerateCanonicalForm converts a model into standard tableau form:
// slack variables on <= rows, surplus+artificial pairs on >= rows, a
// single artificial on = rows. Rows with negative RHS are negated first
// so the initial basis is feasible. Minimize objectives are negated to
// a maximize equivalent; the objective row stores the negated
// maximize-equivalent coefficients so "all row-0 coefficients >= 0" is
// the single optimality test.
func GenerateCanonicalForm(m *LPModel) *CanonicalForm {
	if len(m.Variables) == 0 {
		return invalidCanonicalForm("model has no variables")
	}
	if len(m.Constraints) == 0 {
		return invalidCanonicalForm("model has no constraints")
	}

	senseSign := 1.0
	if m.Sense == Minimize {
		senseSign = -1
	}

	// Structural columns, honoring sign restrictions.
	var names []string
	var costs []float64
	subs := make(map[string]substitution, len(m.Variables))
	for _, v := range m.Variables {
		switch v.Restriction {
		case Negative:
			col := v.Name + "_neg"
			subs[v.Name] = substitution{kind: substMirrored, neg: col}
			names = append(names, col)
			costs = append(costs, -senseSign*v.Coefficient)
		case Unrestricted:
			pos, neg := v.Name+"_pos", v.Name+"_neg"
			subs[v.Name] = substitution{kind: substSplit, pos: pos, neg: neg}
			names = append(names, pos, neg)
			costs = append(costs, senseSign*v.Coefficient, -senseSign*v.Coefficient)
		default:
			subs[v.Name] = substitution{kind: substDirect, pos: v.Name}
			names = append(names, v.Name)
			costs = append(costs, senseSign*v.Coefficient)
		}
	}

	type row struct {
		coefs    map[string]float64 // keyed by column name
		relation Relation
		rhs      float64
	}
	rows := make([]row, 0, len(m.Constraints))
	for _, c := range m.Constraints {
		r := row{coefs: make(map[string]float64), relation: c.Relation, rhs: c.RHS}
		for name, a := range c.Coefficients {
			sub, ok := subs[name]
			if !ok {
				return invalidCanonicalForm(fmt.Sprintf("constraint %q references unknown variable %q", c.Name, name))
			}
			switch sub.kind {
			case substDirect:
				r.coefs[sub.pos] += a
			case substMirrored:
				r.coefs[sub.neg] -= a
			case substSplit:
				r.coefs[sub.pos] += a
				r.coefs[sub.neg] -= a
			}
		}
		if r.rhs < 0 {
			for k := range r.coefs {
				r.coefs[k] = -r.coefs[k]
			}
			r.rhs = -r.rhs
			switch r.relation {
			case LessEqual:
				r.relation = GreaterEqual
			case GreaterEqual:
				r.relation = LessEqual
			}
		}
		rows = append(rows, r)
	}

	// Auxiliary columns and the initial basis.
	cf := &CanonicalForm{
		Valid:         true,
		substitutions: subs,
		model:         m,
	}
	structural := len(names)
	basics := make([]string, len(rows))
	type aux struct {
		name  string
		row   int
		value float64
	}
	var auxCols []aux
	for i, r := range rows {
		switch r.relation {
		case LessEqual:
			name := fmt.Sprintf("s%d", i+1)
			cf.SlackVariables = append(cf.SlackVariables, name)
			auxCols = append(auxCols, aux{name: name, row: i, value: 1})
			basics[i] = name
		case GreaterEqual:
			surplus := fmt.Sprintf("e%d", i+1)
			cf.SurplusVariables = append(cf.SurplusVariables, surplus)
			auxCols = append(auxCols, aux{name: surplus, row: i, value: -1})
			art := fmt.Sprintf("a%d", i+1)
			cf.ArtificialVariables = append(cf.ArtificialVariables, art)
			auxCols = append(auxCols, aux{name: art, row: i, value: 1})
			basics[i] = art
		case Equal:
			art := fmt.Sprintf("a%d", i+1)
			cf.ArtificialVariables = append(cf.ArtificialVariables, art)
			auxCols = append(auxCols, aux{name: art, row: i, value: 1})
			basics[i] = art
		}
	}
	for _, a := range auxCols {
		names = append(names, a.name)
		costs = append(costs, 0)
	}

	// Assemble the matrix: row 0 objective, last column RHS.
	n := len(names)
	colIndex := make(map[string]int, n)
	for j, name := range names {
		colIndex[name] = j
	}
	matrix := make([][]float64, len(rows)+1)
	matrix[0] = make([]float64, n+1)
	for j := 0; j < structural; j++ {
		matrix[0][j] = -costs[j]
	}
	for i, r := range rows {
		matrix[i+1] = make([]float64, n+1)
		for name, a := range r.coefs {
			matrix[i+1][colIndex[name]] = a
		}
		matrix[i+1][n] = r.rhs
	}
	for _, a := range auxCols {
		matrix[a.row+1][colIndex[a.name]] = a.value
	}

	tab, err := NewTableau(matrix, names, basics)
	if err != nil {
		return invalidCanonicalForm(err.Error())
	}
	cf.Tableau = tab
	cf.costs = costs
	return cf
}

// artificialSet returns the artificial variable names as a set.
func (cf *CanonicalForm) artificialSet() map[string]bool {
	set := make(map[string]bool, len(cf.ArtificialVariables))
	for _, a := range cf.ArtificialVariables {
		set[a] = true
	}
	return set
}

// OriginalSolution maps tableau column values back to model variable
// values, undoing sign-restriction substitutions.
func (cf *CanonicalForm) OriginalSolution(columns map[string]float64) map[string]float64 {
	values := make(map[string]float64, len(cf.model.Variables))
	for _, v := range cf.model.Variables {
		sub := cf.substitutions[v.Name]
		switch sub.kind {
		case substDirect:
			values[v.Name] = columns[sub.pos]
		case substMirrored:
			values[v.Name] = -columns[sub.neg]
		case substSplit:
			values[v.Name] = columns[sub.pos] - columns[sub.neg]
		}
	}
	return values
}

// ObjectiveValue recomputes the objective as the sum over original model
// coefficients times current variable values. The tableau's own RHS cell
// is deliberately never consulted.
func (cf *CanonicalForm) ObjectiveValue() float64 {
	return cf.model.ObjectiveAt(cf.OriginalSolution(cf.Tableau.ColumnValues()))
}

// cost returns the maximize-equivalent objective coefficient of a
// tableau column.
func (cf *CanonicalForm) cost(name string) float64 {
	if j := cf.Tableau.Column(name); j >= 0 && j < len(cf.costs) {
		return cf.costs[j]
	}
	return 0
}

// loadPhase1Objective rewrites row 0 to minimize the artificial sum
// (maximize-equivalent cost -1 per artificial, stored negated as +1) and
// prices out the basic artificials so every basic column starts at zero.
func (cf *CanonicalForm) loadPhase1Objective() {
	tab := cf.Tableau
	artificial := cf.artificialSet()
	n := tab.NumColumns()
	for j := 0; j <= n; j++ {
		tab.Rows[0][j] = 0
	}
	for j, name := range tab.VariableNames {
		if artificial[name] {
			tab.Rows[0][j] = 1
		}
	}
	for i, basic := range tab.BasicVariables {
		if artificial[basic] {
			for j := 0; j <= n; j++ {
				tab.Rows[0][j] -= tab.Rows[i+1][j]
			}
		}
	}
}

// phase1Infeasibility sums the values of the artificials still basic
// after phase 1; a positive sum means the model has no feasible point.
func (cf *CanonicalForm) phase1Infeasibility() float64 {
	artificial := cf.artificialSet()
	var sum float64
	for i, basic := range cf.Tableau.BasicVariables {
		if artificial[basic] {
			sum += cf.Tableau.RHS(i)
		}
	}
	return sum
}

// cleanupArtificials pivots out artificials left basic at zero level
// after phase 1, dropping rows that are redundant outside the artificial
// columns.
func (cf *CanonicalForm) cleanupArtificials(tol float64) error {
	tab := cf.Tableau
	artificial := cf.artificialSet()
	for i := tab.NumConstraints() - 1; i >= 0; i-- {
		if !artificial[tab.BasicVariables[i]] {
			continue
		}
		pivoted := false
		for j, name := range tab.VariableNames {
			if artificial[name] {
				continue
			}
			if math.Abs(tab.Rows[i+1][j]) > tol {
				if err := tab.Pivot(i, j); err != nil {
					return err
				}
				pivoted = true
				break
			}
		}
		if !pivoted {
			tab.dropRow(i)
		}
	}
	return nil
}

// restoreObjective strips the artificial columns, reloads the true
// objective into row 0 and prices out the current basis, readying the
// tableau for phase 2.
func (cf *CanonicalForm) restoreObjective() {
	cf.stripArtificials()
	tab := cf.Tableau
	n := tab.NumColumns()
	for j := 0; j < n; j++ {
		tab.Rows[0][j] = -cf.costs[j]
	}
	tab.Rows[0][n] = 0
	for i, basic := range tab.BasicVariables {
		col := tab.Column(basic)
		factor := tab.Rows[0][col]
		if factor == 0 {
			continue
		}
		for j := 0; j <= n; j++ {
			tab.Rows[0][j] -= factor * tab.Rows[i+1][j]
		}
	}
}

// stripArtificials removes the artificial columns from the tableau and
// realigns the cost vector. Called between the two simplex phases.
func (cf *CanonicalForm) stripArtificials() {
	byName := make(map[string]float64, len(cf.costs))
	for j, name := range cf.Tableau.VariableNames {
		byName[name] = cf.costs[j]
	}
	cf.Tableau.dropColumns(cf.artificialSet())
	cf.costs = make([]float64, len(cf.Tableau.VariableNames))
	for j, name := range cf.Tableau.VariableNames {
		cf.costs[j] = byName[name]
	}
	cf.ArtificialVariables = nil
}
