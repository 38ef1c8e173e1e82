package linprog

import (
	"math"

	"github.com/pkg/errors"
)

// Tableau is the mutable pivot target of the tableau-based solvers.
// Rows is a (constraints+1) x (columns+1) matrix: row 0 is the objective
// row holding negated maximize-equivalent coefficients, the last column
// is the RHS. BasicVariables[i] names the variable whose unit column
// occupies constraint row i. After every pivot each basic column is a
// unit vector: 1 in its own row, 0 elsewhere.
type Tableau struct {
	Rows           [][]float64
	VariableNames  []string
	BasicVariables []string
}

// NewTableau validates dimensions and wraps the raw matrix.
func NewTableau(rows [][]float64, names []string, basics []string) (*Tableau, error) {
	if len(rows) != len(basics)+1 {
		return nil, errors.Errorf("tableau has %d rows, expected %d basic variables plus objective row", len(rows), len(basics))
	}
	want := len(names) + 1
	for i, r := range rows {
		if len(r) != want {
			return nil, errors.Errorf("tableau row %d has %d columns, expected %d", i, len(r), want)
		}
	}
	return &Tableau{Rows: rows, VariableNames: names, BasicVariables: basics}, nil
}

// NumConstraints returns the number of constraint rows (excluding the
// objective row).
func (t *Tableau) NumConstraints() int { return len(t.BasicVariables) }

// NumColumns returns the number of variable columns (excluding RHS).
func (t *Tableau) NumColumns() int { return len(t.VariableNames) }

// Column returns the column index of a variable name, or -1.
func (t *Tableau) Column(name string) int {
	for j, n := range t.VariableNames {
		if n == name {
			return j
		}
	}
	return -1
}

// RHS returns the right-hand side of constraint row i (0-based).
func (t *Tableau) RHS(i int) float64 {
	return t.Rows[i+1][t.NumColumns()]
}

// IsOptimal reports whether every objective-row coefficient is >= -eps.
func (t *Tableau) IsOptimal(eps float64) bool {
	n := t.NumColumns()
	for j := 0; j < n; j++ {
		if t.Rows[0][j] < -eps {
			return false
		}
	}
	return true
}

// EnteringColumn returns the column with the most negative objective-row
// coefficient, ties broken by lowest column index. Returns -1 when the
// tableau is optimal.
func (t *Tableau) EnteringColumn(eps float64) int {
	best := -1
	bestVal := -eps
	for j := 0; j < t.NumColumns(); j++ {
		if t.Rows[0][j] < bestVal {
			bestVal = t.Rows[0][j]
			best = j
		}
	}
	return best
}

// IsUnbounded reports whether every constraint-row coefficient in the
// column is <= eps, i.e. the entering variable can grow without bound.
func (t *Tableau) IsUnbounded(col int, eps float64) bool {
	for i := 0; i < t.NumConstraints(); i++ {
		if t.Rows[i+1][col] > eps {
			return false
		}
	}
	return true
}

// LeavingRow runs the minimum-ratio test over rows with a positive
// coefficient in col, ties broken by lowest row index. It returns the
// winning constraint row (or -1) and the full ratio table for the
// iteration trace.
func (t *Tableau) LeavingRow(col int, eps float64) (int, []RatioEntry) {
	best := -1
	bestRatio := math.Inf(1)
	var table []RatioEntry
	for i := 0; i < t.NumConstraints(); i++ {
		coef := t.Rows[i+1][col]
		if coef <= eps {
			continue
		}
		ratio := t.RHS(i) / coef
		table = append(table, RatioEntry{
			Row:         i,
			Basic:       t.BasicVariables[i],
			RHS:         t.RHS(i),
			Coefficient: coef,
			Ratio:       ratio,
		})
		if ratio < bestRatio {
			bestRatio = ratio
			best = i
		}
	}
	return best, table
}

// Pivot normalizes constraint row `row` by the pivot element and
// eliminates `col` from every other row, including the objective row,
// preserving the unit-column invariant. The entering variable becomes
// basic in `row`.
func (t *Tableau) Pivot(row, col int) error {
	n := t.NumColumns()
	pivotRow := t.Rows[row+1]
	pivotElem := pivotRow[col]
	if math.Abs(pivotElem) < 1e-14 {
		return errors.Errorf("zero pivot element at row %d, column %s", row, t.VariableNames[col])
	}

	for j := 0; j <= n; j++ {
		pivotRow[j] /= pivotElem
	}
	for i := range t.Rows {
		if i == row+1 {
			continue
		}
		factor := t.Rows[i][col]
		if factor == 0 {
			continue
		}
		for j := 0; j <= n; j++ {
			t.Rows[i][j] -= factor * pivotRow[j]
		}
	}

	t.BasicVariables[row] = t.VariableNames[col]
	return nil
}

// ColumnValues returns the current value of every tableau column: a
// basic variable takes its row's RHS, every non-basic variable is 0.
func (t *Tableau) ColumnValues() map[string]float64 {
	values := make(map[string]float64, t.NumColumns())
	for _, name := range t.VariableNames {
		values[name] = 0
	}
	for i, basic := range t.BasicVariables {
		values[basic] = t.RHS(i)
	}
	return values
}

// Clone deep-copies the tableau.
func (t *Tableau) Clone() *Tableau {
	rows := make([][]float64, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]float64(nil), r...)
	}
	return &Tableau{
		Rows:           rows,
		VariableNames:  append([]string(nil), t.VariableNames...),
		BasicVariables: append([]string(nil), t.BasicVariables...),
	}
}

// dropColumns rebuilds the tableau without the named columns. Used to
// strip artificial variables between the two simplex phases.
func (t *Tableau) dropColumns(names map[string]bool) {
	n := t.NumColumns()
	var keep []int
	var keptNames []string
	for j := 0; j < n; j++ {
		if !names[t.VariableNames[j]] {
			keep = append(keep, j)
			keptNames = append(keptNames, t.VariableNames[j])
		}
	}
	for i, r := range t.Rows {
		next := make([]float64, 0, len(keep)+1)
		for _, j := range keep {
			next = append(next, r[j])
		}
		next = append(next, r[n])
		t.Rows[i] = next
	}
	t.VariableNames = keptNames
}

// dropRow removes constraint row i (0-based) and its basic-variable
// entry. Used when a redundant row is left with a degenerate artificial
// that cannot be pivoted out.
func (t *Tableau) dropRow(i int) {
	t.Rows = append(t.Rows[:i+1], t.Rows[i+2:]...)
	t.BasicVariables = append(t.BasicVariables[:i], t.BasicVariables[i+1:]...)
}
