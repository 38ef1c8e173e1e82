package linprog

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ObjectiveSense states whether the objective function is maximized or minimized.
type ObjectiveSense int

const (
	Maximize ObjectiveSense = iota
	Minimize
)

func (s ObjectiveSense) String() string {
	if s == Minimize {
		return "min"
	}
	return "max"
}

// SignRestriction constrains the domain of a single variable.
type SignRestriction int

const (
	// Positive restricts the variable to x >= 0.
	Positive SignRestriction = iota

	// Negative restricts the variable to x <= 0.
	Negative

	// Unrestricted places no sign restriction on the variable.
	Unrestricted

	// Integer restricts the variable to nonnegative integers.
	Integer

	// Binary restricts the variable to {0, 1}.
	Binary
)

func (r SignRestriction) String() string {
	switch r {
	case Positive:
		return "+"
	case Negative:
		return "-"
	case Unrestricted:
		return "urs"
	case Integer:
		return "int"
	case Binary:
		return "bin"
	}
	return "?"
}

// Relation is the comparison operator of a constraint row.
type Relation int

const (
	LessEqual Relation = iota
	GreaterEqual
	Equal
)

func (r Relation) String() string {
	switch r {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	}
	return "?"
}

// Variable is a decision variable of an LPModel. Name is the unique key;
// Index fixes the variable's column position in generated tableaus.
type Variable struct {
	Name        string
	Index       int
	Coefficient float64
	Restriction SignRestriction
}

// IsIntegral reports whether the variable carries an integrality constraint.
func (v *Variable) IsIntegral() bool {
	return v.Restriction == Integer || v.Restriction == Binary
}

// Constraint is one row of an LPModel: a sparse mapping of variable names
// to coefficients, compared to RHS under Relation.
type Constraint struct {
	Name         string
	Coefficients map[string]float64
	Relation     Relation
	RHS          float64
}

// LPModel is the in-memory model graph consumed by all solvers.
// Variables are ordered by Index. Algorithms never mutate a model they
// were handed; derived working models are made with Clone.
type LPModel struct {
	Sense       ObjectiveSense
	Variables   []*Variable
	Constraints []*Constraint
}

// NewModel returns an empty model with the given objective sense.
func NewModel(sense ObjectiveSense) *LPModel {
	return &LPModel{Sense: sense}
}

// AddVariable appends a variable and returns a reference to it.
// The variable's Index is its position in the declaration order.
func (m *LPModel) AddVariable(name string, coefficient float64, restriction SignRestriction) *Variable {
	v := &Variable{
		Name:        name,
		Index:       len(m.Variables),
		Coefficient: coefficient,
		Restriction: restriction,
	}
	m.Variables = append(m.Variables, v)
	return v
}

// AddConstraint appends a constraint row. Coefficient keys are variable
// names; references are checked by Validate before any solve, not here.
func (m *LPModel) AddConstraint(name string, coefficients map[string]float64, relation Relation, rhs float64) *Constraint {
	coefs := make(map[string]float64, len(coefficients))
	for k, v := range coefficients {
		coefs[k] = v
	}
	c := &Constraint{
		Name:         name,
		Coefficients: coefs,
		Relation:     relation,
		RHS:          rhs,
	}
	m.Constraints = append(m.Constraints, c)
	return c
}

// Variable returns the variable with the given name, or nil.
func (m *LPModel) Variable(name string) *Variable {
	for _, v := range m.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// HasIntegralVariables reports whether any variable is Integer or Binary.
func (m *LPModel) HasIntegralVariables() bool {
	for _, v := range m.Variables {
		if v.IsIntegral() {
			return true
		}
	}
	return false
}

// Validate checks the model graph before any solve attempt: at least one
// variable and constraint, unique variable and constraint names, and
// every constraint coefficient referencing a declared variable.
func (m *LPModel) Validate() error {
	if len(m.Variables) == 0 {
		return errors.New("model has no variables")
	}
	if len(m.Constraints) == 0 {
		return errors.New("model has no constraints")
	}

	seen := make(map[string]bool, len(m.Variables))
	for i, v := range m.Variables {
		if v.Name == "" {
			return errors.Errorf("variable at index %d has an empty name", i)
		}
		if seen[v.Name] {
			return errors.Errorf("duplicate variable name %q", v.Name)
		}
		seen[v.Name] = true
		if v.Index != i {
			return errors.Errorf("variable %q has index %d, expected %d", v.Name, v.Index, i)
		}
	}

	rows := make(map[string]bool, len(m.Constraints))
	for _, c := range m.Constraints {
		if rows[c.Name] {
			return errors.Errorf("duplicate constraint name %q", c.Name)
		}
		rows[c.Name] = true
		if len(c.Coefficients) == 0 {
			return errors.Errorf("constraint %q has no coefficients", c.Name)
		}
		for name := range c.Coefficients {
			if !seen[name] {
				return errors.Wrapf(errUnknownVariable, "constraint %q references %q", c.Name, name)
			}
		}
	}
	return nil
}

var errUnknownVariable = errors.New("unknown variable")

// Clone returns a deep copy. The copy shares no mutable state with the
// receiver, so algorithms may append constraints or rewrite restrictions
// on the clone without touching the original.
func (m *LPModel) Clone() *LPModel {
	clone := &LPModel{
		Sense:       m.Sense,
		Variables:   make([]*Variable, len(m.Variables)),
		Constraints: make([]*Constraint, len(m.Constraints)),
	}
	for i, v := range m.Variables {
		vc := *v
		clone.Variables[i] = &vc
	}
	for i, c := range m.Constraints {
		coefs := make(map[string]float64, len(c.Coefficients))
		for k, val := range c.Coefficients {
			coefs[k] = val
		}
		clone.Constraints[i] = &Constraint{
			Name:         c.Name,
			Coefficients: coefs,
			Relation:     c.Relation,
			RHS:          c.RHS,
		}
	}
	return clone
}

// ObjectiveAt recomputes the objective from the original coefficients and
// a solution vector. This, not any tableau cell, is the system of record
// for reported objective values.
func (m *LPModel) ObjectiveAt(values map[string]float64) float64 {
	var z float64
	for _, v := range m.Variables {
		z += v.Coefficient * values[v.Name]
	}
	return z
}

// relaxedClone deep-copies the model, drops Integer/Binary restrictions to
// Positive, and adds an explicit x <= 1 row for every binary variable so
// the continuous relaxation respects binary upper bounds.
func (m *LPModel) relaxedClone() *LPModel {
	clone := m.Clone()
	for _, v := range clone.Variables {
		if v.Restriction == Binary {
			clone.AddConstraint(
				fmt.Sprintf("__ub_%s", v.Name),
				map[string]float64{v.Name: 1},
				LessEqual,
				1,
			)
		}
	}
	for _, v := range clone.Variables {
		if v.IsIntegral() {
			v.Restriction = Positive
		}
	}
	return clone
}

// fractionalPart returns the distance of x to the nearest lower integer.
func fractionalPart(x float64) float64 {
	return x - math.Floor(x)
}

// isNearInteger reports whether x is within eps of an integer.
func isNearInteger(x float64, eps float64) bool {
	return math.Abs(x-math.Round(x)) <= eps
}
