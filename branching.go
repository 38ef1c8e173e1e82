package linprog

import "math"

// integerFeasible reports whether every Integer/Binary variable is
// within eps of an integer value, with binaries additionally confined
// to {0, 1}.
func integerFeasible(m *LPModel, values map[string]float64, eps float64) bool {
	for _, v := range m.Variables {
		if !v.IsIntegral() {
			continue
		}
		x := values[v.Name]
		if !isNearInteger(x, eps) {
			return false
		}
		if v.Restriction == Binary {
			r := math.Round(x)
			if r != 0 && r != 1 {
				return false
			}
		}
	}
	return true
}

// branchingVariable selects the Integer/Binary variable with the largest
// fractional part, ties broken by the first encountered in
// variable-index order. Returns nil when no integral variable is
// fractional.
func branchingVariable(m *LPModel, values map[string]float64, eps float64) *Variable {
	var best *Variable
	bestFrac := 0.0
	for _, v := range m.Variables {
		if !v.IsIntegral() {
			continue
		}
		x := values[v.Name]
		if isNearInteger(x, eps) {
			continue
		}
		frac := fractionalPart(x)
		if frac > bestFrac {
			bestFrac = frac
			best = v
		}
	}
	return best
}

// childBounds builds the branching disjunction for a fractional value:
// binaries split into x <= 0 / x >= 1, general integers into
// x <= floor(v) / x >= ceil(v).
func childBounds(v *Variable, value float64) (down branchBound, up branchBound) {
	if v.Restriction == Binary {
		down = branchBound{Variable: v.Name, Direction: BranchFloor, Bound: 0}
		up = branchBound{Variable: v.Name, Direction: BranchCeil, Bound: 1}
		return down, up
	}
	down = branchBound{Variable: v.Name, Direction: BranchFloor, Bound: math.Floor(value)}
	up = branchBound{Variable: v.Name, Direction: BranchCeil, Bound: math.Ceil(value)}
	return down, up
}
