// Package filter implements row filters in disjunctive normal form.
//
// A filter is a list of predicate groups: the groups are OR'd together and
// the predicates within a group are AND'd. Filters arrive as Python-style
// literal strings such as
//
//	[('a', '>', 5), ('b', '==', 'x')]
//	[[('a', '>', 5)], [('b', 'in', [1, 2, 3])]]
//
// and are parsed by Parse into an Expr. Evaluation operates on one row at a
// time through a column lookup function, so the caller decides how rows are
// stored.
package filter

import (
	"math"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

// Operator identifies a comparison in a predicate.
type Operator string

const (
	// OpEqual matches values equal to the literal. Accepts "==" and "=".
	OpEqual Operator = "=="
	// OpNotEqual matches values not equal to the literal.
	OpNotEqual Operator = "!="
	// OpLess matches values ordered before the literal.
	OpLess Operator = "<"
	// OpGreater matches values ordered after the literal.
	OpGreater Operator = ">"
	// OpLessEqual matches values not ordered after the literal.
	OpLessEqual Operator = "<="
	// OpGreaterEqual matches values not ordered before the literal.
	OpGreaterEqual Operator = ">="
	// OpIn matches values present in the literal set.
	OpIn Operator = "in"
	// OpNotIn matches values absent from the literal set.
	OpNotIn Operator = "not in"
)

// Predicate compares a named column against a literal value.
// Value is a string, int64, float64, bool, nil, or []interface{} of those
// scalars for set operators.
type Predicate struct {
	Column string
	Op     Operator
	Value  interface{}
}

// Expr is a filter in disjunctive normal form. The outer slice is OR'd
// together; each inner group is a conjunction.
type Expr [][]Predicate

// LookupFunc resolves a column name to the current row's value. It returns
// an error for columns the row does not have. A nil value means the cell
// is null.
type LookupFunc func(column string) (interface{}, error)

// Match reports whether the row visible through lookup satisfies the
// expression. A null cell satisfies no predicate, negated ones included.
func (e Expr) Match(lookup LookupFunc) (bool, error) {
	for _, group := range e {
		matched := true
		for _, p := range group {
			ok, err := p.match(lookup)
			if err != nil {
				return false, err
			}
			if !ok {
				matched = false
				break
			}
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// Columns returns the distinct column names referenced by the expression,
// in first-appearance order.
func (e Expr) Columns() []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, group := range e {
		for _, p := range group {
			if _, ok := seen[p.Column]; ok {
				continue
			}
			seen[p.Column] = struct{}{}
			cols = append(cols, p.Column)
		}
	}
	return cols
}

func (p Predicate) match(lookup LookupFunc) (bool, error) {
	value, err := lookup(p.Column)
	if err != nil {
		return false, err
	}
	if value == nil {
		return false, nil
	}

	switch p.Op {
	case OpIn, OpNotIn:
		set, ok := p.Value.([]interface{})
		if !ok {
			return false, errors.Newf(errors.ErrorTypeFilter,
				"operator %q requires a list value, got %T", p.Op, p.Value)
		}
		found := false
		for _, item := range set {
			if item == nil {
				continue
			}
			eq, err := scalarsEqual(value, item)
			if err != nil {
				return false, err
			}
			if eq {
				found = true
				break
			}
		}
		if p.Op == OpIn {
			return found, nil
		}
		return !found, nil

	default:
		if p.Value == nil {
			return false, nil
		}
		if isNaN(value) || isNaN(p.Value) {
			return false, nil
		}
		c, err := compareScalars(value, p.Value)
		if err != nil {
			return false, err
		}
		switch p.Op {
		case OpEqual:
			return c == 0, nil
		case OpNotEqual:
			return c != 0, nil
		case OpLess:
			return c < 0, nil
		case OpGreater:
			return c > 0, nil
		case OpLessEqual:
			return c <= 0, nil
		case OpGreaterEqual:
			return c >= 0, nil
		default:
			return false, errors.Newf(errors.ErrorTypeFilter, "unknown operator %q", p.Op)
		}
	}
}

func scalarsEqual(a, b interface{}) (bool, error) {
	if isNaN(a) || isNaN(b) {
		return false, nil
	}
	c, err := compareScalars(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

// compareScalars orders two scalar values. Numeric kinds compare across
// widths; strings compare lexicographically; bools order false before true.
// Mixing kinds is an error.
func compareScalars(a, b interface{}) (int, error) {
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, incomparable(a, b)
		}
		return boolInt(av) - boolInt(bv), nil
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, incomparable(a, b)
		}
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		}
		return 0, nil
	case int64, uint64, float64:
		if !isNumeric(b) {
			return 0, incomparable(a, b)
		}
		return compareNumeric(a, b), nil
	default:
		return 0, errors.Newf(errors.ErrorTypeFilter, "unsupported value type %T in filter", a)
	}
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int64, uint64, float64:
		return true
	}
	return false
}

func isNaN(v interface{}) bool {
	f, ok := v.(float64)
	return ok && math.IsNaN(f)
}

// compareNumeric orders two numeric values without losing integer
// precision where both sides are integers.
func compareNumeric(a, b interface{}) int {
	if af, aFloat := a.(float64); aFloat {
		return compareFloat(af, toFloat(b))
	}
	if bf, bFloat := b.(float64); bFloat {
		return compareFloat(toFloat(a), bf)
	}

	au, aUnsigned := a.(uint64)
	bu, bUnsigned := b.(uint64)
	switch {
	case aUnsigned && bUnsigned:
		return compareUint(au, bu)
	case aUnsigned:
		bi := b.(int64)
		if bi < 0 {
			return 1
		}
		return compareUint(au, uint64(bi))
	case bUnsigned:
		ai := a.(int64)
		if ai < 0 {
			return -1
		}
		return compareUint(uint64(ai), bu)
	default:
		ai, bi := a.(int64), b.(int64)
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float64:
		return n
	}
	return math.NaN()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func incomparable(a, b interface{}) error {
	return errors.Newf(errors.ErrorTypeFilter, "cannot compare %T with %T", a, b)
}
