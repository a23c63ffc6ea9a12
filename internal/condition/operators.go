package condition

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/gyaneshwarpardhi/notifyflow/internal/event"
)

// Operator represents a comparison operator.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
	OpIn          Operator = "in"
)

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpContains, OpIn:
		return true
	}
	return false
}

// compare applies a comparison operator to a present field value.
func compare(op Operator, left, right interface{}) bool {
	switch op {
	case OpEquals:
		return equal(left, right)
	case OpNotEquals:
		return !equal(left, right)
	case OpGreaterThan, OpLessThan:
		return ordered(op, left, right)
	case OpContains:
		return strings.Contains(fmt.Sprint(left), fmt.Sprint(right))
	case OpIn:
		return in(left, right)
	default:
		return false
	}
}

// equal is strict: numbers compare by value across Go numeric kinds,
// everything else must share a type.
func equal(left, right interface{}) bool {
	lf, lok := event.ToFloat64(left)
	rf, rok := event.ToFloat64(right)
	if lok || rok {
		return lok && rok && math.Abs(lf-rf) < 1e-9
	}
	switch l := left.(type) {
	case bool:
		r, ok := right.(bool)
		return ok && l == r
	case string:
		r, ok := right.(string)
		return ok && l == r
	case nil:
		return right == nil
	}
	lt, rt := reflect.TypeOf(left), reflect.TypeOf(right)
	if lt != rt || !lt.Comparable() {
		return false
	}
	return left == right
}

func ordered(op Operator, left, right interface{}) bool {
	if lf, ok := event.ToFloat64(left); ok {
		rf, ok := event.ToFloat64(right)
		if !ok {
			return false
		}
		if op == OpGreaterThan {
			return lf > rf
		}
		return lf < rf
	}
	ls, lok := left.(string)
	rs, rok := right.(string)
	if !lok || !rok {
		return false
	}
	if op == OpGreaterThan {
		return ls > rs
	}
	return ls < rs
}

// in requires right to be a slice or array; membership uses equal.
func in(left, right interface{}) bool {
	if right == nil {
		return false
	}
	rv := reflect.ValueOf(right)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equal(left, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}
