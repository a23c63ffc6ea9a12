package condition

import (
	"log/slog"
	"strings"

	"github.com/gyaneshwarpardhi/notifyflow/internal/event"
)

// Logical operators chaining one condition to the next.
const (
	And = "AND"
	Or  = "OR"
)

// Condition is one field/operator/value test. LogicalOperator joins this
// condition to the one that follows it; empty means AND.
type Condition struct {
	Field           string      `yaml:"field" json:"field"`
	Operator        Operator    `yaml:"operator" json:"operator"`
	Value           interface{} `yaml:"value" json:"value"`
	LogicalOperator string      `yaml:"logical_operator,omitempty" json:"logicalOperator,omitempty"`
}

// Evaluate reports whether ev satisfies the ordered condition list.
//
// The list is folded left: the result of condition 0 seeds the
// accumulator and the operator between conditions i-1 and i is taken from
// condition i-1. An empty list always matches. Evaluate never panics; any
// failure yields false.
func Evaluate(ev *event.Event, conds []Condition) (result bool) {
	if len(conds) == 0 {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("condition evaluation panicked", "panic", r)
			result = false
		}
	}()

	join := And
	for i, c := range conds {
		matched := Match(ev, c)
		switch {
		case i == 0:
			result = matched
		case join == Or:
			result = result || matched
		default:
			result = result && matched
		}
		join = normalizeJoin(c.LogicalOperator)
	}
	return result
}

// Match evaluates a single condition. A field missing from the event
// satisfies only not_equals.
func Match(ev *event.Event, c Condition) bool {
	v, ok := ev.Get(c.Field)
	if !ok {
		return c.Operator == OpNotEquals
	}
	return compare(c.Operator, v, c.Value)
}

func normalizeJoin(op string) string {
	if strings.EqualFold(strings.TrimSpace(op), Or) {
		return Or
	}
	return And
}

// ValidJoin reports whether op is empty, AND or OR.
func ValidJoin(op string) bool {
	switch strings.ToUpper(strings.TrimSpace(op)) {
	case "", And, Or:
		return true
	}
	return false
}
