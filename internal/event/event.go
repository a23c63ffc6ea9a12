package event

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Event is the canonical input model for all incoming events.
// Fields is an open map; no schema is enforced here, only by the
// conditions of individual templates.
type Event struct {
	ID         string                 `json:"id,omitempty"`
	ReceivedAt time.Time              `json:"-"`
	Fields     map[string]interface{} `json:"fields"`
}

// New wraps a field map. A nil map is replaced by an empty one.
func New(fields map[string]interface{}) *Event {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	return &Event{Fields: fields}
}

// Get returns the raw value of a field. ok is false when the field is absent.
func (e *Event) Get(name string) (interface{}, bool) {
	if e == nil || e.Fields == nil {
		return nil, false
	}
	v, ok := e.Fields[name]
	return v, ok
}

// String returns the field as a string. Non-string values are absent.
func (e *Event) String(name string) (string, bool) {
	v, ok := e.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float returns any numeric field as float64.
func (e *Event) Float(name string) (float64, bool) {
	v, ok := e.Get(name)
	if !ok {
		return 0, false
	}
	return ToFloat64(v)
}

// Bool reports whether the field holds boolean true. Absent and
// non-bool values read as false.
func (e *Event) Bool(name string) bool {
	v, ok := e.Get(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Text returns the display form of a field, as used by template rendering.
// A present null renders as "null". Floats render in plain decimal form
// below 1e21 and in exponent form above.
func (e *Event) Text(name string) (string, bool) {
	v, ok := e.Get(name)
	if !ok {
		return "", false
	}
	switch n := v.(type) {
	case nil:
		return "null", true
	case float64:
		return formatFloat(n, 64), true
	case float32:
		return formatFloat(float64(n), 32), true
	}
	return fmt.Sprint(v), true
}

func formatFloat(f float64, bitSize int) string {
	if math.Abs(f) >= 1e21 {
		return strconv.FormatFloat(f, 'e', -1, bitSize)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}

// ToFloat64 coerces a numeric value to float64.
func ToFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
