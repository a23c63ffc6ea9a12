package priority

import (
	"fmt"
	"strings"
)

// Priority is a notification urgency label.
type Priority string

const (
	Low    Priority = "low"
	Medium Priority = "medium"
	High   Priority = "high"
	Urgent Priority = "urgent"
	// Critical is never produced by the scorer; filters accept it as an
	// alias of Urgent because callers may pass it through.
	Critical Priority = "critical"
)

// Rank places p on the ordinal scale low<medium<high<urgent.
// Critical ranks with Urgent; unknown values rank below Low.
func (p Priority) Rank() int {
	switch p {
	case Low:
		return 1
	case Medium:
		return 2
	case High:
		return 3
	case Urgent, Critical:
		return 4
	}
	return 0
}

// IsUrgent reports whether p may break through quiet hours.
func (p Priority) IsUrgent() bool {
	return p == Urgent || p == Critical
}

// Valid reports whether p is one of the template base priorities.
func (p Priority) Valid() bool {
	switch p {
	case Low, Medium, High, Urgent:
		return true
	}
	return false
}

// Parse normalises s into a Priority.
func Parse(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p.Valid() || p == Critical {
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}
