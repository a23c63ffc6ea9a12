package template

import (
	"github.com/gyaneshwarpardhi/notifyflow/internal/condition"
	"github.com/gyaneshwarpardhi/notifyflow/internal/priority"
)

// Kind is the display category of a notification.
type Kind string

const (
	KindAlert    Kind = "alert"
	KindInfo     Kind = "info"
	KindSuccess  Kind = "success"
	KindWarning  Kind = "warning"
	KindCritical Kind = "critical"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindAlert, KindInfo, KindSuccess, KindWarning, KindCritical:
		return true
	}
	return false
}

// Template maps a condition list to a renderable notification.
type Template struct {
	ID           string                `yaml:"id" json:"id"`
	Name         string                `yaml:"name" json:"name"`
	Kind         Kind                  `yaml:"type" json:"type"`
	Title        string                `yaml:"title" json:"title"`
	Message      string                `yaml:"message" json:"message"`
	BasePriority priority.Priority     `yaml:"priority" json:"priority"`
	Channels     []string              `yaml:"channels" json:"channels"`
	Conditions   []condition.Condition `yaml:"conditions" json:"conditions"`
	Active       bool                  `yaml:"active" json:"isActive"`
}

// clone copies the slices so a registry snapshot cannot be mutated through
// a template handed out by Match.
func (t Template) clone() Template {
	t.Channels = append([]string(nil), t.Channels...)
	t.Conditions = append([]condition.Condition(nil), t.Conditions...)
	return t
}
