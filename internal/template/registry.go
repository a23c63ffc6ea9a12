package template

import (
	"github.com/gyaneshwarpardhi/notifyflow/internal/condition"
	"github.com/gyaneshwarpardhi/notifyflow/internal/event"
)

// Registry is an immutable snapshot of the template catalogue.
// Hot reload builds a new Registry and swaps it; a Registry is never
// modified after NewRegistry returns, so it is safe for concurrent use.
type Registry struct {
	ordered []Template
	byID    map[string]int
}

// NewRegistry builds a snapshot preserving catalogue order. A later
// template with an id already present replaces the earlier one in place.
func NewRegistry(templates []Template) *Registry {
	r := &Registry{byID: make(map[string]int, len(templates))}
	for _, t := range templates {
		t = t.clone()
		if i, ok := r.byID[t.ID]; ok {
			r.ordered[i] = t
			continue
		}
		r.byID[t.ID] = len(r.ordered)
		r.ordered = append(r.ordered, t)
	}
	return r
}

// Match returns every active template whose conditions ev satisfies, in
// catalogue order.
func (r *Registry) Match(ev *event.Event) []Template {
	var out []Template
	for _, t := range r.ordered {
		if !t.Active {
			continue
		}
		if condition.Evaluate(ev, t.Conditions) {
			out = append(out, t.clone())
		}
	}
	return out
}

// Get returns a template by id.
func (r *Registry) Get(id string) (Template, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Template{}, false
	}
	return r.ordered[i].clone(), true
}

// All returns a copy of the catalogue.
func (r *Registry) All() []Template {
	out := make([]Template, len(r.ordered))
	for i, t := range r.ordered {
		out[i] = t.clone()
	}
	return out
}

// Len returns the number of templates, active or not.
func (r *Registry) Len() int {
	return len(r.ordered)
}
