package template

import (
	"regexp"

	"github.com/gyaneshwarpardhi/notifyflow/internal/event"
)

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// Render substitutes every {field} in pattern with the field's value.
// Placeholders naming absent fields are left as written.
func Render(pattern string, ev *event.Event) string {
	return placeholder.ReplaceAllStringFunc(pattern, func(m string) string {
		name := m[1 : len(m)-1]
		if s, ok := ev.Text(name); ok {
			return s
		}
		return m
	})
}
