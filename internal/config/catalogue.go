package config

import "github.com/gyaneshwarpardhi/notifyflow/internal/template"

// Registry builds the template snapshot described by cfg: the built-in
// catalogue (unless disabled) followed by the configured templates. A
// configured template reusing a built-in id replaces it in place.
func (c *Config) Registry() *template.Registry {
	var templates []template.Template
	if c.Engine.DefaultTemplates() {
		templates = append(templates, template.DefaultCatalogue()...)
	}
	templates = append(templates, c.Templates...)
	return template.NewRegistry(templates)
}
