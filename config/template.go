package config

import (
	"strings"
	"text/template"
)

// templateEngine handles text template rendering with variable substitution.
type templateEngine struct {
	defines map[string]string
}

// newTemplateEngine creates a new engine with the provided global definitions.
func newTemplateEngine(defines map[string]string) *templateEngine {
	d := make(map[string]string, len(defines))
	for k, v := range defines {
		d[k] = v
	}
	return &templateEngine{defines: d}
}

// sub creates a new templateEngine with the provided local definitions. The
// parent's definitions take precedence over them.
func (e *templateEngine) sub(locals map[string]string) *templateEngine {
	d := make(map[string]string, len(e.defines)+len(locals))
	for k, v := range locals {
		d[k] = v
	}
	for k, v := range e.defines {
		d[k] = v
	}
	return &templateEngine{defines: d}
}

// render executes text as a template over the engine's definitions.
// If the text does not contain "{{", it is returned as-is.
func (e *templateEngine) render(name, text string) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := t.Execute(&buf, e.defines); err != nil {
		return "", err
	}
	return buf.String(), nil
}
