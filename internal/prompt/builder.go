// Package prompt assembles the exact text sent to the model. Untrusted
// values pass through the sanitizer and appear only in delimited form; every
// template's system preamble tells the model that delimited content is data
// to analyze, never instructions to execute.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/bkyoung/ideaminer/internal/sanitize"
)

// Field declares how one placeholder's value must be sanitized.
type Field struct {
	Tag    sanitize.Tag
	MaxLen int
}

// Template is a named prompt template with declared placeholder fields.
// Templates are pure: Build performs no I/O and is deterministic for
// identical inputs.
type Template struct {
	Name   string
	System string
	Fields map[string]Field

	body *template.Template
}

// Prompt is the final text pair handed to the model client.
type Prompt struct {
	System string
	User   string
}

// New parses the body and returns a Template. It panics on a malformed body,
// which is a programming error caught at init time.
func New(name, system, body string, fields map[string]Field) Template {
	return Template{
		Name:   name,
		System: system,
		Fields: fields,
		body:   template.Must(template.New(name).Parse(body)),
	}
}

// Build sanitizes every declared value and substitutes its delimited form
// into the body. Every declared field must be supplied; call sites that want
// an explicit "Not provided" marker pass it as the value.
func (t Template) Build(values map[string]string) (Prompt, error) {
	data := make(map[string]string, len(t.Fields))

	for placeholder, field := range t.Fields {
		raw, ok := values[placeholder]
		if !ok {
			return Prompt{}, fmt.Errorf("prompt %s: missing value for %q", t.Name, placeholder)
		}
		block := sanitize.Wrap(field.Tag, raw, field.MaxLen)
		data[placeholder] = block.Delimited()
	}

	for placeholder := range values {
		if _, ok := t.Fields[placeholder]; !ok {
			return Prompt{}, fmt.Errorf("prompt %s: unknown placeholder %q", t.Name, placeholder)
		}
	}

	var buf bytes.Buffer
	if err := t.body.Execute(&buf, data); err != nil {
		return Prompt{}, fmt.Errorf("prompt %s: execute template: %w", t.Name, err)
	}

	return Prompt{System: t.System, User: buf.String()}, nil
}
