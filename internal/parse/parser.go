// Package parse turns raw model replies into validated, typed values. A
// reply is entirely valid or entirely rejected; there is no partial-credit
// path. Rejection yields an opaque error whose detail is available for
// server-side logging but never surfaces to callers verbatim.
package parse

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Error is the single opaque failure for malformed or schema-violating model
// output. Its Error() string is safe to show anywhere; the raw reply and the
// validation detail are reachable only through explicit accessors meant for
// logging.
type Error struct {
	stage  string
	detail string
	raw    string
}

func (e *Error) Error() string {
	return "invalid model response"
}

// Detail returns the stage and reason of the failure, for logs.
func (e *Error) Detail() string {
	return e.stage + ": " + e.detail
}

// Raw returns the offending reply text, for logs only.
func (e *Error) Raw() string {
	return e.raw
}

// NewError builds an opaque parse failure for call sites that reject a reply
// on grounds the schema machinery cannot express, such as an empty prose
// reply. The same logging accessors apply.
func NewError(stage, detail, raw string) *Error {
	return &Error{stage: stage, detail: detail, raw: raw}
}

// Schema is a compiled structural schema for one call-site's expected reply.
type Schema struct {
	name     string
	compiled *gojsonschema.Schema
}

// MustSchema compiles a JSON schema document, panicking on a malformed
// document (a programming error caught at init time).
func MustSchema(name, document string) *Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		panic("parse: schema " + name + ": " + err.Error())
	}
	return &Schema{name: name, compiled: compiled}
}

// Parse validates raw model output against the schema and unmarshals it.
// Steps: trim, strip an enclosing code fence, JSON-parse, validate
// structurally, unmarshal. Any parse or validation failure returns *Error.
func Parse[T any](raw string, schema *Schema) (T, error) {
	var zero T

	text := StripFences(raw)

	if !json.Valid([]byte(text)) {
		return zero, &Error{stage: schema.name + " json", detail: "not valid JSON", raw: raw}
	}

	result, err := schema.compiled.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return zero, &Error{stage: schema.name + " validate", detail: err.Error(), raw: raw}
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return zero, &Error{stage: schema.name + " schema", detail: strings.Join(details, "; "), raw: raw}
	}

	var value T
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return zero, &Error{stage: schema.name + " unmarshal", detail: err.Error(), raw: raw}
	}
	return value, nil
}

// Text extracts a plain-text reply: trimmed, with any enclosing code fence
// removed. Used by call sites that expect prose rather than JSON.
func Text(raw string) string {
	return StripFences(raw)
}

// StripFences removes an enclosing markdown code fence, with or without a
// language hint. Text without a fence passes through trimmed and otherwise
// untouched, so fenced and unfenced replies parse identically.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)

	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}

	// Drop the opening fence line (``` or ```json etc.).
	lines = lines[1:]

	// Drop the closing fence line if present.
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
