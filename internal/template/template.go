// Package template renders per-recipient outreach messages from a template
// and a lead's fields. Rendering is pure: no I/O, same input, same output.
package template

import (
	"regexp"
	"strings"
)

// placeholder matches tokens of the form {name}. Field names are lower-case
// identifiers; anything else is left untouched.
var placeholder = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// recognized is the placeholder vocabulary a template may reference.
// A recognized placeholder whose field is missing renders as the empty
// string; an unrecognized placeholder is left verbatim.
var recognized = map[string]struct{}{
	"name":          {},
	"business_name": {},
	"email":         {},
	"phone":         {},
	"website":       {},
	"address":       {},
}

// Render substitutes recognized placeholders in tmpl with values from fields.
// Missing values for recognized placeholders become empty strings; tokens
// outside the recognized vocabulary pass through unchanged, so a template
// containing literal braces never fails.
func Render(tmpl string, fields map[string]string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	return placeholder.ReplaceAllStringFunc(tmpl, func(token string) string {
		field := token[1 : len(token)-1]
		if _, ok := recognized[field]; !ok {
			return token
		}
		return fields[field]
	})
}

// Recognized reports whether field is part of the placeholder vocabulary.
func Recognized(field string) bool {
	_, ok := recognized[field]
	return ok
}
