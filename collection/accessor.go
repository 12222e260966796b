package collection

import "strings"

// FieldAccessor is a string-like proxy over a collected field value. It
// stringifies to the field's canonical Value.Value and exposes every cast
// result as a named accessor, so host code can write
// (c.Get("destination").String(), c.Get("age").Cast("as_int")).
//
// A FieldAccessor over a field with no collected Value is valid but reports
// IsZero() true and String() "".
type FieldAccessor struct {
	field *Field
}

// Get returns an accessor for the named field. Field names containing
// punctuation (PDF-form-style identifiers such as
// "topmostSubform[0].Page1[0].f1_01[0]") are supported since lookup is a
// plain map key, not a language attribute.
func (c *Collection) Get(name string) FieldAccessor {
	return FieldAccessor{field: c.fields[name]}
}

// String returns the canonical textual value, or "" if unset.
func (a FieldAccessor) String() string {
	if a.field == nil || a.field.Value == nil {
		return ""
	}
	return a.field.Value.Value
}

// IsZero reports whether the underlying field has not been collected yet.
func (a FieldAccessor) IsZero() bool {
	return a.field == nil || a.field.Value == nil
}

// Context returns the recorded conversation-context summary, or "".
func (a FieldAccessor) Context() string {
	if a.field == nil || a.field.Value == nil {
		return ""
	}
	return a.field.Value.Context
}

// AsQuote returns the recorded verbatim quote, or "".
func (a FieldAccessor) AsQuote() string {
	if a.field == nil || a.field.Value == nil {
		return ""
	}
	return a.field.Value.AsQuote
}

// Cast returns the coerced result stored under the given cast name, and
// whether it was present. Callers that know the cast's static type should
// follow with a type assertion, e.g. v, _ := a.Cast("as_int"); n, _ :=
// v.(int64).
func (a FieldAccessor) Cast(name string) (any, bool) {
	if a.field == nil || a.field.Value == nil || a.field.Value.Casts == nil {
		return nil, false
	}
	v, ok := a.field.Value.Casts[name]
	return v, ok
}

// IsNA reports whether the field was filled by the confidential digest with
// the N/A sentinel rather than a voluntary user disclosure.
func (a FieldAccessor) IsNA() bool {
	return strings.EqualFold(a.String(), NAConfidential)
}

// FieldName reports the field's name, or "" if the accessor is over an
// unknown field.
func (a FieldAccessor) FieldName() string {
	if a.field == nil {
		return ""
	}
	return a.field.Name
}
