// Package collection defines the declarative conversation data model:
// Collection, Role, Field, Spec and Cast. A Collection is built once
// (typically via package builder) and then shared between the host
// application and the orchestration engine, which writes collected field
// values into it as a side effect of driving the conversation.
package collection

import "errors"

// NAConfidential is the sentinel value recorded for a confidential field
// that was never volunteered by the user and is still empty when the
// confidential digest runs.
const NAConfidential = "N/A"

type (
	// CastKind identifies the underlying coercion/derivation type of a Cast.
	CastKind string

	// Cast describes one named, LLM-computed derivation requested for a
	// field (e.g. integer coercion, translation, classification).
	Cast struct {
		// Name is the key under which the coerced value is stored in Value
		// and exposed from the field accessor (e.g. "as_int", "as_lang_fr").
		Name string
		// Kind is the underlying schema type.
		Kind CastKind
		// Prompt is the natural-language instruction shown to the LLM for
		// this cast. For choice casts, "{name}" is interpolated with Name.
		Prompt string

		// Choices lists the allowed values for CastKindChoice casts.
		Choices []string
		// Multi selects one-or-more (true) vs exactly-one (false) for
		// non-nullable choice casts, or zero-or-more vs zero-or-one when
		// Null is also true.
		Multi bool
		// Null makes the choice cast nullable (zero-or-one / zero-or-more).
		Null bool
	}

	// Specs carries the validation and scheduling predicates for a field.
	Specs struct {
		Must   []string
		Reject []string
		Hint   []string
		// Confidential fields are never solicited; they may only be set by
		// voluntary disclosure or the confidential digest step.
		Confidential bool
		// Conclude fields are never solicited; they are populated
		// exclusively by the conclude digest step. Conclude dominates when
		// both flags are set on the same field.
		Conclude bool
	}

	// Value is the collected record for a field once it has been filled.
	// Value carries the canonical textual value plus the context and quote
	// metadata always requested, plus one entry per configured cast.
	Value struct {
		// Value is the canonical textual representation.
		Value string
		// Context is a short summary of the surrounding conversation.
		Context string
		// AsQuote is the verbatim user utterance that yielded the value.
		AsQuote string
		// Casts holds the coerced result for every cast configured on the
		// field, keyed by cast name.
		Casts map[string]any
	}

	// Field is one named item of the collection.
	Field struct {
		Name  string
		Desc  string
		Specs Specs
		// Casts preserves declaration order; cast lookup by name is done
		// via CastByName.
		Casts []Cast
		// Value is nil until the field is collected.
		Value *Value
	}

	// PossibleTrait is a role trait that starts inactive and may be
	// activated by the LLM based on conversational evidence.
	PossibleTrait struct {
		Description string
		Active      bool
	}

	// Role describes one conversational participant (the assistant "alice"
	// or the user "bob").
	Role struct {
		// Type is the display type shown in prompts, e.g. "Hiring Manager".
		Type string
		// Traits are unconditional, always-active traits.
		Traits []string
		// PossibleTraits are keyed by name and may be activated at runtime.
		PossibleTraits map[string]*PossibleTrait
		// traitOrder preserves declaration order of PossibleTraits for
		// deterministic prompt rendering.
		traitOrder []string
	}

	// Roles groups the two fixed participants.
	Roles struct {
		Alice Role
		Bob   Role
	}

	// Collection is the declarative root object describing one
	// conversation's data model (sometimes called an "interview" in the
	// source this library's conventions were adapted from).
	Collection struct {
		Type string
		Desc string
		Roles Roles

		fields     map[string]*Field
		fieldOrder []string // declaration order
	}
)

const (
	CastKindInt    CastKind = "int"
	CastKindFloat  CastKind = "float"
	CastKindStr    CastKind = "str"
	CastKindBool   CastKind = "bool"
	CastKindList   CastKind = "list"
	CastKindSet    CastKind = "set"
	CastKindDict   CastKind = "dict"
	CastKindChoice CastKind = "choice"
)

// Reserved keys that a cast name must never shadow.
const (
	KeyValue   = "value"
	KeyContext = "context"
	KeyAsQuote = "as_quote"
)

var (
	// ErrDuplicateField names a duplicate field name. Nothing in this
	// module returns it: AddField hands back the existing field when a
	// name repeats, so repeated field declarations address one field.
	ErrDuplicateField = errors.New("collection: duplicate field name")
	// ErrDuplicateCast indicates Build found two casts with the same name
	// within a single field.
	ErrDuplicateCast = errors.New("collection: duplicate cast name")
	// ErrReservedCastName indicates a cast name collides with a reserved key.
	ErrReservedCastName = errors.New("collection: cast name collides with reserved key")
	// ErrTypeTooLong indicates a collection or role type exceeds 64 chars.
	ErrTypeTooLong = errors.New("collection: type exceeds 64 characters")
)

// New returns an empty Collection with default role display types. It is
// normally only called by package builder.
func New() *Collection {
	return &Collection{
		fields: make(map[string]*Field),
		Roles: Roles{
			Alice: Role{Type: "Agent", PossibleTraits: map[string]*PossibleTrait{}},
			Bob:   Role{Type: "User", PossibleTraits: map[string]*PossibleTrait{}},
		},
	}
}

// AddField appends a new, empty field in declaration order. Returns the
// existing field if name was already added (callers such as the builder
// route repeated `.field(name)` calls to the same field).
func (c *Collection) AddField(name string) *Field {
	if f, ok := c.fields[name]; ok {
		return f
	}
	f := &Field{Name: name, Specs: Specs{}}
	c.fields[name] = f
	c.fieldOrder = append(c.fieldOrder, name)
	return f
}

// Field returns the named field, or nil if it does not exist.
func (c *Collection) Field(name string) *Field {
	return c.fields[name]
}

// FieldsInOrder returns field names in declaration order, the order
// prompts render fields in.
func (c *Collection) FieldsInOrder() []string {
	out := make([]string, len(c.fieldOrder))
	copy(out, c.fieldOrder)
	return out
}

// FieldsReverse returns field names in reverse insertion order. The
// collection's own scans (NonConcludeFields, UnfilledConfidential and the
// like) walk declaration order; nothing else in this module calls
// FieldsReverse.
func (c *Collection) FieldsReverse() []string {
	n := len(c.fieldOrder)
	out := make([]string, n)
	for i, name := range c.fieldOrder {
		out[n-1-i] = name
	}
	return out
}

// NonConcludeFields returns, in declaration order, every field whose
// Specs.Conclude is false (the "master" fields).
func (c *Collection) NonConcludeFields() []*Field {
	var out []*Field
	for _, name := range c.fieldOrder {
		f := c.fields[name]
		if !f.Specs.Conclude {
			out = append(out, f)
		}
	}
	return out
}

// ConcludeFields returns, in declaration order, every field whose
// Specs.Conclude is true.
func (c *Collection) ConcludeFields() []*Field {
	var out []*Field
	for _, name := range c.fieldOrder {
		f := c.fields[name]
		if f.Specs.Conclude {
			out = append(out, f)
		}
	}
	return out
}

// ConfidentialFields returns, in declaration order, every non-conclude
// field whose Specs.Confidential is true.
func (c *Collection) ConfidentialFields() []*Field {
	var out []*Field
	for _, name := range c.fieldOrder {
		f := c.fields[name]
		if f.Specs.Conclude {
			continue
		}
		if f.Specs.Confidential {
			out = append(out, f)
		}
	}
	return out
}

// Enough reports whether every non-conclude field has a non-nil value.
func (c *Collection) Enough() bool {
	for _, f := range c.NonConcludeFields() {
		if f.Value == nil {
			return false
		}
	}
	return true
}

// Done reports whether every field, including conclude fields, has a
// non-nil value.
func (c *Collection) Done() bool {
	for _, name := range c.fieldOrder {
		if c.fields[name].Value == nil {
			return false
		}
	}
	return true
}

// UnfilledConfidential returns confidential fields (declaration order)
// that still have no value.
func (c *Collection) UnfilledConfidential() []*Field {
	var out []*Field
	for _, f := range c.ConfidentialFields() {
		if f.Value == nil {
			out = append(out, f)
		}
	}
	return out
}

// CastByName returns the cast with the given name on this field, or nil.
func (f *Field) CastByName(name string) *Cast {
	for i := range f.Casts {
		if f.Casts[i].Name == name {
			return &f.Casts[i]
		}
	}
	return nil
}

// SetValue sets (or overwrites, last-write-wins) the field's collected
// value. Overwriting an already-set value is permitted but callers should
// log it (the orchestrator does).
func (f *Field) SetValue(v *Value) {
	f.Value = v
}

// SetPossibleTrait records declaration order the first time a possible
// trait with this name is added.
func (r *Role) SetPossibleTrait(name, description string) {
	if r.PossibleTraits == nil {
		r.PossibleTraits = map[string]*PossibleTrait{}
	}
	if existing, ok := r.PossibleTraits[name]; ok {
		existing.Description = description
		return
	}
	r.PossibleTraits[name] = &PossibleTrait{Description: description}
	r.traitOrder = append(r.traitOrder, name)
}

// PossibleTraitsInOrder returns possible trait names in declaration order.
func (r *Role) PossibleTraitsInOrder() []string {
	out := make([]string, len(r.traitOrder))
	copy(out, r.traitOrder)
	return out
}

// Activate flips a possible trait's Active flag true. It is idempotent:
// calling it on an already-active trait is a no-op. Reports false if the
// trait is unknown.
func (r *Role) Activate(name string) bool {
	t, ok := r.PossibleTraits[name]
	if !ok {
		return false
	}
	t.Active = true
	return true
}

// IsDefaultType reports whether the role still carries its built-in
// display type ("Agent" or "User"), i.e. the host never customized it.
func (r *Role) IsDefaultType(defaultType string) bool {
	return r.Type == defaultType
}
