// Package builder implements the fluent construction DSL that materializes a
// collection.Collection. Method chains route to whichever component
// (collection metadata, a role, or a field) is currently "in context";
// .alice()/.bob()/.field(name) switch context, and subsequent .desc/.must/
// .as_* calls apply to it.
package builder

import (
	"errors"
	"fmt"

	"github.com/chatfield-dev/chatfield/collection"
)

// contextKind identifies which component of the collection is currently
// addressed by the fluent chain.
type contextKind int

const (
	contextNone contextKind = iota
	contextRole
	contextField
)

const maxTypeLen = 64

// Builder accumulates build-time errors rather than panicking, so a long
// method chain can be written without checking every intermediate step;
// Build() surfaces everything collected along the way.
type Builder struct {
	c *collection.Collection

	ctx      contextKind
	role     *collection.Role // nil unless ctx == contextRole
	roleName string           // "alice" or "bob", for error messages
	field    *collection.Field

	errs []error
}

// New starts a new builder with an empty Collection.
func New() *Builder {
	return &Builder{c: collection.New(), ctx: contextNone}
}

// Chatfield is a convenience alias matching the source DSL's entry point
// name; New and Chatfield are identical.
func Chatfield() *Builder { return New() }

func (b *Builder) fail(format string, args ...any) *Builder {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
	return b
}

// Type sets the collection's type (≤ 64 chars) when no role is in context,
// or the current role's display type otherwise.
func (b *Builder) Type(name string) *Builder {
	if len(name) > maxTypeLen {
		return b.fail("%w: %q (%d chars)", collection.ErrTypeTooLong, name, len(name))
	}
	switch b.ctx {
	case contextRole:
		b.role.Type = name
	default:
		b.c.Type = name
	}
	return b
}

// Desc sets the collection description (no role/field in context), the
// current field's description, or is a no-op with a recorded error if a
// role is in context (roles have no description in this model).
func (b *Builder) Desc(text string) *Builder {
	switch b.ctx {
	case contextField:
		b.field.Desc = text
	case contextRole:
		return b.fail("builder: .desc() is not valid in role context (use .type())")
	default:
		b.c.Desc = text
	}
	return b
}

// Alice switches context to the assistant role.
func (b *Builder) Alice() *Builder {
	b.ctx = contextRole
	b.roleName = "alice"
	b.role = &b.c.Roles.Alice
	return b
}

// Bob switches context to the user role.
func (b *Builder) Bob() *Builder {
	b.ctx = contextRole
	b.roleName = "bob"
	b.role = &b.c.Roles.Bob
	return b
}

// Trait appends an unconditional trait to the role in context.
func (b *Builder) Trait(text string) *Builder {
	if b.ctx != contextRole {
		return b.fail("builder: .trait() requires .alice()/.bob() context")
	}
	b.role.Traits = append(b.role.Traits, text)
	return b
}

// TraitPossible registers a conditionally-activatable trait on the role in
// context.
func (b *Builder) TraitPossible(name, description string) *Builder {
	if b.ctx != contextRole {
		return b.fail("builder: .trait.possible() requires .alice()/.bob() context")
	}
	b.role.SetPossibleTrait(name, description)
	return b
}

// Field switches context to a field, creating it at the end of the
// collection's field order on first use. Calling .field(name) again later
// re-enters the same field, allowing specs to be added incrementally.
func (b *Builder) Field(name string) *Builder {
	b.ctx = contextField
	b.field = b.c.AddField(name)
	return b
}

// Must adds a must-validation predicate to the field in context.
func (b *Builder) Must(text string) *Builder {
	return b.withField(func(f *collection.Field) { f.Specs.Must = append(f.Specs.Must, text) })
}

// Reject adds a reject-validation predicate to the field in context.
func (b *Builder) Reject(text string) *Builder {
	return b.withField(func(f *collection.Field) { f.Specs.Reject = append(f.Specs.Reject, text) })
}

// Hint adds a guidance hint to the field in context.
func (b *Builder) Hint(text string) *Builder {
	return b.withField(func(f *collection.Field) { f.Specs.Hint = append(f.Specs.Hint, text) })
}

// Confidential marks the field in context confidential.
func (b *Builder) Confidential() *Builder {
	return b.withField(func(f *collection.Field) { f.Specs.Confidential = true })
}

// Conclude marks the field in context as a conclude field.
func (b *Builder) Conclude() *Builder {
	return b.withField(func(f *collection.Field) { f.Specs.Conclude = true })
}

func (b *Builder) withField(fn func(*collection.Field)) *Builder {
	if b.ctx != contextField {
		return b.fail("builder: field spec called without an active .field(name) context")
	}
	fn(b.field)
	return b
}

// addCast appends a cast to the field in context, recording an error if no
// field is active or if the cast name collides with a reserved key or an
// existing cast on the same field.
func (b *Builder) addCast(cast collection.Cast) *Builder {
	if b.ctx != contextField {
		return b.fail("builder: cast called without an active .field(name) context")
	}
	switch cast.Name {
	case collection.KeyValue, collection.KeyContext, collection.KeyAsQuote:
		return b.fail("%w: %q", collection.ErrReservedCastName, cast.Name)
	}
	for _, existing := range b.field.Casts {
		if existing.Name == cast.Name {
			return b.fail("%w: %q on field %q", collection.ErrDuplicateCast, cast.Name, b.field.Name)
		}
	}
	b.field.Casts = append(b.field.Casts, cast)
	return b
}

// Errors returns the build-time errors recorded so far, in chain order.
func (b *Builder) Errors() []error {
	return append([]error(nil), b.errs...)
}

// Build finalizes the collection. It runs no checks of its own: cast-name
// uniqueness and Type/Field misuse are checked during chaining, and Build
// returns every error recorded there as a single joined error. Field names
// cannot collide, since AddField returns the existing field for a repeated
// name.
func (b *Builder) Build() (*collection.Collection, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return b.c, nil
}
