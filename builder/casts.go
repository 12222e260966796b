package builder

import (
	"fmt"
	"strings"

	"github.com/chatfield-dev/chatfield/collection"
)

// defaultPrompt builds a generic instruction when the caller omits one.
func defaultPrompt(name string) string {
	return fmt.Sprintf("Derive %s from the collected value.", name)
}

// AsInt requests integer coercion. An optional name/prompt pair may be
// given; the default cast name is "as_int".
func (b *Builder) AsInt(nameAndPrompt ...string) *Builder {
	name, prompt := "as_int", "Coerce the value to an integer."
	name, prompt = overrideNamePrompt(name, prompt, nameAndPrompt)
	return b.addCast(collection.Cast{Name: name, Kind: collection.CastKindInt, Prompt: prompt})
}

// AsFloat requests real-number coercion ("as_float" by default).
func (b *Builder) AsFloat(nameAndPrompt ...string) *Builder {
	name, prompt := "as_float", "Coerce the value to a floating point number."
	name, prompt = overrideNamePrompt(name, prompt, nameAndPrompt)
	return b.addCast(collection.Cast{Name: name, Kind: collection.CastKindFloat, Prompt: prompt})
}

// AsStr requests a named string derivation. Unlike the other default
// casts, name is mandatory since there is no sensible default beyond
// "value" itself.
func (b *Builder) AsStr(name, prompt string) *Builder {
	return b.addCast(collection.Cast{Name: name, Kind: collection.CastKindStr, Prompt: prompt})
}

// AsBool requests a truth-valued derivation ("as_bool" by default).
func (b *Builder) AsBool(nameAndPrompt ...string) *Builder {
	name, prompt := "as_bool", "Derive a true/false value."
	name, prompt = overrideNamePrompt(name, prompt, nameAndPrompt)
	return b.addCast(collection.Cast{Name: name, Kind: collection.CastKindBool, Prompt: prompt})
}

// AsPercent requests a semantic 0.0-1.0 derivation, stored as a float
// ("as_percent" by default).
func (b *Builder) AsPercent(nameAndPrompt ...string) *Builder {
	name, prompt := "as_percent", "Derive a value between 0.0 and 1.0."
	name, prompt = overrideNamePrompt(name, prompt, nameAndPrompt)
	return b.addCast(collection.Cast{Name: name, Kind: collection.CastKindFloat, Prompt: prompt})
}

// AsList requests an ordered-sequence derivation ("as_list" by default).
func (b *Builder) AsList(nameAndPrompt ...string) *Builder {
	name, prompt := "as_list", "Derive an ordered list of values."
	name, prompt = overrideNamePrompt(name, prompt, nameAndPrompt)
	return b.addCast(collection.Cast{Name: name, Kind: collection.CastKindList, Prompt: prompt})
}

// AsSet requests a deduplicated-collection derivation ("as_set" by
// default). Deduplication is applied on ingest, not in the schema.
func (b *Builder) AsSet(nameAndPrompt ...string) *Builder {
	name, prompt := "as_set", "Derive a deduplicated collection of values."
	name, prompt = overrideNamePrompt(name, prompt, nameAndPrompt)
	return b.addCast(collection.Cast{Name: name, Kind: collection.CastKindSet, Prompt: prompt})
}

// AsDict requests a string-keyed mapping derivation ("as_dict" by
// default).
func (b *Builder) AsDict(nameAndPrompt ...string) *Builder {
	name, prompt := "as_dict", "Derive a string-keyed mapping of values."
	name, prompt = overrideNamePrompt(name, prompt, nameAndPrompt)
	return b.addCast(collection.Cast{Name: name, Kind: collection.CastKindDict, Prompt: prompt})
}

// AsObj is an alias for AsDict.
func (b *Builder) AsObj(nameAndPrompt ...string) *Builder {
	return b.AsDict(nameAndPrompt...)
}

// AsLang requests translation of the value to the given ISO-639-1 code,
// stored under "as_lang_<code>".
func (b *Builder) AsLang(code string, prompt ...string) *Builder {
	name := "as_lang_" + strings.ToLower(code)
	p := fmt.Sprintf("Translate the value to %s.", code)
	if len(prompt) > 0 && prompt[0] != "" {
		p = prompt[0]
	}
	return b.addCast(collection.Cast{Name: name, Kind: collection.CastKindStr, Prompt: p})
}

// AsQuote is a no-op provided for symmetry with the builder surface
// described in spec.md §6: it adds no cast, because the value record
// always carries AsQuote at the top level and every field schema already
// requests it.
func (b *Builder) AsQuote() *Builder {
	return b
}

// AsContext is the context-summary analogue of AsQuote: always collected,
// provided for fluent-chain symmetry.
func (b *Builder) AsContext() *Builder {
	return b
}

// AsOne declares an exactly-one choice cast, stored under "as_one_<name>".
func (b *Builder) AsOne(name string, choices ...string) *Builder {
	return b.choice(name, choices, false, false)
}

// AsMaybe declares a zero-or-one choice cast, stored under
// "as_maybe_<name>".
func (b *Builder) AsMaybe(name string, choices ...string) *Builder {
	return b.choice(name, choices, false, true)
}

// AsNullableOne is an alias for AsMaybe.
func (b *Builder) AsNullableOne(name string, choices ...string) *Builder {
	return b.AsMaybe(name, choices...)
}

// AsMulti declares a one-or-more choice cast, stored under
// "as_multi_<name>".
func (b *Builder) AsMulti(name string, choices ...string) *Builder {
	return b.choice(name, choices, true, false)
}

// AsAny declares a zero-or-more choice cast, stored under "as_any_<name>".
func (b *Builder) AsAny(name string, choices ...string) *Builder {
	return b.choice(name, choices, true, true)
}

// AsNullableMulti is an alias for AsAny.
func (b *Builder) AsNullableMulti(name string, choices ...string) *Builder {
	return b.AsAny(name, choices...)
}

func (b *Builder) choice(name string, choices []string, multi, null bool) *Builder {
	prefix := choicePrefix(multi, null)
	return b.addCast(collection.Cast{
		Name:    prefix + name,
		Kind:    collection.CastKindChoice,
		Prompt:  fmt.Sprintf("Classify {%s} against the allowed choices.", name),
		Choices: append([]string(nil), choices...),
		Multi:   multi,
		Null:    null,
	})
}

func choicePrefix(multi, null bool) string {
	switch {
	case !multi && !null:
		return "as_one_"
	case !multi && null:
		return "as_maybe_"
	case multi && !null:
		return "as_multi_"
	default:
		return "as_any_"
	}
}

// overrideNamePrompt applies an optional [name[, prompt]] variadic pair
// over defaults, matching the builder surface's `.as_int([name, prompt])`
// convention.
func overrideNamePrompt(defaultName, defaultPrompt string, args []string) (name, prompt string) {
	name, prompt = defaultName, defaultPrompt
	if len(args) > 0 && args[0] != "" {
		name = args[0]
	}
	if len(args) > 1 && args[1] != "" {
		prompt = args[1]
	}
	return name, prompt
}
