// Package toolschema generates the JSON-Schema tool definitions bound to
// the LLM: the update tool (all non-conclude fields, optional/nullable),
// the conclude tool (all conclude fields, mandatory), and the
// confidential-update tool (built per-invocation over the currently
// unfilled confidential fields). See spec.md §4.3.
package toolschema

import (
	"fmt"
	"strings"

	"github.com/chatfield-dev/chatfield/chatmodel"
	"github.com/chatfield-dev/chatfield/collection"
)

// possibleTraitsKey is the update-tool property name for the trait
// activation channel; Ingest special-cases it rather than treating it as a
// field name.
const possibleTraitsKey = "possible_traits"

// castSchema returns the JSON-Schema fragment for one cast, per spec.md
// §4.3's cast-to-schema mapping table.
func castSchema(cast collection.Cast, fieldName string) map[string]any {
	desc := cast.Prompt
	if cast.Kind == collection.CastKindChoice {
		desc = strings.ReplaceAll(desc, "{name}", cast.Name)
	}
	switch cast.Kind {
	case collection.CastKindInt:
		return map[string]any{"type": "integer", "description": desc}
	case collection.CastKindFloat:
		return map[string]any{"type": "number", "description": desc}
	case collection.CastKindStr:
		return map[string]any{"type": "string", "description": desc}
	case collection.CastKindBool:
		return map[string]any{"type": "boolean", "description": desc}
	case collection.CastKindList:
		return map[string]any{"type": "array", "items": map[string]any{}, "description": desc}
	case collection.CastKindSet:
		return map[string]any{"type": "array", "items": map[string]any{}, "description": desc}
	case collection.CastKindDict:
		return map[string]any{"type": "object", "additionalProperties": true, "description": desc}
	case collection.CastKindChoice:
		return choiceSchema(cast, desc)
	default:
		return map[string]any{"description": desc}
	}
}

func choiceSchema(cast collection.Cast, desc string) map[string]any {
	enum := make([]any, len(cast.Choices))
	for i, c := range cast.Choices {
		enum[i] = c
	}
	switch {
	case !cast.Multi && !cast.Null: // exactly-one
		return map[string]any{"type": "string", "enum": enum, "description": desc}
	case !cast.Multi && cast.Null: // zero-or-one
		return map[string]any{"type": []any{"string", "null"}, "enum": append(enum, nil), "description": desc}
	case cast.Multi && !cast.Null: // one-or-more
		return map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string", "enum": enum},
			"minItems":    1,
			"maxItems":    len(cast.Choices),
			"description": desc,
		}
	default: // zero-or-more
		return map[string]any{
			"type":        []any{"array", "null"},
			"items":       map[string]any{"type": "string", "enum": enum},
			"minItems":    0,
			"maxItems":    len(cast.Choices),
			"description": desc,
		}
	}
}

// fieldSchema builds the nested object schema for one field: {value,
// context, as_quote, ...casts}, all keys required within the field object
// (the optionality of the field itself, at the tool-payload level, is
// controlled by the caller).
func fieldSchema(f *collection.Field) map[string]any {
	props := map[string]any{
		"value": map[string]any{
			"type":        "string",
			"description": fmt.Sprintf("The most typical valid representation of a %s value.", f.Name),
		},
		collection.KeyContext: map[string]any{
			"type":        "string",
			"description": "A short summary of the conversation around the value.",
		},
		collection.KeyAsQuote: map[string]any{
			"type":        "string",
			"description": "The user's verbatim words that yielded the value.",
		},
	}
	required := []any{"value", collection.KeyContext, collection.KeyAsQuote}
	for _, cast := range f.Casts {
		props[OutwardCastName(cast.Name)] = castSchema(cast, f.Name)
		required = append(required, OutwardCastName(cast.Name))
	}
	return map[string]any{
		"type":        "object",
		"description": f.Desc,
		"properties":  props,
		"required":    required,
	}
}

// GenerateUpdate builds the update tool: every non-conclude field, each
// itself optional and nullable (the model only populates fields it
// actually extracted this turn), plus a possible_traits channel (spec.md
// §3's possible-trait lifecycle) when either role still has inactive
// possible traits to offer.
func GenerateUpdate(c *collection.Collection) chatmodel.ToolDefinition {
	id := CollectionID(c)
	props := map[string]any{}
	for _, f := range c.NonConcludeFields() {
		props[f.Name] = nullable(fieldSchema(f))
	}
	if traits, ok := traitChannelSchema(c); ok {
		props[possibleTraitsKey] = nullable(traits)
	}
	return chatmodel.ToolDefinition{
		Name:        "update_" + id,
		Description: fmt.Sprintf("Record any %s fields the %s just revealed.", orDefault(c.Type, "collection"), c.Roles.Bob.Type),
		InputSchema: map[string]any{
			"type":                 "object",
			"properties":           props,
			"additionalProperties": false,
		},
	}
}

// GenerateConclude builds the conclude tool: every conclude field,
// mandatory.
func GenerateConclude(c *collection.Collection) chatmodel.ToolDefinition {
	id := CollectionID(c)
	props := map[string]any{}
	var required []any
	for _, f := range c.ConcludeFields() {
		props[f.Name] = fieldSchema(f)
		required = append(required, f.Name)
	}
	return chatmodel.ToolDefinition{
		Name:        "conclude_" + id,
		Description: fmt.Sprintf("Synthesize the final %s fields from the full conversation.", orDefault(c.Type, "collection")),
		InputSchema: map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		},
	}
}

// GenerateConfidential builds the confidential-update tool scoped to
// exactly the given (currently-unfilled) confidential fields, all
// mandatory, forcing the LLM to emit an N/A marker for each.
func GenerateConfidential(c *collection.Collection, unfilled []*collection.Field) chatmodel.ToolDefinition {
	id := CollectionID(c)
	props := map[string]any{}
	var required []any
	for _, f := range unfilled {
		props[f.Name] = fieldSchema(f)
		required = append(required, f.Name)
	}
	return chatmodel.ToolDefinition{
		Name:        "updateConfidential_" + id,
		Description: fmt.Sprintf("Record every listed confidential %s field as not volunteered.", orDefault(c.Type, "collection")),
		InputSchema: map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		},
	}
}

// traitChannelSchema builds the update tool's possible_traits property, the
// dedicated channel spec.md §3 requires for activating a role's possible
// traits. It is scoped to exactly the traits still inactive on each role,
// the same way the confidential-update tool is scoped to unfilled fields;
// once a trait is active it drops out of the schema entirely.
func traitChannelSchema(c *collection.Collection) (map[string]any, bool) {
	props := map[string]any{}
	if prop, ok := roleTraitProperty(&c.Roles.Alice); ok {
		props["alice"] = prop
	}
	if prop, ok := roleTraitProperty(&c.Roles.Bob); ok {
		props["bob"] = prop
	}
	if len(props) == 0 {
		return nil, false
	}
	return map[string]any{
		"type":                 "object",
		"description":          "Activate traits the conversation has established as true. Omit a role, or leave its array empty, if nothing new applies.",
		"properties":           props,
		"additionalProperties": false,
	}, true
}

// roleTraitProperty builds the array-of-enum schema naming a role's
// currently inactive possible traits, or reports false if none remain.
func roleTraitProperty(r *collection.Role) (map[string]any, bool) {
	var names, descs []string
	for _, name := range r.PossibleTraitsInOrder() {
		t := r.PossibleTraits[name]
		if t.Active {
			continue
		}
		names = append(names, name)
		descs = append(descs, fmt.Sprintf("%s (%s)", name, t.Description))
	}
	if len(names) == 0 {
		return nil, false
	}
	enum := make([]any, len(names))
	for i, n := range names {
		enum[i] = n
	}
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string", "enum": enum},
		"description": "Candidate traits: " + strings.Join(descs, "; "),
	}, true
}

func nullable(schema map[string]any) map[string]any {
	return map[string]any{
		"anyOf": []any{schema, map[string]any{"type": "null"}},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
