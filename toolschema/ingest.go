package toolschema

import (
	"encoding/json"
	"fmt"

	"github.com/chatfield-dev/chatfield/collection"
)

// Ingest decodes a tool call's raw JSON arguments (as produced against an
// update/conclude/confidential-update schema from this package) and writes
// the collected values into the matching fields of c, applying the inward
// choose_* -> as_* cast-name translation. It returns the names of fields
// that were written, plus "possible_traits" when the arguments carried a
// non-null trait activation.
//
// Ingest returns an error naming the offending field/key on malformed
// input; callers (the orchestrator's tools node) convert this into an
// "Error: …" tool-result message rather than propagating it to the host,
// per spec.md §7 category 3.
func Ingest(c *collection.Collection, raw []byte) ([]string, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("toolschema: decode tool arguments: %w", err)
	}

	var written []string
	for fieldName, rawField := range payload {
		if string(rawField) == "null" {
			continue
		}
		if fieldName == possibleTraitsKey {
			if err := ingestTraits(c, rawField); err != nil {
				return nil, fmt.Errorf("toolschema: %s: %w", possibleTraitsKey, err)
			}
			written = append(written, fieldName)
			continue
		}
		field := c.Field(fieldName)
		if field == nil {
			return nil, fmt.Errorf("toolschema: unknown field %q in tool arguments", fieldName)
		}
		v, err := decodeFieldValue(field, rawField)
		if err != nil {
			return nil, fmt.Errorf("toolschema: field %q: %w", fieldName, err)
		}
		field.SetValue(v)
		written = append(written, fieldName)
	}
	return written, nil
}

// ingestTraits decodes the possible_traits property and activates the
// named traits on each role. Unknown trait names (already active, or never
// declared) are ignored rather than failing the call, matching the
// self-healing policy applied to unknown cast keys below.
func ingestTraits(c *collection.Collection, raw json.RawMessage) error {
	var obj struct {
		Alice []string `json:"alice"`
		Bob   []string `json:"bob"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("expected an object: %w", err)
	}
	for _, name := range obj.Alice {
		c.Roles.Alice.Activate(name)
	}
	for _, name := range obj.Bob {
		c.Roles.Bob.Activate(name)
	}
	return nil
}

func decodeFieldValue(field *collection.Field, raw json.RawMessage) (*collection.Value, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("expected an object: %w", err)
	}

	v := &collection.Value{Casts: map[string]any{}}

	valueRaw, ok := obj[collection.KeyValue]
	if !ok {
		return nil, fmt.Errorf("missing required %q key", collection.KeyValue)
	}
	if err := json.Unmarshal(valueRaw, &v.Value); err != nil {
		return nil, fmt.Errorf("%q must be a string: %w", collection.KeyValue, err)
	}
	if ctxRaw, ok := obj[collection.KeyContext]; ok {
		_ = json.Unmarshal(ctxRaw, &v.Context)
	}
	if quoteRaw, ok := obj[collection.KeyAsQuote]; ok {
		_ = json.Unmarshal(quoteRaw, &v.AsQuote)
	}

	for key, rawVal := range obj {
		if key == collection.KeyValue || key == collection.KeyContext || key == collection.KeyAsQuote {
			continue
		}
		inward := InwardCastName(key)
		cast := field.CastByName(inward)
		if cast == nil {
			// Unknown cast key: ignore rather than fail the whole
			// update, matching the conversational self-healing policy
			// of spec.md §7 (malformed extras shouldn't sink an
			// otherwise-valid field update).
			continue
		}
		decoded, err := decodeCastValue(*cast, rawVal)
		if err != nil {
			return nil, fmt.Errorf("cast %q: %w", inward, err)
		}
		v.Casts[inward] = decoded
	}
	return v, nil
}

func decodeCastValue(cast collection.Cast, raw json.RawMessage) (any, error) {
	switch cast.Kind {
	case collection.CastKindInt:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return n, nil
	case collection.CastKindFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, err
		}
		return f, nil
	case collection.CastKindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return b, nil
	case collection.CastKindSet:
		var list []any
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return dedupe(list), nil
	case collection.CastKindList:
		var list []any
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	case collection.CastKindDict:
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		return m, nil
	case collection.CastKindChoice:
		if cast.Multi {
			var list []string
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, err
			}
			return list, nil
		}
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s == nil {
			return nil, nil
		}
		return *s, nil
	default: // str and everything else: pass through as string
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	}
}

func dedupe(items []any) []any {
	seen := make(map[any]bool, len(items))
	out := make([]any, 0, len(items))
	for _, it := range items {
		key, hashable := it.(string)
		if !hashable {
			out = append(out, it)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
