package toolschema

import (
	"strings"

	"github.com/chatfield-dev/chatfield/collection"
)

// choicePrefixOut maps an internal choice-cast name prefix to the
// outward, LLM-facing prefix (spec.md §4.3 "Naming convention for choice
// casts"). The rename is centralized here and nowhere else.
var choicePrefixOut = map[string]string{
	"as_one_":   "choose_exactly_one_",
	"as_maybe_": "choose_zero_or_one_",
	"as_multi_": "choose_one_or_more_",
	"as_any_":   "choose_zero_or_more_",
}

var choicePrefixIn = invert(choicePrefixOut)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// OutwardCastName translates an internal cast name to the name shown to the
// LLM. Non-choice casts are unchanged.
func OutwardCastName(castName string) string {
	for in, out := range choicePrefixOut {
		if strings.HasPrefix(castName, in) {
			return out + strings.TrimPrefix(castName, in)
		}
	}
	return castName
}

// InwardCastName is the inverse of OutwardCastName, applied when tool
// arguments come back from the LLM.
func InwardCastName(outwardName string) string {
	for out, in := range choicePrefixIn {
		if strings.HasPrefix(outwardName, out) {
			return in + strings.TrimPrefix(outwardName, out)
		}
	}
	return outwardName
}

// CollectionID derives the short, stable identifier used as a tool-name
// suffix (update_<id>, conclude_<id>, updateConfidential_<id>). It is
// implementation-defined by spec.md §6 provided it is stable per
// collection; this implementation slugifies the collection Type.
func CollectionID(c *collection.Collection) string {
	t := strings.TrimSpace(c.Type)
	if t == "" {
		return "collection"
	}
	var b strings.Builder
	prevUnderscore := false
	for _, r := range strings.ToLower(t) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		default:
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
