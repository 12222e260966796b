package collection

// Changed reports whether b differs from a in any way the orchestrator's
// interview-channel reducer must treat as a state change (spec.md §4.5,
// step 3): a field transitioned null -> non-null, a role's display type
// moved away from its default, or a role's trait list differs.
//
// Changed is nil-safe: a nil receiver or argument is never equal to a
// present Collection.
func Changed(a, b *Collection) bool {
	if a == nil || b == nil {
		return a != b
	}
	for _, name := range a.fieldOrder {
		af := a.fields[name]
		bf := b.fields[name]
		if bf == nil {
			continue
		}
		if af.Value == nil && bf.Value != nil {
			return true
		}
	}
	if roleChanged(a.Roles.Alice, b.Roles.Alice, "Agent") {
		return true
	}
	if roleChanged(a.Roles.Bob, b.Roles.Bob, "User") {
		return true
	}
	return false
}

func roleChanged(a, b Role, defaultType string) bool {
	if a.Type == defaultType && b.Type != defaultType {
		return true
	}
	if !stringSliceEqual(a.Traits, b.Traits) {
		return true
	}
	for name, bt := range b.PossibleTraits {
		at, ok := a.PossibleTraits[name]
		if !ok || at.Active != bt.Active {
			return true
		}
	}
	return false
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the collection. The orchestrator works on a
// clone of the host's Collection when a thread starts fresh, and clones its
// working copy before each tools round to serve as the "before" side of
// Reduce, so neither aliases the collection being changed.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	out := &Collection{
		Type:   c.Type,
		Desc:   c.Desc,
		fields: make(map[string]*Field, len(c.fields)),
	}
	out.fieldOrder = append(out.fieldOrder, c.fieldOrder...)
	out.Roles.Alice = cloneRole(c.Roles.Alice)
	out.Roles.Bob = cloneRole(c.Roles.Bob)
	for name, f := range c.fields {
		out.fields[name] = cloneField(f)
	}
	return out
}

func cloneRole(r Role) Role {
	out := Role{
		Type:           r.Type,
		Traits:         append([]string(nil), r.Traits...),
		PossibleTraits: make(map[string]*PossibleTrait, len(r.PossibleTraits)),
		traitOrder:     append([]string(nil), r.traitOrder...),
	}
	for name, t := range r.PossibleTraits {
		cp := *t
		out.PossibleTraits[name] = &cp
	}
	return out
}

// Reduce implements the interview-channel reducer (spec.md §4.5): given the
// existing checkpointed collection a and an incoming b, return the winner.
// A nil a or b yields the other. Otherwise the writer (b) wins only if
// Changed reports a real state transition; absent a change, a is kept
// (stability preferred over gratuitous replacement on checkpoint replay).
func Reduce(a, b *Collection) *Collection {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if !Changed(a, b) {
		return a
	}
	return b
}

// Overwrite replaces dst's contents with src's, preserving dst's identity
// (pointer) so callers holding a reference to dst observe the update. Used
// at the listen and teardown nodes to "copy state back into the host's
// Collection reference" without requiring the host to swap pointers.
func Overwrite(dst, src *Collection) {
	if dst == nil || src == nil {
		return
	}
	*dst = *src
}

func cloneField(f *Field) *Field {
	out := &Field{
		Name:  f.Name,
		Desc:  f.Desc,
		Specs: f.Specs,
		Casts: append([]Cast(nil), f.Casts...),
	}
	if f.Value != nil {
		v := *f.Value
		if f.Value.Casts != nil {
			v.Casts = make(map[string]any, len(f.Value.Casts))
			for k, val := range f.Value.Casts {
				v.Casts[k] = val
			}
		}
		out.Value = &v
	}
	return out
}
