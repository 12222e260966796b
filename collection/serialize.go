package collection

import "encoding/json"

// snapshot is the wire form of Collection: a full dump of every field
// (names, descriptions, specs, casts, and any collected value) and both
// roles (including trait declaration order), not just field values — so a
// checkpoint store can rehydrate a Collection that behaves identically to
// the one that was saved. See spec.md §6 "Persisted state layout".
type snapshot struct {
	Type       string   `json:"type"`
	Desc       string   `json:"desc"`
	Roles      Roles    `json:"roles"`
	TraitOrder [2][]string `json:"trait_order"` // [alice, bob]
	FieldOrder []string `json:"field_order"`
	Fields     map[string]*Field `json:"fields"`
}

// MarshalJSON implements json.Marshaler, dumping the collection in
// declaration order alongside every field's full definition and collected
// value.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Type:       c.Type,
		Desc:       c.Desc,
		Roles:      c.Roles,
		TraitOrder: [2][]string{c.Roles.Alice.PossibleTraitsInOrder(), c.Roles.Bob.PossibleTraitsInOrder()},
		FieldOrder: c.FieldsInOrder(),
		Fields:     c.fields,
	})
}

// UnmarshalJSON implements json.Unmarshaler, restoring field order and
// trait declaration order alongside the field/role data itself.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	c.Type = snap.Type
	c.Desc = snap.Desc
	c.Roles = snap.Roles
	c.Roles.Alice.traitOrder = append([]string(nil), snap.TraitOrder[0]...)
	c.Roles.Bob.traitOrder = append([]string(nil), snap.TraitOrder[1]...)
	c.fields = snap.Fields
	if c.fields == nil {
		c.fields = make(map[string]*Field)
	}
	c.fieldOrder = append([]string(nil), snap.FieldOrder...)
	return nil
}
