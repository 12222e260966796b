package collection_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfield-dev/chatfield/collection"
)

func TestCollection_RoundTripsThroughJSON(t *testing.T) {
	c := collection.New()
	c.Type = "Trip"
	c.Roles.Bob.Type = "Traveler"
	c.Roles.Bob.SetPossibleTrait("excited", "the traveler seems excited")
	c.Roles.Bob.Activate("excited")

	f := c.AddField("destination")
	f.Desc = "Where are you headed?"
	f.Casts = []collection.Cast{{Name: "as_str_upper", Kind: collection.CastKindStr, Prompt: "Upper-case it."}}
	f.SetValue(&collection.Value{Value: "Tokyo", Casts: map[string]any{"as_str_upper": "TOKYO"}})

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	restored := collection.New()
	require.NoError(t, json.Unmarshal(raw, restored))

	assert.Equal(t, "Trip", restored.Type)
	assert.Equal(t, "Traveler", restored.Roles.Bob.Type)
	assert.Equal(t, []string{"excited"}, restored.Roles.Bob.PossibleTraitsInOrder())
	assert.True(t, restored.Roles.Bob.PossibleTraits["excited"].Active)
	assert.Equal(t, []string{"destination"}, restored.FieldsInOrder())
	assert.Equal(t, "Tokyo", restored.Get("destination").String())
	v, ok := restored.Get("destination").Cast("as_str_upper")
	require.True(t, ok)
	assert.Equal(t, "TOKYO", v)
}
