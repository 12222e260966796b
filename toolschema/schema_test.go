package toolschema_test

import (
	"crypto/sha256"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfield-dev/chatfield/builder"
	"github.com/chatfield-dev/chatfield/toolschema"
)

func digest(t *testing.T, v any) [32]byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return sha256.Sum256(raw)
}

func TestGenerateUpdate_ChoiceNamingTranslation(t *testing.T) {
	c, err := builder.New().Type("Order").
		Field("tier").AsOne("plan", "basic", "pro").
		Build()
	require.NoError(t, err)

	def := toolschema.GenerateUpdate(c)
	assert.Equal(t, "update_order", def.Name)
	require.NoError(t, toolschema.Validate(def, nil))

	props := def.InputSchema["properties"].(map[string]any)
	tier := props["tier"].(map[string]any)
	anyOf := tier["anyOf"].([]any)
	obj := anyOf[0].(map[string]any)
	fieldProps := obj["properties"].(map[string]any)
	_, hasOutward := fieldProps["choose_exactly_one_plan"]
	assert.True(t, hasOutward)
	_, hasInward := fieldProps["as_one_plan"]
	assert.False(t, hasInward)
}

func TestSchemas_InjectiveInCollectionShape(t *testing.T) {
	c1, err := builder.New().Type("A").Field("x").AsInt().Build()
	require.NoError(t, err)
	c2, err := builder.New().Type("A").Field("x").AsInt().Must("be positive").Build()
	require.NoError(t, err)

	// The update tool schema does not encode must/reject/hint specs at
	// all (c1 and c2 yield the same schema), so exercise the case that
	// does differ in shape: an added cast.
	c3, err := builder.New().Type("A").Field("x").AsInt().AsFloat("y").Build()
	require.NoError(t, err)

	d1 := digest(t, toolschema.GenerateUpdate(c1))
	d3 := digest(t, toolschema.GenerateUpdate(c3))
	assert.NotEqual(t, d1, d3)
	_ = c2
}

func TestGenerateConfidential_OnlyListsGivenFields(t *testing.T) {
	c, err := builder.New().Type("App").
		Field("name").Desc("Your name").
		Field("concerns").Desc("Concerns").Confidential().AsBool().
		Build()
	require.NoError(t, err)

	unfilled := c.ConfidentialFields()
	def := toolschema.GenerateConfidential(c, unfilled)
	assert.Equal(t, "updateConfidential_app", def.Name)

	props := def.InputSchema["properties"].(map[string]any)
	_, hasConcerns := props["concerns"]
	_, hasName := props["name"]
	assert.True(t, hasConcerns)
	assert.False(t, hasName)

	required := def.InputSchema["required"].([]any)
	assert.Contains(t, required, "concerns")
}

func TestGenerateUpdate_PossibleTraitsChannel(t *testing.T) {
	c, err := builder.New().Type("Trip").
		Bob().Type("Traveler").TraitPossible("frustrated", "has expressed frustration").
		Field("destination").Desc("Where to?").
		Build()
	require.NoError(t, err)

	def := toolschema.GenerateUpdate(c)
	props := def.InputSchema["properties"].(map[string]any)
	traits, ok := props["possible_traits"]
	require.True(t, ok, "expected a possible_traits property while an inactive trait remains")

	anyOf := traits.(map[string]any)["anyOf"].([]any)
	obj := anyOf[0].(map[string]any)
	traitProps := obj["properties"].(map[string]any)
	_, hasBob := traitProps["bob"]
	_, hasAlice := traitProps["alice"]
	assert.True(t, hasBob)
	assert.False(t, hasAlice, "alice has no possible traits declared, so her key should be absent")

	c.Roles.Bob.Activate("frustrated")
	def = toolschema.GenerateUpdate(c)
	props = def.InputSchema["properties"].(map[string]any)
	_, stillThere := props["possible_traits"]
	assert.False(t, stillThere, "an activated trait should drop the channel once none remain inactive")
}

func TestIngest_ActivatesPossibleTraits(t *testing.T) {
	c, err := builder.New().Type("Trip").
		Bob().Type("Traveler").TraitPossible("frustrated", "has expressed frustration").
		Field("destination").Desc("Where to?").
		Build()
	require.NoError(t, err)

	written, err := toolschema.Ingest(c, []byte(`{"possible_traits": {"bob": ["frustrated"]}}`))
	require.NoError(t, err)
	assert.Contains(t, written, "possible_traits")
	assert.True(t, c.Roles.Bob.PossibleTraits["frustrated"].Active)
}

func TestIngest_RoundTripsValueAndCasts(t *testing.T) {
	c, err := builder.New().Type("Trip").
		Field("age").AsInt().
		Field("tier").AsOne("plan", "basic", "pro").
		Build()
	require.NoError(t, err)

	payload := []byte(`{
		"age": {"value": "30", "as_int": 30},
		"tier": {"value": "pro", "choose_exactly_one_plan": "pro"}
	}`)
	written, err := toolschema.Ingest(c, payload)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"age", "tier"}, written)

	assert.Equal(t, "30", c.Get("age").String())
	n, ok := c.Get("age").Cast("as_int")
	require.True(t, ok)
	assert.EqualValues(t, 30, n)

	assert.Equal(t, "pro", c.Get("tier").String())
	p, ok := c.Get("tier").Cast("as_one_plan")
	require.True(t, ok)
	assert.Equal(t, "pro", p)
}
