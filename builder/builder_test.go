package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfield-dev/chatfield/builder"
	"github.com/chatfield-dev/chatfield/collection"
)

func TestBuilder_FluentChain(t *testing.T) {
	c, err := builder.New().
		Type("Trip").
		Desc("Plan a trip").
		Alice().Type("Travel Agent").Trait("friendly").
		Bob().Type("Traveler").
		Field("destination").Desc("Where to?").Must("be a real place").
		Field("age").Desc("How old are you?").Must("be between 0 and 120").AsInt().
		Field("tier").Desc("Which plan?").AsOne("plan", "basic", "pro", "enterprise").
		Field("concerns_raised").Desc("Any concerns?").Confidential().AsBool().
		Field("summary").Desc("Summary").Conclude().
		Build()

	require.NoError(t, err)
	assert.Equal(t, "Trip", c.Type)
	assert.Equal(t, "Travel Agent", c.Roles.Alice.Type)
	assert.Equal(t, "Traveler", c.Roles.Bob.Type)
	assert.Equal(t, []string{"destination", "age", "tier", "concerns_raised", "summary"}, c.FieldsInOrder())

	age := c.Field("age")
	require.NotNil(t, age)
	assert.NotNil(t, age.CastByName("as_int"))

	tier := c.Field("tier")
	cast := tier.CastByName("as_one_plan")
	require.NotNil(t, cast)
	assert.False(t, cast.Multi)
	assert.False(t, cast.Null)

	assert.True(t, c.Field("concerns_raised").Specs.Confidential)
	assert.True(t, c.Field("summary").Specs.Conclude)
}

func TestBuilder_DuplicateFieldIsSameField(t *testing.T) {
	c, err := builder.New().
		Field("x").Desc("first").
		Field("x").Must("still works").
		Build()
	require.NoError(t, err)
	require.Len(t, c.FieldsInOrder(), 1)
	assert.Equal(t, "first", c.Field("x").Desc)
	assert.Len(t, c.Field("x").Specs.Must, 1)
}

func TestBuilder_DuplicateCastNameErrors(t *testing.T) {
	_, err := builder.New().
		Field("x").AsInt("dup").AsFloat("dup").
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, collection.ErrDuplicateCast)
}

func TestBuilder_ReservedCastNameErrors(t *testing.T) {
	_, err := builder.New().
		Field("x").AsStr("value", "nope").
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, collection.ErrReservedCastName)
}

func TestBuilder_TypeTooLongErrors(t *testing.T) {
	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	_, err := builder.New().Type(string(long)).Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, collection.ErrTypeTooLong)
}

func TestBuilder_MisplacedFieldSpecErrors(t *testing.T) {
	_, err := builder.New().Alice().Must("nope").Build()
	require.Error(t, err)
}

func TestBuilder_ChoiceCardinalities(t *testing.T) {
	c, err := builder.New().
		Field("a").AsOne("x", "1", "2").
		Field("b").AsMaybe("x", "1", "2").
		Field("c").AsMulti("x", "1", "2").
		Field("d").AsAny("x", "1", "2").
		Build()
	require.NoError(t, err)

	cases := []struct {
		field, cast  string
		multi, null bool
	}{
		{"a", "as_one_x", false, false},
		{"b", "as_maybe_x", false, true},
		{"c", "as_multi_x", true, false},
		{"d", "as_any_x", true, true},
	}
	for _, tc := range cases {
		cast := c.Field(tc.field).CastByName(tc.cast)
		require.NotNilf(t, cast, "field %s cast %s", tc.field, tc.cast)
		assert.Equal(t, tc.multi, cast.Multi, tc.field)
		assert.Equal(t, tc.null, cast.Null, tc.field)
	}
}
