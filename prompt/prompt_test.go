package prompt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfield-dev/chatfield/builder"
	"github.com/chatfield-dev/chatfield/collection"
	"github.com/chatfield-dev/chatfield/prompt"
)

func buildTrip(t *testing.T) *collection.Collection {
	t.Helper()
	c, err := builder.New().
		Type("Trip").
		Alice().Type("Travel Agent").
		Bob().Type("Traveler").
		Field("destination").Desc("Where to?").Must("be a real place").
		Field("concerns_raised").Desc("Any concerns?").Confidential().AsBool().
		Field("summary").Desc("Summary").Conclude().
		Build()
	require.NoError(t, err)
	return c
}

func TestSystem_Deterministic(t *testing.T) {
	c := buildTrip(t)
	p1, err := prompt.System(c)
	require.NoError(t, err)
	p2, err := prompt.System(c)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	assert.Contains(t, p1, "Travel Agent")
	assert.Contains(t, p1, "Traveler")
	assert.Contains(t, p1, "Where to?")
	assert.Contains(t, p1, "Confidential:")
	assert.NotContains(t, p1, "Summary") // conclude fields excluded from the normal prompt
}

func TestSystem_RendersPossibleTraits(t *testing.T) {
	c, err := builder.New().
		Type("Trip").
		Bob().Type("Traveler").TraitPossible("frustrated", "has expressed frustration").
		Field("destination").Desc("Where to?").
		Build()
	require.NoError(t, err)

	out, err := prompt.System(c)
	require.NoError(t, err)
	assert.Contains(t, out, "frustrated")
	assert.Contains(t, out, "candidate")
	assert.Contains(t, out, "possible_traits")

	c.Roles.Bob.Activate("frustrated")
	out, err = prompt.System(c)
	require.NoError(t, err)
	assert.Contains(t, out, "established")
	assert.NotContains(t, out, "candidate")
}

func TestConfidentialDigest_OnlyUnfilled(t *testing.T) {
	c := buildTrip(t)
	unfilled := c.ConfidentialFields()
	out, err := prompt.ConfidentialDigest(c, unfilled)
	require.NoError(t, err)
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "concerns_raised")
}

func TestConcludeDigest_NamesConcludeFields(t *testing.T) {
	c := buildTrip(t)
	out, err := prompt.ConcludeDigest(c)
	require.NoError(t, err)
	assert.Contains(t, out, "summary")
}
