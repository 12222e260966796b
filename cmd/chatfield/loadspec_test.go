package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
type: Feedback
desc: Collects product feedback
alice:
  type: Customer
bob:
  type: Support agent
  traits:
    - friendly
fields:
  - name: rating
    desc: How would you rate the product?
    must:
      - a number between 1 and 5
    casts:
      - kind: int
  - name: comment
    desc: Anything else you'd like to share?
    confidential: true
  - name: summary
    desc: One line summarizing the whole conversation
    conclude: true
`

func TestLoadCollection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feedback.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	c, err := loadCollection(path)
	require.NoError(t, err)

	rating := c.Field("rating")
	require.NotNil(t, rating)
	assert.Equal(t, []string{"a number between 1 and 5"}, rating.Specs.Must)
	assert.NotNil(t, rating.CastByName("as_int"))

	comment := c.Field("comment")
	require.NotNil(t, comment)
	assert.True(t, comment.Specs.Confidential)

	summary := c.Field("summary")
	require.NotNil(t, summary)
	assert.True(t, summary.Specs.Conclude)
}

func TestLoadCollection_UnknownCastKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
type: X
fields:
  - name: f
    desc: d
    casts:
      - kind: bogus
`), 0o644))

	_, err := loadCollection(path)
	assert.Error(t, err)
}
