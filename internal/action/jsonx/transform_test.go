package jsonx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/fetchd/internal/action/jsonx"
)

const sampleJSON = `{
  "data": {
    "posts": [
      {"headline": "First post", "url": "https://example.com/1"},
      {"headline": "Second post"}
    ]
  }
}`

func TestParse_ExtractsFields(t *testing.T) {
	spec := jsonx.ItemSpec{
		Items: "/data/posts",
		Fields: jsonx.FieldPaths{
			Title: "/headline",
			Link:  "/url",
		},
	}

	entries, err := jsonx.Parse([]byte(sampleJSON), spec)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "First post", entries[0].Msg.Title)
	assert.Equal(t, "https://example.com/1", entries[0].Msg.Link.String())
	assert.Equal(t, "Second post", entries[1].Msg.Title)
	assert.Nil(t, entries[1].Msg.Link)
}

func TestParse_BadItemsPath_Errors(t *testing.T) {
	spec := jsonx.ItemSpec{Items: "/nonexistent"}
	_, err := jsonx.Parse([]byte(sampleJSON), spec)
	assert.Error(t, err)
}

func TestParse_ItemsNotArray_Errors(t *testing.T) {
	spec := jsonx.ItemSpec{Items: "/data"}
	_, err := jsonx.Parse([]byte(sampleJSON), spec)
	assert.Error(t, err)
}
