package htmlx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/fetchd/internal/action/htmlx"
)

const sampleHTML = `
<html><body>
<div class="feed">
  <article class="card">
    <h2 class="title">First post</h2>
    <a class="link" href="https://example.com/1">read</a>
    <div class="ad">sponsored</div>
  </article>
  <article class="card">
    <h2 class="title">Second post</h2>
    <a class="link" href="https://example.com/2">read</a>
  </article>
</div>
</body></html>`

func TestParse_ExtractsTitleAndLink(t *testing.T) {
	spec := htmlx.ItemSpec{
		Items: htmlx.ItemQuery{
			{Kind: htmlx.KindClass, Name: "feed"},
			{Kind: htmlx.KindClass, Name: "card"},
		},
		Title: &htmlx.ElementDataQuery{
			Item:     htmlx.ItemQuery{{Kind: htmlx.KindClass, Name: "title"}},
			Location: htmlx.LocationText,
		},
		Link: &htmlx.ElementDataQuery{
			Item:     htmlx.ItemQuery{{Kind: htmlx.KindClass, Name: "link"}},
			Location: htmlx.LocationAttr,
			AttrName: "href",
		},
	}

	entries, err := htmlx.Parse(sampleHTML, spec)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "First post", entries[0].Msg.Title)
	assert.Equal(t, "https://example.com/1", entries[0].Msg.Link.String())
	assert.Equal(t, "Second post", entries[1].Msg.Title)
}

func TestSelect_EmptyQuery_Errors(t *testing.T) {
	_, err := htmlx.Select(nil, nil)
	assert.Error(t, err)
}

func TestExtractOne_OptionalMiss_ReturnsEmptyNoError(t *testing.T) {
	spec := htmlx.ItemSpec{
		Items: htmlx.ItemQuery{
			{Kind: htmlx.KindClass, Name: "feed"},
			{Kind: htmlx.KindClass, Name: "card"},
		},
		Body: &htmlx.ElementDataQuery{
			Item:     htmlx.ItemQuery{{Kind: htmlx.KindClass, Name: "nonexistent"}},
			Location: htmlx.LocationText,
			Optional: true,
		},
	}
	entries, err := htmlx.Parse(sampleHTML, spec)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "", entries[0].Msg.Body)
}
