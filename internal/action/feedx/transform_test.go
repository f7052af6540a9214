package feedx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/fetchd/internal/action/feedx"
)

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Example Feed</title>
<item><title>One</title><description>First item</description><link>https://example.com/1</link><guid>guid-1</guid></item>
<item><title>Two</title><description>Second item</description><link>https://example.com/2</link><guid>guid-2</guid></item>
<item><title>Three</title><description>Third item</description><link>https://example.com/3</link><guid>guid-3</guid></item>
</channel></rss>`

func TestParse_ThreeItems_FeedOrder(t *testing.T) {
	entries, err := feedx.Parse(sampleRSS)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "One", entries[0].Msg.Title)
	assert.Equal(t, "First item", entries[0].Msg.Body)
	assert.Equal(t, "https://example.com/1", entries[0].Msg.Link.String())
	assert.Equal(t, "guid-1", entries[0].ID)
	assert.Equal(t, "Three", entries[2].Msg.Title)
}

func TestParse_Malformed_Errors(t *testing.T) {
	_, err := feedx.Parse("not a feed at all")
	assert.Error(t, err)
}
