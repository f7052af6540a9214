// Package feedx implements the Feed entry transform:
// parses RawContents as an RSS or Atom feed and emits one entry per
// item, carrying title, description-as-body, and link.
//
// Grounded on the HTTP-fetch-then-parse shape used throughout the
// sanket-sapate-arc-core worker services (fetch raw bytes, hand them to
// a dedicated parser); github.com/mmcdole/gofeed is the de facto
// standard Go RSS/Atom/JSON-feed parser and isn't in the retrieved
// pack, so it's named here as an out-of-pack pick per the feed-parsing
// domain concern.
package feedx

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/arc-self/fetchd/internal/entry"
)

// Parse decodes raw as an RSS/Atom/JSON feed and returns one entry per
// item, in feed order. A malformed document fails the whole fetch
// rather than dropping items, since there is no meaningful per-item
// boundary to recover at before the document parses at all.
func Parse(raw string) ([]entry.Entry, error) {
	fp := gofeed.NewParser()
	feed, err := fp.ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("feedx: parse feed: %w", err)
	}

	out := make([]entry.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		e := entry.Entry{}
		e.Msg.Title = strings.TrimSpace(item.Title)
		e.Msg.Body = bodyOf(item)
		if item.Link != "" {
			_ = e.SetField(entry.FieldLink, item.Link)
		}
		e.ID = idOf(item)
		out = append(out, e)
	}
	return out, nil
}

// bodyOf prefers the item description, falling back to content when
// description is absent (some Atom feeds only populate <content>).
func bodyOf(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

// idOf prefers the feed-declared GUID, since it's the stable identity
// the publisher intends; falls back to the link when no GUID is set.
func idOf(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return item.Link
}
