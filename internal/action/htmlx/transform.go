package htmlx

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/arc-self/fetchd/internal/entry"
)

// ItemSpec describes how to turn one HTML document into a list of
// entries: Items selects the repeating "card" elements, and each named
// query pulls a single field out of a matched item. Link and ID are
// singled out because ID is what the read-filter keys on and Link is
// stored as a parsed URL rather than plain text.
type ItemSpec struct {
	Items   ItemQuery
	Title   *ElementDataQuery
	Link    *ElementDataQuery
	Body    *ElementDataQuery
	ID      *ElementDataQuery
}

// Parse runs an ItemSpec against raw HTML and emits one entry per
// matched item, in document order. A field query that errors on a
// non-optional miss aborts extraction for that single item only — it
// does not fail the whole document.
func Parse(raw string, spec ItemSpec) ([]entry.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("htmlx: parse document: %w", err)
	}

	items, err := Select(doc.Selection, spec.Items)
	if err != nil {
		return nil, err
	}

	var out []entry.Entry
	items.Each(func(i int, item *goquery.Selection) {
		e := entry.Entry{}
		if spec.Title != nil {
			v, err := ExtractOne(item, *spec.Title)
			if err != nil {
				return
			}
			e.Msg.Title = v
		}
		if spec.Body != nil {
			v, err := ExtractOne(item, *spec.Body)
			if err != nil {
				return
			}
			e.Msg.Body = v
		}
		if spec.Link != nil {
			v, err := ExtractOne(item, *spec.Link)
			if err != nil {
				return
			}
			if v != "" {
				_ = e.SetField(entry.FieldLink, v)
			}
		}
		if spec.ID != nil {
			v, err := ExtractOne(item, *spec.ID)
			if err != nil {
				return
			}
			e.ID = v
		}
		out = append(out, e)
	})

	return out, nil
}
