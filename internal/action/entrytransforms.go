package action

import (
	"github.com/arc-self/fetchd/internal/action/feedx"
	"github.com/arc-self/fetchd/internal/action/htmlx"
	"github.com/arc-self/fetchd/internal/action/jsonx"
	"github.com/arc-self/fetchd/internal/entry"
)

// FeedTransform parses RawContents as RSS/Atom and fans out one entry
// per feed item.
type FeedTransform struct{}

func (FeedTransform) Apply(e entry.Entry) ([]entry.Entry, error) {
	return feedx.Parse(e.RawContents)
}

// HTMLTransform parses RawContents as HTML per an ItemSpec and fans
// out one entry per matched item.
type HTMLTransform struct {
	Spec htmlx.ItemSpec
}

func (t HTMLTransform) Apply(e entry.Entry) ([]entry.Entry, error) {
	return htmlx.Parse(e.RawContents, t.Spec)
}

// JSONTransform parses RawContents as JSON per an ItemSpec and fans
// out one entry per matched item.
type JSONTransform struct {
	Spec jsonx.ItemSpec
}

func (t JSONTransform) Apply(e entry.Entry) ([]entry.Entry, error) {
	return jsonx.Parse([]byte(e.RawContents), t.Spec)
}

// UseRawContentsTransform copies RawContents verbatim into one field.
type UseRawContentsTransform struct {
	Field entry.Field
}

func (t UseRawContentsTransform) Apply(e entry.Entry) ([]entry.Entry, error) {
	out := e
	if err := out.SetField(t.Field, e.RawContents); err != nil {
		return nil, err
	}
	return []entry.Entry{out}, nil
}
