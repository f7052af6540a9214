// Package entry defines the common shape of data flowing through the
// ingestion pipeline: the Entry and its embedded Message.
package entry

import "net/url"

// Field addresses one of the renderable slots on a Message.
type Field int

const (
	FieldTitle Field = iota
	FieldBody
	FieldLink
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldBody:
		return "body"
	case FieldLink:
		return "link"
	default:
		return "unknown"
	}
}

// Message is the deliverable payload carried by an Entry.
type Message struct {
	Title string
	Body  string
	Link  *url.URL
	Media []*url.URL
}

// HasContent reports whether the message satisfies the sink-time
// invariant that either Title or Body is non-empty.
func (m Message) HasContent() bool {
	return m.Title != "" || m.Body != ""
}

// Entry is one normalized item flowing through the pipeline.
type Entry struct {
	// ID is opaque and unique within a source; empty until a source
	// assigns one.
	ID string
	// RawContents carries the untransformed payload (HTML body, feed
	// XML, email body) so later transforms can re-parse it.
	RawContents string
	Msg         Message
	// ReplyTo is an entry ID the sink should thread this message under.
	ReplyTo string
}

// Clone returns a deep-enough copy of the entry for fan-out transforms
// that must produce more than one Entry from a single input.
func (e Entry) Clone() Entry {
	out := e
	if e.Msg.Link != nil {
		l := *e.Msg.Link
		out.Msg.Link = &l
	}
	if e.Msg.Media != nil {
		media := make([]*url.URL, len(e.Msg.Media))
		for i, m := range e.Msg.Media {
			if m == nil {
				continue
			}
			u := *m
			media[i] = &u
		}
		out.Msg.Media = media
	}
	return out
}

// Field reads the string value of the named field. Link is stringified.
func (e *Entry) Field(f Field) string {
	switch f {
	case FieldTitle:
		return e.Msg.Title
	case FieldBody:
		return e.Msg.Body
	case FieldLink:
		if e.Msg.Link == nil {
			return ""
		}
		return e.Msg.Link.String()
	default:
		return ""
	}
}

// SetField writes a new string value into the named field. Link is
// parsed as a URL; a parse failure leaves the field untouched and
// returns the error.
func (e *Entry) SetField(f Field, value string) error {
	switch f {
	case FieldTitle:
		e.Msg.Title = value
	case FieldBody:
		e.Msg.Body = value
	case FieldLink:
		u, err := url.Parse(value)
		if err != nil {
			return err
		}
		e.Msg.Link = u
	}
	return nil
}
