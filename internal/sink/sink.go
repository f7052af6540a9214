// Package sink implements message delivery: a chat sink that splits
// oversized messages and renders tag/link placement, and an event-bus
// sink that fans delivered entries out over NATS.
//
// Grounded on telegram.rs's LinkLocation enum and the 4096-character
// message cap Telegram enforces; the split/resend loop and bracketed
// tag prefix follow the same shape that Telegram sink implements.
package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/arc-self/fetchd/internal/entry"
)

// LinkLocation controls where a message's link is rendered.
type LinkLocation int

const (
	LinkPreferTitle LinkLocation = iota
	LinkBottom
)

// MessageID is the id returned by a sink's Send call.
type MessageID int64

// Sink posts a single message and optionally threads it as a reply.
type Sink interface {
	Send(ctx context.Context, msg entry.Message, replyTo *MessageID, tag string) (MessageID, error)
}

// MaxMessageLen is the platform limit a chat sink splits against.
const MaxMessageLen = 4096

// render composes the final text for one message: tag prefix, title
// or body, and link placement, before splitting.
func render(msg entry.Message, tag string, link LinkLocation) string {
	var b strings.Builder

	prefix := ""
	if tag != "" {
		prefix = "[" + tag + "] "
	}

	title := msg.Title
	body := msg.Body
	link_ := ""
	if msg.Link != nil {
		link_ = msg.Link.String()
	}

	if title != "" {
		fmt.Fprintf(&b, "%s%s\n", prefix, title)
	} else if prefix != "" {
		b.WriteString(strings.TrimRight(prefix, " "))
		b.WriteString("\n")
	}

	if body != "" {
		if title != "" {
			b.WriteString("\n")
		}
		b.WriteString(body)
	}

	if link_ != "" && (link == LinkBottom || title == "") {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(link_)
	}

	return strings.TrimSpace(b.String())
}

// split breaks text into chunks no longer than MaxMessageLen,
// preferring to cut on paragraph boundaries, then sentence boundaries,
// and only hard-cutting mid-sentence as a last resort.
func split(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	for len(text) > limit {
		cut := lastBoundary(text[:limit], "\n\n")
		if cut <= 0 {
			cut = lastBoundary(text[:limit], ". ")
		}
		if cut <= 0 {
			cut = limit
		}
		parts = append(parts, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

func lastBoundary(s, sep string) int {
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return -1
	}
	return idx + len(sep)
}
