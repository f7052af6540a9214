package sink

import (
	"context"
	"fmt"
	"net/url"

	"github.com/microcosm-cc/bluemonday"

	"github.com/arc-self/fetchd/internal/entry"
)

// Deliverer posts one already-split chunk to a chat backend and
// returns the backend's message id. ChatSink is backend-agnostic; a
// concrete Deliverer (Telegram bot API, Slack webhook, ...) is injected.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, text string, replyTo *MessageID) (MessageID, error)
	// DeliverMedia posts media as a group with caption attached to the
	// first item, for messages whose Media list is non-empty.
	DeliverMedia(ctx context.Context, chatID int64, media []*url.URL, caption string, replyTo *MessageID) (MessageID, error)
}

// ChatSink renders a Message into text, splits it to fit the
// backend's limit, and sends each part in order. The id returned to
// the caller is the id of the first part.
type ChatSink struct {
	ChatID       int64
	LinkLocation LinkLocation
	Deliverer    Deliverer

	sanitizer *bluemonday.Policy
}

func (s *ChatSink) policy() *bluemonday.Policy {
	if s.sanitizer == nil {
		s.sanitizer = bluemonday.UGCPolicy()
	}
	return s.sanitizer
}

func (s *ChatSink) Send(ctx context.Context, msg entry.Message, replyTo *MessageID, tag string) (MessageID, error) {
	msg.Title = s.policy().Sanitize(msg.Title)
	msg.Body = s.policy().Sanitize(msg.Body)

	text := render(msg, tag, s.LinkLocation)
	if text == "" {
		return 0, fmt.Errorf("chat sink: message has neither title nor body")
	}

	parts := split(text, MaxMessageLen)

	var firstID MessageID
	for i, part := range parts {
		rt := replyTo
		if i > 0 {
			rt = nil
		}

		var (
			id  MessageID
			err error
		)
		if i == 0 && len(msg.Media) > 0 {
			id, err = s.Deliverer.DeliverMedia(ctx, s.ChatID, msg.Media, part, rt)
		} else {
			id, err = s.Deliverer.Deliver(ctx, s.ChatID, part, rt)
		}
		if err != nil {
			return 0, fmt.Errorf("chat sink: deliver part %d/%d: %w", i+1, len(parts), err)
		}
		if i == 0 {
			firstID = id
		}
	}
	return firstID, nil
}
