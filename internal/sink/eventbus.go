// EventBus sink: publishes every delivered entry as a JetStream
// message instead of posting to a chat backend, letting other
// services subscribe to ingestion output.
//
// Grounded on natsclient/client.go's connect-then-JetStream-context
// pattern and stream.go's idempotent ProvisionStreams — the subject
// hierarchy here (FEED_EVENTS.<job>.<task>) mirrors
// stream.go's DOMAIN_EVENTS.> convention.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/arc-self/fetchd/internal/entry"
)

const StreamFeedEvents = "FEED_EVENTS"

// wireMessage is entry.Message's JSON-safe projection: url.URL has no
// JSON marshaling of its own, so Link is flattened to a string.
type wireMessage struct {
	Title string   `json:"title,omitempty"`
	Body  string   `json:"body,omitempty"`
	Link  string   `json:"link,omitempty"`
	Media []string `json:"media,omitempty"`
}

func toWireMessage(m entry.Message) wireMessage {
	w := wireMessage{Title: m.Title, Body: m.Body}
	if m.Link != nil {
		w.Link = m.Link.String()
	}
	for _, u := range m.Media {
		if u != nil {
			w.Media = append(w.Media, u.String())
		}
	}
	return w
}

type deliveredEvent struct {
	Job  string      `json:"job"`
	Task string      `json:"task"`
	Msg  wireMessage `json:"message"`
	Tag  string      `json:"tag,omitempty"`
}

// EventBusSink publishes a delivered entry's message under
// FEED_EVENTS.<job>.<task>. MessageID is synthesized from the
// JetStream publish ack's sequence number since there is no
// downstream reply-to concept on an event bus.
type EventBusSink struct {
	JS   nats.JetStreamContext
	Log  *zap.Logger
	Job  string
	Task string
}

// ProvisionStream idempotently ensures the FEED_EVENTS stream exists.
func (s *EventBusSink) ProvisionStream() error {
	_, err := s.JS.StreamInfo(StreamFeedEvents)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info: %w", err)
	}
	_, err = s.JS.AddStream(&nats.StreamConfig{
		Name:      StreamFeedEvents,
		Subjects:  []string{StreamFeedEvents + ".>"},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
	})
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	s.Log.Info("NATS stream provisioned", zap.String("stream", StreamFeedEvents))
	return nil
}

func (s *EventBusSink) Send(ctx context.Context, msg entry.Message, replyTo *MessageID, tag string) (MessageID, error) {
	payload, err := json.Marshal(deliveredEvent{Job: s.Job, Task: s.Task, Msg: toWireMessage(msg), Tag: tag})
	if err != nil {
		return 0, fmt.Errorf("eventbus sink: encode: %w", err)
	}

	subject := fmt.Sprintf("%s.%s.%s", StreamFeedEvents, s.Job, s.Task)
	ack, err := s.JS.Publish(subject, payload, nats.Context(ctx))
	if err != nil {
		return 0, fmt.Errorf("eventbus sink: publish: %w", err)
	}
	return MessageID(ack.Sequence), nil
}
