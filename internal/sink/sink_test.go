package sink

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/fetchd/internal/entry"
)

func TestRender_TagPrefixedAndLinkBottom(t *testing.T) {
	link, _ := url.Parse("https://example.com/post")
	msg := entry.Message{Title: "Hello", Body: "World", Link: link}
	text := render(msg, "news", LinkBottom)
	assert.True(t, strings.HasPrefix(text, "[news] Hello"))
	assert.True(t, strings.HasSuffix(text, "https://example.com/post"))
}

func TestRender_NoTag_NoPrefix(t *testing.T) {
	msg := entry.Message{Title: "Hello"}
	text := render(msg, "", LinkBottom)
	assert.Equal(t, "Hello", text)
}

func TestSplit_ShortTextUnchanged(t *testing.T) {
	parts := split("short message", 100)
	require.Len(t, parts, 1)
	assert.Equal(t, "short message", parts[0])
}

func TestSplit_LongText_SplitsOnParagraphBoundary(t *testing.T) {
	para := strings.Repeat("a", 50)
	text := para + "\n\n" + para + "\n\n" + para
	parts := split(text, 60)
	require.True(t, len(parts) >= 2)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 60)
	}
}

type fakeDeliverer struct {
	calls      []string
	mediaCalls []string
	nextID     MessageID
}

func (f *fakeDeliverer) Deliver(ctx context.Context, chatID int64, text string, replyTo *MessageID) (MessageID, error) {
	f.calls = append(f.calls, text)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeDeliverer) DeliverMedia(ctx context.Context, chatID int64, media []*url.URL, caption string, replyTo *MessageID) (MessageID, error) {
	f.mediaCalls = append(f.mediaCalls, caption)
	f.nextID++
	return f.nextID, nil
}

func TestChatSink_Send_ReturnsFirstPartID(t *testing.T) {
	deliverer := &fakeDeliverer{}
	s := &ChatSink{ChatID: 1, Deliverer: deliverer}

	long := strings.Repeat("word ", 2000)
	msg := entry.Message{Title: "Digest", Body: long}
	id, err := s.Send(context.Background(), msg, nil, "")
	require.NoError(t, err)
	assert.Equal(t, MessageID(1), id)
	assert.True(t, len(deliverer.calls) >= 2)
}

func TestChatSink_Send_EmptyMessage_Errors(t *testing.T) {
	s := &ChatSink{ChatID: 1, Deliverer: &fakeDeliverer{}}
	_, err := s.Send(context.Background(), entry.Message{}, nil, "")
	assert.Error(t, err)
}

func TestChatSink_Send_WithMedia_RoutesThroughDeliverMedia(t *testing.T) {
	deliverer := &fakeDeliverer{}
	s := &ChatSink{ChatID: 1, Deliverer: deliverer}

	photo, _ := url.Parse("https://example.com/photo.jpg")
	msg := entry.Message{Title: "Launch", Media: []*url.URL{photo}}
	_, err := s.Send(context.Background(), msg, nil, "")
	require.NoError(t, err)

	assert.Len(t, deliverer.mediaCalls, 1)
	assert.Empty(t, deliverer.calls)
}
