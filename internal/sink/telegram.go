package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// TelegramDeliverer posts messages through the Telegram Bot API,
// grounded on the scanner_client.go facade shape (baseURL + token
// fields, a shared *http.Client, a small doJSON-style helper).
type TelegramDeliverer struct {
	Token      string
	BaseURL    string // overridable for tests; defaults to api.telegram.org
	httpClient *http.Client
}

func (t *TelegramDeliverer) client() *http.Client {
	if t.httpClient == nil {
		t.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return t.httpClient
}

func (t *TelegramDeliverer) base() string {
	if t.BaseURL != "" {
		return t.BaseURL
	}
	return "https://api.telegram.org"
}

type telegramSendMessageRequest struct {
	ChatID           int64  `json:"chat_id"`
	Text             string `json:"text"`
	ParseMode        string `json:"parse_mode"`
	ReplyToMessageID *int64 `json:"reply_to_message_id,omitempty"`
}

type telegramSendMessageResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	Description string `json:"description"`
}

// telegramInputMedia is one item of a sendMediaGroup payload. Media is
// always treated as "photo" — fetchd's sources never distinguish
// attachment mime types, so there's nothing to key a video/document
// choice off of.
type telegramInputMedia struct {
	Type      string `json:"type"`
	Media     string `json:"media"`
	Caption   string `json:"caption,omitempty"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type telegramSendMediaGroupRequest struct {
	ChatID           int64                `json:"chat_id"`
	Media            []telegramInputMedia `json:"media"`
	ReplyToMessageID *int64               `json:"reply_to_message_id,omitempty"`
}

type telegramSendMediaGroupResponse struct {
	OK     bool `json:"ok"`
	Result []struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	Description string `json:"description"`
}

func (t *TelegramDeliverer) Deliver(ctx context.Context, chatID int64, text string, replyTo *MessageID) (MessageID, error) {
	body := telegramSendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}
	if replyTo != nil {
		id := int64(*replyTo)
		body.ReplyToMessageID = &id
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("telegram: encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/bot%s/sendMessage", t.base(), t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("telegram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client().Do(req)
	if err != nil {
		return 0, fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	var parsed telegramSendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("telegram: decode response: %w", err)
	}
	if !parsed.OK {
		return 0, fmt.Errorf("telegram: %s", parsed.Description)
	}
	return MessageID(parsed.Result.MessageID), nil
}

// DeliverMedia posts media as a Telegram media group, with caption
// attached to the first item — Telegram rejects a caption on every
// item, only the first is shown. Telegram returns one Message per
// item; the group's id is the first item's.
func (t *TelegramDeliverer) DeliverMedia(ctx context.Context, chatID int64, media []*url.URL, caption string, replyTo *MessageID) (MessageID, error) {
	if len(media) == 0 {
		return t.Deliver(ctx, chatID, caption, replyTo)
	}

	items := make([]telegramInputMedia, len(media))
	for i, m := range media {
		items[i] = telegramInputMedia{Type: "photo", Media: m.String()}
	}
	items[0].Caption = caption
	items[0].ParseMode = "HTML"

	body := telegramSendMediaGroupRequest{ChatID: chatID, Media: items}
	if replyTo != nil {
		id := int64(*replyTo)
		body.ReplyToMessageID = &id
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("telegram: encode media group request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/bot%s/sendMediaGroup", t.base(), t.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("telegram: build media group request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client().Do(req)
	if err != nil {
		return 0, fmt.Errorf("telegram: send media group: %w", err)
	}
	defer resp.Body.Close()

	var parsed telegramSendMediaGroupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("telegram: decode media group response: %w", err)
	}
	if !parsed.OK || len(parsed.Result) == 0 {
		return 0, fmt.Errorf("telegram: %s", parsed.Description)
	}
	return MessageID(parsed.Result[0].MessageID), nil
}
