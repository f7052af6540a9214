package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/arc-self/fetchd/internal/entry"
	"github.com/arc-self/fetchd/internal/ferr"
)

// TwitterSource polls a user or search timeline via the v2 recent
// search API. A shared-RF source: LastRead is passed as since_id, a
// server-side narrowing hint only, never relied on for correctness.
type TwitterSource struct {
	BearerToken string
	Query       string
	LastRead    string
	// BaseURL overrides the Twitter API root, defaulting to
	// https://api.twitter.com; tests point it at an httptest server.
	BaseURL string

	httpClient *http.Client
}

func (s *TwitterSource) client() *http.Client {
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: httpTimeout}
	}
	return s.httpClient
}

type twitterSearchResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

func (s *TwitterSource) Fetch(ctx context.Context) ([]entry.Entry, error) {
	q := url.Values{}
	q.Set("query", s.Query)
	q.Set("max_results", "25")
	if s.LastRead != "" {
		q.Set("since_id", s.LastRead)
	}

	base := s.BaseURL
	if base == "" {
		base = "https://api.twitter.com"
	}
	reqURL := base + "/2/tweets/search/recent?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "twitter", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.BearerToken)

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "twitter", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ferr.NewSourceError(ferr.SourceAuth, "twitter",
			fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "twitter",
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed twitterSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, ferr.NewSourceError(ferr.SourceParse, "twitter", err)
	}

	out := make([]entry.Entry, 0, len(parsed.Data))
	for _, tw := range parsed.Data {
		e := entry.Entry{ID: tw.ID}
		e.Msg.Body = strings.TrimSpace(tw.Text)
		_ = e.SetField(entry.FieldLink, "https://twitter.com/i/web/status/"+tw.ID)
		out = append(out, e)
	}
	return out, nil
}
