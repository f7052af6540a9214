package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arc-self/fetchd/internal/entry"
	"github.com/arc-self/fetchd/internal/ferr"
)

// RedditSource polls a subreddit's public "new" listing JSON endpoint.
// A shared-RF source: no authentication, no server-side dedup.
type RedditSource struct {
	Subreddit string
	UserAgent string
	// BaseURL overrides the Reddit API root, defaulting to
	// https://www.reddit.com; tests point it at an httptest server.
	BaseURL string

	httpClient *http.Client
}

func (s *RedditSource) client() *http.Client {
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: httpTimeout}
	}
	return s.httpClient
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Name      string `json:"name"`
				Title     string `json:"title"`
				Selftext  string `json:"selftext"`
				URL       string `json:"url"`
				Permalink string `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (s *RedditSource) Fetch(ctx context.Context) ([]entry.Entry, error) {
	base := s.BaseURL
	if base == "" {
		base = "https://www.reddit.com"
	}
	reqURL := fmt.Sprintf("%s/r/%s/new.json?limit=25", base, s.Subreddit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "reddit", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "reddit", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return nil, ferr.NewSourceError(ferr.SourceAuth, "reddit",
			fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "reddit",
			fmt.Errorf("status %d", resp.StatusCode))
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, ferr.NewSourceError(ferr.SourceParse, "reddit", err)
	}

	out := make([]entry.Entry, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		e := entry.Entry{ID: d.Name}
		e.Msg.Title = d.Title
		e.Msg.Body = d.Selftext
		link := d.URL
		if link == "" {
			link = "https://www.reddit.com" + d.Permalink
		}
		if link != "" {
			_ = e.SetField(entry.FieldLink, link)
		}
		out = append(out, e)
	}
	return out, nil
}
