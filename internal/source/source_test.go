package source_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/fetchd/internal/ferr"
	"github.com/arc-self/fetchd/internal/source"
)

func TestFileSource_Fetch_ReturnsContents(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/feed.xml"
	require.NoError(t, os.WriteFile(path, []byte("<rss>hi</rss>"), 0o644))

	s := source.FileSource{Path: path}
	entries, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "<rss>hi</rss>", entries[0].RawContents)
}

func TestFileSource_Fetch_MissingFile_IsTransient(t *testing.T) {
	s := source.FileSource{Path: "/nonexistent/path/does/not/exist.xml"}
	_, err := s.Fetch(context.Background())
	assert.Error(t, err)
	assert.True(t, ferr.IsTransient(err))
}

func TestRedditSource_Fetch_ParsesListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"children":[
			{"data":{"name":"t3_1","title":"Post one","url":"https://example.com/1"}},
			{"data":{"name":"t3_2","title":"Post two","selftext":"body text"}}
		]}}`))
	}))
	defer srv.Close()

	s := &source.RedditSource{Subreddit: "golang", BaseURL: srv.URL}
	entries, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Post one", entries[0].Msg.Title)
	assert.Equal(t, "https://example.com/1", entries[0].Msg.Link.String())
	assert.Equal(t, "body text", entries[1].Msg.Body)
}

func TestTwitterSource_Fetch_UsesSinceID(t *testing.T) {
	var gotSinceID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSinceID = r.URL.Query().Get("since_id")
		w.Write([]byte(`{"data":[{"id":"101","text":"hello world"}]}`))
	}))
	defer srv.Close()

	s := &source.TwitterSource{BearerToken: "tok", Query: "golang", LastRead: "99", BaseURL: srv.URL}
	entries, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "99", gotSinceID)
	assert.Equal(t, "101", entries[0].ID)
	assert.Equal(t, "hello world", entries[0].Msg.Body)
}

func TestTwitterSource_Fetch_Unauthorized_IsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := &source.TwitterSource{BearerToken: "bad", BaseURL: srv.URL}
	_, err := s.Fetch(context.Background())
	assert.Error(t, err)
	assert.True(t, ferr.IsAuth(err))
}
