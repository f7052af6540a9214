package source_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/fetchd/internal/ferr"
	"github.com/arc-self/fetchd/internal/source"
)

func TestHTTPSource_Fetch_ReturnsOneEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte("<rss>canned body</rss>"))
	}))
	defer srv.Close()

	s := source.HTTPSource{URL: srv.URL, UserAgent: "fetchd-test/1.0"}
	entries, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "<rss>canned body</rss>", entries[0].RawContents)
	assert.Equal(t, srv.URL, entries[0].Msg.Link.String())
	assert.NotEmpty(t, entries[0].ID)
}

func TestHTTPSource_Fetch_IDIsStableForSameContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("unchanged"))
	}))
	defer srv.Close()

	s := source.HTTPSource{URL: srv.URL}
	first, err := s.Fetch(context.Background())
	require.NoError(t, err)
	second, err := s.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestHTTPSource_Fetch_ServerError_IsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := source.HTTPSource{URL: srv.URL}
	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, ferr.IsTransient(err))
}

func TestHTTPSource_Fetch_Unauthorized_IsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := source.HTTPSource{URL: srv.URL}
	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, ferr.IsAuth(err))
}
