package source

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/arc-self/fetchd/internal/entry"
	"github.com/arc-self/fetchd/internal/ferr"
)

const httpTimeout = 30 * time.Second

var (
	sharedClientOnce sync.Once
	sharedClient     *http.Client
	sharedClientErr  error
	sharedClientMu   sync.Mutex
)

// sharedHTTPClient returns the process-wide client singleton. The
// first caller builds it; if that build fails, that first caller gets
// the real error back and every later caller instead gets
// ErrClientNotInitialized — the build is never retried.
func sharedHTTPClient() (*http.Client, error) {
	sharedClientOnce.Do(func() {
		transport, err := buildTransport()
		if err != nil {
			sharedClientErr = err
			return
		}
		sharedClient = &http.Client{Timeout: httpTimeout, Transport: transport}
	})
	if sharedClient == nil {
		sharedClientMu.Lock()
		defer sharedClientMu.Unlock()
		if sharedClientErr != nil {
			err := sharedClientErr
			sharedClientErr = nil
			return nil, err
		}
		return nil, ferr.ErrClientNotInitialized
	}
	return sharedClient, nil
}

// buildTransport constructs the shared transport. It returns an error
// only if the process's root CA pool cannot be loaded — the one
// failure mode the singleton above treats as consumable-once.
func buildTransport() (*http.Transport, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return nil, fmt.Errorf("load system cert pool: %w", err)
	}
	return &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
	}, nil
}

// HTTPSource issues a GET against URL and returns a single entry whose
// RawContents is the response body and whose Link is the request URL.
type HTTPSource struct {
	URL       string
	UserAgent string
}

func (s HTTPSource) Fetch(ctx context.Context) ([]entry.Entry, error) {
	client, err := sharedHTTPClient()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "http", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "http", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "http",
			fmt.Errorf("server returned %d", resp.StatusCode))
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ferr.NewSourceError(ferr.SourceAuth, "http",
			fmt.Errorf("server returned %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "http",
			fmt.Errorf("server returned %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ferr.NewSourceError(ferr.SourceTransient, "http", err)
	}

	e := entry.Entry{ID: contentHashID(body), RawContents: string(body)}
	if err := e.SetField(entry.FieldLink, s.URL); err != nil {
		return nil, ferr.NewSourceError(ferr.SourceParse, "http", err)
	}
	return []entry.Entry{e}, nil
}

// contentHashID derives a stable entry id from raw bytes so a
// read-filter keyed on id can tell an unchanged fetch from a changed
// one without the source tracking any state of its own.
func contentHashID(data []byte) string {
	return strconv.FormatUint(xxh3.Hash(data), 16)
}
