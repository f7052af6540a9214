// Package source implements the fetch-side adapters: Source exposes
// fetch() and, for server-side-dedup sources, a mark_as_read hook.
//
// Grounded on the ScannerClient facade in scanner_client.go: an
// interface at the package boundary, a concrete *http.Client-backed
// struct behind it, context-aware methods, and a constructor that
// applies the fixed 30s timeout.
package source

import (
	"context"

	"github.com/arc-self/fetchd/internal/entry"
)

// Source fetches a batch of new entries on every call.
type Source interface {
	Fetch(ctx context.Context) ([]entry.Entry, error)
}

// ServerSideMarker is implemented by sources whose de-duplication is
// server-side (IMAP \Seen) instead of delegated to the shared
// read-filter.
type ServerSideMarker interface {
	MarkAsRead(ctx context.Context, id string) error
}
