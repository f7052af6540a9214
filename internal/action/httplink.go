package action

import (
	"context"
	"fmt"

	"github.com/arc-self/fetchd/internal/entry"
)

// Fetcher is the subset of source.Source this transform needs; kept
// local to avoid an action->source import cycle (source adapters live
// below the pipeline, not above it).
type Fetcher interface {
	Fetch(ctx context.Context) ([]entry.Entry, error)
}

// HTTPLinkTransform resolves a URL from the entry's link field (or,
// if absent, treats RawContents as the URL), fetches it, and replaces
// RawContents with the response body, so a later transform can parse
// the fetched page instead of the entry that merely pointed at it.
type HTTPLinkTransform struct {
	Fetch func(ctx context.Context, url string) (string, error)
	Ctx   context.Context
}

func (t HTTPLinkTransform) Apply(e entry.Entry) ([]entry.Entry, error) {
	target := e.Field(entry.FieldLink)
	if target == "" {
		target = e.RawContents
	}
	if target == "" {
		return nil, fmt.Errorf("http-link transform: entry has no link or raw contents to follow")
	}

	ctx := t.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	body, err := t.Fetch(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("http-link transform: %w", err)
	}

	out := e
	out.RawContents = body
	return []entry.Entry{out}, nil
}
