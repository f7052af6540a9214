// Package jsonx implements the Json entry transform:
// a JSON-pointer path selects the repeating item list, and per-field
// JSON-pointer paths (each relative to an item) pull out title/body/
// link/id.
//
// Grounded on the same extraction shape as htmlx.Parse, adapted to a
// go-openapi/jsonpointer-addressed tree instead of a goquery document —
// go-openapi/jsonpointer is the RFC 6901 implementation already used
// across the Go ecosystem for exactly this kind of path addressing.
package jsonx

import (
	"encoding/json"
	"fmt"

	"github.com/go-openapi/jsonpointer"

	"github.com/arc-self/fetchd/internal/entry"
)

// FieldPaths are JSON-pointer expressions, relative to one item, for
// each field the transform populates. An empty path skips that field.
type FieldPaths struct {
	Title string
	Body  string
	Link  string
	ID    string
}

// ItemSpec mirrors htmlx.ItemSpec: Items is a JSON pointer to the array
// of repeating elements, Fields addresses each one's data.
type ItemSpec struct {
	Items  string
	Fields FieldPaths
}

// Parse decodes raw as JSON and emits one entry per element at
// spec.Items. A field whose pointer doesn't resolve on a given item is
// left empty rather than failing that item — matching htmlx's
// optional-miss handling, since JSON feeds commonly omit fields
// per-item (e.g. a link only present on some posts).
func Parse(raw []byte, spec ItemSpec) ([]entry.Entry, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("jsonx: decode document: %w", err)
	}

	itemsPtr, err := jsonpointer.New(spec.Items)
	if err != nil {
		return nil, fmt.Errorf("jsonx: invalid items path %q: %w", spec.Items, err)
	}
	rawItems, _, err := itemsPtr.Get(doc)
	if err != nil {
		return nil, fmt.Errorf("jsonx: resolve items path %q: %w", spec.Items, err)
	}
	items, ok := rawItems.([]interface{})
	if !ok {
		return nil, fmt.Errorf("jsonx: items path %q did not resolve to an array", spec.Items)
	}

	out := make([]entry.Entry, 0, len(items))
	for _, item := range items {
		e := entry.Entry{}
		if v, ok := stringAt(item, spec.Fields.Title); ok {
			e.Msg.Title = v
		}
		if v, ok := stringAt(item, spec.Fields.Body); ok {
			e.Msg.Body = v
		}
		if v, ok := stringAt(item, spec.Fields.Link); ok && v != "" {
			_ = e.SetField(entry.FieldLink, v)
		}
		if v, ok := stringAt(item, spec.Fields.ID); ok {
			e.ID = v
		}
		out = append(out, e)
	}
	return out, nil
}

func stringAt(item interface{}, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	ptr, err := jsonpointer.New(path)
	if err != nil {
		return "", false
	}
	v, _, err := ptr.Get(item)
	if err != nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return fmt.Sprintf("%v", val), true
	default:
		return "", false
	}
}
