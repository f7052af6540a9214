// Package filter defines the Filter action: a predicate over an Entry
// that shrinks the pipeline's list in place. The Regex "find" variant
// is the canonical instance,
// compiled in internal/action/regexop; Predicate is the generic form
// so other filter kinds (e.g. a job-level pre-filter) share the same
// apply logic.
package filter

import "github.com/arc-self/fetchd/internal/entry"

// Predicate reports whether an entry should be retained.
type Predicate func(e *entry.Entry) bool

// Filter wraps a Predicate so pipeline.Run can treat every filter kind
// uniformly.
type Filter struct {
	Retain Predicate
}

// Apply returns the subset of entries the filter retains, preserving
// relative order — the same stable-order contract the read-filter's
// RemoveRead follows.
func (f Filter) Apply(entries []entry.Entry) []entry.Entry {
	out := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		if f.Retain(&e) {
			out = append(out, e)
		}
	}
	return out
}
