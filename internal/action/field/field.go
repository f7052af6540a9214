// Package field implements the field operators that run over a single
// Message field: Trim, Caps, Shorten, Extract, Replace,
// UseAs. Each operator takes an optional current value and returns a
// Result that is either a replacement or "keep what was there" — the
// pipeline threads the Old case through so a transform that found
// nothing to change never clobbers the field.
package field

import (
	"regexp"
	"strings"

	"github.com/arc-self/fetchd/internal/entry"
	"github.com/arc-self/fetchd/internal/ferr"
)

// Result is the outcome of a field operator: either New(value), which
// replaces the field, or Old, which preserves whatever was there.
type Result struct {
	isNew bool
	value string
}

func New(value string) Result { return Result{isNew: true, value: value} }
func Old() Result              { return Result{} }

// Resolve returns the field's new value given the value it had before
// the operator ran.
func (r Result) Resolve(previous string) string {
	if r.isNew {
		return r.value
	}
	return previous
}

// Operator transforms an optional current field value.
type Operator interface {
	Apply(current *string) (Result, error)
}

// Trim strips ASCII whitespace from both ends.
type Trim struct{}

func (Trim) Apply(current *string) (Result, error) {
	if current == nil {
		return Old(), nil
	}
	return New(strings.TrimFunc(*current, isASCIISpace)), nil
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// Caps uppercases the field using Unicode case folding (not ASCII-only
// — ground truth per original_source/fetcher-core/.../caps.rs, which
// relies on Rust's str::to_uppercase).
type Caps struct{}

func (Caps) Apply(current *string) (Result, error) {
	if current == nil {
		return Old(), nil
	}
	return New(strings.ToUpper(*current)), nil
}

// Shorten truncates to n characters (not bytes) and appends an
// ellipsis when the input is longer.
type Shorten struct {
	Len int
}

const ellipsis = "…"

func (s Shorten) Apply(current *string) (Result, error) {
	if current == nil {
		return Old(), nil
	}
	runes := []rune(*current)
	if len(runes) <= s.Len {
		return New(*current), nil
	}
	return New(string(runes[:s.Len]) + ellipsis), nil
}

// Extract runs a regex against the field and, when the named capture
// group "s" is present, replaces the field with its text.
type Extract struct {
	Re                    *regexp.Regexp
	PassthroughIfNotFound bool
}

func (e Extract) Apply(current *string) (Result, error) {
	if current == nil {
		return Old(), nil
	}
	match := e.Re.FindStringSubmatchIndex(*current)
	if match == nil {
		if e.PassthroughIfNotFound {
			return New(*current), nil
		}
		return Result{}, ferr.ErrNotMatched
	}

	groupIdx := e.Re.SubexpIndex("s")
	if groupIdx == -1 || match[2*groupIdx] == -1 {
		// Matched, but no (or non-participating) "s" capture group:
		// "found but nothing to extract".
		if e.PassthroughIfNotFound {
			return New(*current), nil
		}
		return Result{}, ferr.ErrCaptureGroupMissing
	}

	return New((*current)[match[2*groupIdx]:match[2*groupIdx+1]]), nil
}

// Replace regex-replaces every match in the field with template, which
// may use Go's regexp ${name} / $1 backref syntax.
type Replace struct {
	Re       *regexp.Regexp
	Template string
}

func (r Replace) Apply(current *string) (Result, error) {
	if current == nil {
		return Old(), nil
	}
	return New(r.Re.ReplaceAllString(*current, r.Template)), nil
}

// UseAs copies another field's value verbatim into the field it is
// attached to. SourceField names which slot to read; the pipeline
// resolves it against the entry before Apply runs (see
// action.Pipeline.runTransform), since an Operator only ever sees the
// current value of the field it's rewriting, not the whole entry.
type UseAs struct {
	SourceField entry.Field
	sourceValue string
}

func (u UseAs) Apply(current *string) (Result, error) {
	return New(u.sourceValue), nil
}

// WithSourceValue returns a copy of u with its resolved source value
// set, ready to Apply.
func (u UseAs) WithSourceValue(v string) UseAs {
	u.sourceValue = v
	return u
}
