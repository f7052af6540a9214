// Package regexop implements the polymorphic regex action: Extract and
// Replace compile to a field transform, Find compiles to a filter. A
// single config
// stanza is disambiguated by which variant it names, not by a
// separate "kind" discriminator — mirroring the config/core split
// used for read-filter Kind in internal/readfilter.
package regexop

import (
	"regexp"

	"github.com/arc-self/fetchd/internal/action/field"
	"github.com/arc-self/fetchd/internal/entry"
)

// Variant names which of the three regex forms a declared RegexOp is.
type Variant int

const (
	VariantFind Variant = iota
	VariantExtract
	VariantReplace
)

// RegexOp is the compiled runtime form (its config-level declaration is
// config.RegexActionDoc, which holds the pattern as a string); Compile turns it into
// either a Filter or a field.Operator bound to a specific entry field,
// per the dispatch table.
type RegexOp struct {
	Variant  Variant
	Re       *regexp.Regexp
	Field    entry.Field
	Template string // Replace only
	PassthroughIfNotFound bool // Extract only
}

// Compiled is the dispatch result: exactly one of Filter or (Field,
// Operator) is populated, matching the declared Variant.
type Compiled struct {
	IsFilter bool
	Filter   func(e *entry.Entry) bool
	Field    entry.Field
	Operator field.Operator
}

// Compile dispatches a RegexOp by variant: find -> filter retaining
// entries whose named field matches; extract -> field transform on
// from_field; replace -> field transform on in_field.
func Compile(op RegexOp) Compiled {
	switch op.Variant {
	case VariantFind:
		re := op.Re
		fld := op.Field
		return Compiled{
			IsFilter: true,
			Filter: func(e *entry.Entry) bool {
				return re.MatchString(e.Field(fld))
			},
		}
	case VariantReplace:
		return Compiled{
			Field:    op.Field,
			Operator: field.Replace{Re: op.Re, Template: op.Template},
		}
	default: // VariantExtract
		return Compiled{
			Field: op.Field,
			Operator: field.Extract{
				Re:                    op.Re,
				PassthroughIfNotFound: op.PassthroughIfNotFound,
			},
		}
	}
}
