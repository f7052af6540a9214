package regexop_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/fetchd/internal/action/regexop"
	"github.com/arc-self/fetchd/internal/entry"
)

func TestCompile_Find_CompilesToFilter(t *testing.T) {
	op := regexop.RegexOp{
		Variant: regexop.VariantFind,
		Re:      regexp.MustCompile(`\d+`),
		Field:   entry.FieldBody,
	}
	compiled := regexop.Compile(op)
	require.True(t, compiled.IsFilter)

	matching := entry.Entry{}
	matching.Msg.Body = "issue 42"
	assert.True(t, compiled.Filter(&matching))

	nonMatching := entry.Entry{}
	nonMatching.Msg.Body = "no digits here"
	assert.False(t, compiled.Filter(&nonMatching))
}

func TestCompile_Extract_CompilesToFieldTransform(t *testing.T) {
	op := regexop.RegexOp{
		Variant: regexop.VariantExtract,
		Re:      regexp.MustCompile(`Hello, (?P<s>.*)!`),
		Field:   entry.FieldTitle,
	}
	compiled := regexop.Compile(op)
	require.False(t, compiled.IsFilter)
	assert.Equal(t, entry.FieldTitle, compiled.Field)

	current := "Hello, world!"
	res, err := compiled.Operator.Apply(&current)
	require.NoError(t, err)
	assert.Equal(t, "world", res.Resolve(current))
}

func TestCompile_Replace_CompilesToFieldTransform(t *testing.T) {
	op := regexop.RegexOp{
		Variant:  regexop.VariantReplace,
		Re:       regexp.MustCompile(`\d+`),
		Field:    entry.FieldBody,
		Template: "#",
	}
	compiled := regexop.Compile(op)
	require.False(t, compiled.IsFilter)

	current := "issue 42 and 43"
	res, err := compiled.Operator.Apply(&current)
	require.NoError(t, err)
	assert.Equal(t, "issue # and #", res.Resolve(current))
}
