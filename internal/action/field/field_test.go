package field_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/fetchd/internal/action/field"
	"github.com/arc-self/fetchd/internal/entry"
	"github.com/arc-self/fetchd/internal/ferr"
)

func strp(s string) *string { return &s }

func TestExtract_CaptureGroup(t *testing.T) {
	re := regexp.MustCompile(`Hello, (?P<s>.*)!`)

	res, err := field.Extract{Re: re}.Apply(strp("Hello, world!"))
	require.NoError(t, err)
	assert.Equal(t, "world", res.Resolve("unused"))

	_, err = field.Extract{Re: re}.Apply(strp("Bad string"))
	assert.ErrorIs(t, err, ferr.ErrNotMatched)

	res, err = field.Extract{Re: re, PassthroughIfNotFound: true}.Apply(strp("Bad string"))
	require.NoError(t, err)
	assert.Equal(t, "Bad string", res.Resolve("Bad string"))
}

func TestExtract_MatchedButNoCaptureGroup(t *testing.T) {
	re := regexp.MustCompile(`Hello, (?P<s>\d+)!`)

	_, err := field.Extract{Re: re}.Apply(strp("Hello, world!"))
	// Plain match on the whole regex fails because group s never
	// participates (digits required) -> not matched at all.
	assert.ErrorIs(t, err, ferr.ErrNotMatched)

	re2 := regexp.MustCompile(`Hello, (\d+)?world!`)
	_, err = field.Extract{Re: re2}.Apply(strp("Hello, world!"))
	assert.ErrorIs(t, err, ferr.ErrCaptureGroupMissing)
}

func TestShorten(t *testing.T) {
	short := "hello"
	res, err := field.Shorten{Len: 10}.Apply(&short)
	require.NoError(t, err)
	assert.Equal(t, short, res.Resolve(short))

	long := strings.Repeat("a", 20)
	res, err = field.Shorten{Len: 5}.Apply(&long)
	require.NoError(t, err)
	out := res.Resolve(long)
	assert.Equal(t, []rune(out)[:5], []rune(strings.Repeat("a", 5)))
	assert.Equal(t, 6, len([]rune(out))) // 5 chars + ellipsis rune
}

func TestShorten_UnicodeCharCount(t *testing.T) {
	// multi-byte runes: ensure truncation counts characters, not bytes.
	in := strings.Repeat("é", 10) // each 'é' is 2 bytes in UTF-8
	res, err := field.Shorten{Len: 3}.Apply(&in)
	require.NoError(t, err)
	out := res.Resolve(in)
	assert.Equal(t, 4, len([]rune(out))) // 3 + ellipsis
}

func TestTrim(t *testing.T) {
	in := "  hi there  \t\n"
	res, err := field.Trim{}.Apply(&in)
	require.NoError(t, err)
	assert.Equal(t, "hi there", res.Resolve(in))
}

func TestCaps_Unicode(t *testing.T) {
	in := "straße"
	res, err := field.Caps{}.Apply(&in)
	require.NoError(t, err)
	assert.Equal(t, strings.ToUpper(in), res.Resolve(in))
}

func TestReplace(t *testing.T) {
	re := regexp.MustCompile(`(?P<s>\w+)@example\.com`)
	in := "contact alice@example.com now"
	res, err := field.Replace{Re: re, Template: "${s} [redacted]"}.Apply(&in)
	require.NoError(t, err)
	assert.Equal(t, "contact alice [redacted] now", res.Resolve(in))
}

func TestOperator_NilCurrent_KeepsOld(t *testing.T) {
	res, err := field.Trim{}.Apply(nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Resolve("fallback"))
}

func TestUseAs_WithSourceValue_ReplacesCurrent(t *testing.T) {
	op := field.UseAs{SourceField: entry.FieldLink}.WithSourceValue("https://example.com/post")
	current := "old title"
	res, err := op.Apply(&current)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/post", res.Resolve(current))
}

func TestUseAs_WithoutResolvedValue_ReplacesWithEmpty(t *testing.T) {
	// Apply called directly, without WithSourceValue, reflects that the
	// pipeline never resolved it — a safety net, not the normal path.
	op := field.UseAs{SourceField: entry.FieldBody}
	current := "old title"
	res, err := op.Apply(&current)
	require.NoError(t, err)
	assert.Equal(t, "", res.Resolve(current))
}
