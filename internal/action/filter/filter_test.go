package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arc-self/fetchd/internal/action/filter"
	"github.com/arc-self/fetchd/internal/entry"
)

func TestFilter_Apply_PreservesOrder(t *testing.T) {
	entries := []entry.Entry{
		{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"},
	}
	f := filter.Filter{Retain: func(e *entry.Entry) bool {
		return e.ID == "1" || e.ID == "3"
	}}

	out := f.Apply(entries)
	require := []string{"1", "3"}
	for i, e := range out {
		assert.Equal(t, require[i], e.ID)
	}
	assert.Len(t, out, 2)
}

func TestFilter_Apply_EmptyInput(t *testing.T) {
	f := filter.Filter{Retain: func(e *entry.Entry) bool { return true }}
	out := f.Apply(nil)
	assert.Empty(t, out)
}
