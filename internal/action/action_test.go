package action_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arc-self/fetchd/internal/action"
	"github.com/arc-self/fetchd/internal/action/field"
	"github.com/arc-self/fetchd/internal/action/filter"
	"github.com/arc-self/fetchd/internal/entry"
)

type fanOutTransform struct{}

func (fanOutTransform) Apply(e entry.Entry) ([]entry.Entry, error) {
	a, b := e, e
	a.Msg.Title = e.Msg.Title + "-a"
	b.Msg.Title = e.Msg.Title + "-b"
	return []entry.Entry{a, b}, nil
}

type failingTransform struct{}

func (failingTransform) Apply(e entry.Entry) ([]entry.Entry, error) {
	if e.ID == "bad" {
		return nil, errors.New("boom")
	}
	return []entry.Entry{e}, nil
}

type stubSink struct{ sent []string }

func (s *stubSink) Send(e entry.Entry, _ func(string) (int64, bool)) (int64, bool, error) {
	s.sent = append(s.sent, e.ID)
	return int64(len(s.sent)), true, nil
}

func TestPipeline_EmptyList_ShortCircuits(t *testing.T) {
	calls := 0
	p := action.Pipeline{Steps: []action.Step{
		{Transform: &action.Transform{EntryOp: countingTransform{&calls}}},
	}}
	out := p.Run(nil, zap.NewNop())
	assert.Empty(t, out)
	assert.Equal(t, 0, calls)
}

type countingTransform struct{ n *int }

func (c countingTransform) Apply(e entry.Entry) ([]entry.Entry, error) {
	*c.n++
	return []entry.Entry{e}, nil
}

func TestPipeline_EntryTransform_FanOut(t *testing.T) {
	p := action.Pipeline{Steps: []action.Step{
		{Transform: &action.Transform{EntryOp: fanOutTransform{}}},
	}}
	in := []entry.Entry{{ID: "1", Msg: entry.Message{Title: "x"}}}
	out := p.Run(in, zap.NewNop())
	require.Len(t, out, 2)
	assert.Equal(t, "x-a", out[0].Msg.Title)
	assert.Equal(t, "x-b", out[1].Msg.Title)
}

func TestPipeline_EntryTransformError_DropsEntryNotBatch(t *testing.T) {
	p := action.Pipeline{Steps: []action.Step{
		{Transform: &action.Transform{EntryOp: failingTransform{}}},
	}}
	in := []entry.Entry{{ID: "good"}, {ID: "bad"}, {ID: "good2"}}
	out := p.Run(in, zap.NewNop())
	require.Len(t, out, 2)
	assert.Equal(t, "good", out[0].ID)
	assert.Equal(t, "good2", out[1].ID)
}

func TestPipeline_FieldTransform_NeverChangesLength(t *testing.T) {
	p := action.Pipeline{Steps: []action.Step{
		{Transform: &action.Transform{FieldOp: &action.FieldTransform{
			Field: entry.FieldTitle,
			Op:    field.Trim{},
		}}},
	}}
	in := []entry.Entry{{ID: "1", Msg: entry.Message{Title: "  hi  "}}}
	out := p.Run(in, zap.NewNop())
	require.Len(t, out, 1)
	assert.Equal(t, "hi", out[0].Msg.Title)
}

func TestPipeline_Filter_ShrinksList(t *testing.T) {
	p := action.Pipeline{Steps: []action.Step{
		{Filter: &filter.Filter{Retain: func(e *entry.Entry) bool { return e.ID == "keep" }}},
	}}
	in := []entry.Entry{{ID: "keep"}, {ID: "drop"}}
	out := p.Run(in, zap.NewNop())
	require.Len(t, out, 1)
	assert.Equal(t, "keep", out[0].ID)
}

func TestPipeline_Sink_RecordsMessageID(t *testing.T) {
	recorded := map[string]int64{}
	sink := &stubSink{}
	p := action.Pipeline{
		Steps: []action.Step{{Sink: sink}},
		RecordSink: func(entryID string, msgID int64) error {
			recorded[entryID] = msgID
			return nil
		},
	}
	in := []entry.Entry{{ID: "e1"}, {ID: "e2"}}
	out := p.Run(in, zap.NewNop())
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), recorded["e1"])
	assert.Equal(t, int64(2), recorded["e2"])
	assert.Equal(t, []string{"e1", "e2"}, sink.sent)
}
