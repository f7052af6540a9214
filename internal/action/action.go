// Package action assembles the entry-processing pipeline: a declared,
// ordered list of Actions — Filter, Transform,
// Sink — run over a batch of entries. Transform is itself a tagged
// union of Entry (0..N fan-out) and Field (in-place, per-entry).
//
// Grounded on the per-job sequential-stage processing in
// scan_poller.go's pollOnce/processJob chain: each stage consumes the
// previous stage's output and a single bad item is isolated rather
// than aborting the whole run.
package action

import (
	"go.uber.org/zap"

	"github.com/arc-self/fetchd/internal/action/field"
	"github.com/arc-self/fetchd/internal/action/filter"
	"github.com/arc-self/fetchd/internal/entry"
	"github.com/arc-self/fetchd/internal/ferr"
)

// EntryTransform produces 0..N entries from one input entry (Feed,
// Html, Json, UseRawContents, Http-follow-link).
type EntryTransform interface {
	Apply(e entry.Entry) ([]entry.Entry, error)
}

// FieldTransform is a Transform{field, op} pair: Field names which
// slot to rewrite, Op computes the new value from the old.
type FieldTransform struct {
	Field entry.Field
	Op    field.Operator
}

// Transform is the Entry/Field tagged union. Exactly one of EntryOp or
// FieldOp is populated.
type Transform struct {
	EntryOp EntryTransform
	FieldOp *FieldTransform
}

func (t Transform) isField() bool { return t.FieldOp != nil }

// SinkAction posts an entry's message and records the returned
// message-id so later entries can thread replies under it.
type SinkAction interface {
	Send(e entry.Entry, replyTo (func(entryID string) (int64, bool))) (msgID int64, ok bool, err error)
}

// Step is one stage of the pipeline: exactly one of Filter, Transform,
// or Sink is populated, mirroring the Action tagged union.
type Step struct {
	Filter    *filter.Filter
	Transform *Transform
	Sink      SinkAction
}

// RecordMessageID is invoked after a successful sink send so the
// pipeline runner can update the entry-to-msg-map without the action
// package depending on msgmap directly.
type RecordMessageID func(entryID string, msgID int64) error

// ResolveReplyTo looks up the message id a prior entry was delivered
// as, for reply-threading.
type ResolveReplyTo func(entryID string) (int64, bool)

// Pipeline is a declared, ordered sequence of Steps.
type Pipeline struct {
	Steps       []Step
	RecordSink  RecordMessageID
	ResolveReply ResolveReplyTo
}

// Run applies every step in order: an empty list short-circuits
// remaining steps; a transform error on one entry drops that entry
// (logged) without aborting the batch.
func (p Pipeline) Run(entries []entry.Entry, log *zap.Logger) []entry.Entry {
	for _, step := range p.Steps {
		if len(entries) == 0 {
			return entries
		}
		switch {
		case step.Filter != nil:
			entries = step.Filter.Apply(entries)
		case step.Transform != nil:
			entries = p.runTransform(*step.Transform, entries, log)
		case step.Sink != nil:
			entries = p.runSink(step.Sink, entries, log)
		}
	}
	return entries
}

func (p Pipeline) runTransform(t Transform, entries []entry.Entry, log *zap.Logger) []entry.Entry {
	if t.isField() {
		out := make([]entry.Entry, 0, len(entries))
		for _, e := range entries {
			cur := e.Field(t.FieldOp.Field)
			op := t.FieldOp.Op
			if ua, ok := op.(field.UseAs); ok {
				op = ua.WithSourceValue(e.Field(ua.SourceField))
			}
			res, err := op.Apply(&cur)
			if err != nil {
				log.Warn("field transform failed, dropping entry",
					zap.String("entry_id", e.ID), zap.Error(err))
				continue
			}
			newVal := res.Resolve(cur)
			if err := e.SetField(t.FieldOp.Field, newVal); err != nil {
				log.Warn("field transform produced an unusable value, dropping entry",
					zap.String("entry_id", e.ID), zap.Error(err))
				continue
			}
			out = append(out, e)
		}
		return out
	}

	out := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		produced, err := t.EntryOp.Apply(e)
		if err != nil {
			log.Warn("entry transform failed, dropping entry",
				zap.Error(ferr.NewTransformError("entry", e, err)))
			continue
		}
		out = append(out, produced...)
	}
	return out
}

func (p Pipeline) runSink(s SinkAction, entries []entry.Entry, log *zap.Logger) []entry.Entry {
	out := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		var resolve ResolveReplyTo
		if p.ResolveReply != nil {
			resolve = p.ResolveReply
		}
		msgID, ok, err := s.Send(e, resolve)
		if err != nil {
			log.Warn("sink send failed, dropping entry",
				zap.String("entry_id", e.ID), zap.Error(err))
			continue
		}
		if ok && p.RecordSink != nil && e.ID != "" {
			if err := p.RecordSink(e.ID, msgID); err != nil {
				log.Warn("failed to persist entry-to-message mapping",
					zap.String("entry_id", e.ID), zap.Error(err))
			}
		}
		out = append(out, e)
	}
	return out
}
