// Package readfilter implements the de-duplication state that decides
// which incoming entries are "new", shared with mutual exclusion
// across every task of a job, and persisted through an injected save
// sink rather than a hard-wired file path — this keeps the filter
// in-memory-testable, grounded on the preference for
// constructor-injected collaborators (natsclient.Client, zap.Logger)
// over package-level globals seen throughout the rest of this codebase.
package readfilter

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/arc-self/fetchd/internal/entry"
	"github.com/arc-self/fetchd/internal/ferr"
)

// Kind identifies which read-filter variant a persisted blob or config
// entry declares.
type Kind string

const (
	KindNotPresent Kind = "not_present"
	KindNewerThan  Kind = "newer_than"
)

// DefaultCapacity is the suggested NotPresent cap, carried from
// read_filter/not_present.rs's default.
const DefaultCapacity = 500

// SaveSink is invoked with the serialized state after every mutation.
// Implementations must make the write durable (e.g. write-to-temp then
// rename) before returning.
type SaveSink interface {
	Save(data []byte) error
}

// state is the variant-specific logic. All methods are called with the
// filter's lock held.
type state interface {
	kind() Kind
	removeRead(entries []entry.Entry) []entry.Entry
	markAsRead(id string)
	lastRead() (string, bool)
	marshal() json.RawMessage
}

// persisted is the on-disk/over-the-wire document shape.
type persisted struct {
	Kind  Kind            `json:"kind"`
	State json.RawMessage `json:"state"`
}

// ReadFilter is the shared, mutual-exclusion de-duplication state for
// one job (or one task, if the job has no shared tasks). Safe for
// concurrent use: readers (RemoveRead, LastRead) may run concurrently
// with each other but exclude MarkAsRead, and MarkAsRead calls exclude
// everything else.
type ReadFilter struct {
	mu    sync.RWMutex
	st    state
	saver SaveSink
}

// New creates an empty read-filter of the given kind.
func New(kind Kind, saver SaveSink) (*ReadFilter, error) {
	var st state
	switch kind {
	case KindNotPresent:
		st = newNotPresent(DefaultCapacity)
	case KindNewerThan:
		st = newNewerThan()
	default:
		return nil, ferr.NewConfigError("read-filter kind", fmt.Errorf("unknown kind %q", kind))
	}
	return &ReadFilter{st: st, saver: saver}, nil
}

// Load decodes a persisted blob and verifies its kind matches
// wantKind. A kind mismatch is a fatal ConfigError, never silently
// coerced.
func Load(data []byte, wantKind Kind, saver SaveSink) (*ReadFilter, error) {
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, ferr.NewConfigError("read-filter: decode persisted state", err)
	}
	if p.Kind != wantKind {
		return nil, ferr.NewConfigError(
			fmt.Sprintf("read-filter: persisted kind %q, configured kind %q", p.Kind, wantKind),
			ferr.ErrReadFilterKindMismatch,
		)
	}

	var st state
	switch wantKind {
	case KindNotPresent:
		np := newNotPresent(DefaultCapacity)
		if err := json.Unmarshal(p.State, np); err != nil {
			return nil, ferr.NewConfigError("read-filter: decode not_present state", err)
		}
		st = np
	case KindNewerThan:
		nt := newNewerThan()
		if err := json.Unmarshal(p.State, nt); err != nil {
			return nil, ferr.NewConfigError("read-filter: decode newer_than state", err)
		}
		st = nt
	default:
		return nil, ferr.NewConfigError("read-filter kind", fmt.Errorf("unknown kind %q", wantKind))
	}

	return &ReadFilter{st: st, saver: saver}, nil
}

// RemoveRead strips entries already marked read, preserving relative
// order. Pure function of current state: it never mutates the filter.
func (r *ReadFilter) RemoveRead(entries []entry.Entry) []entry.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.removeRead(entries)
}

// MarkAsRead idempotently records id as read and persists the new
// state through the save sink.
func (r *ReadFilter) MarkAsRead(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.markAsRead(id)
	return r.persistLocked()
}

// LastRead returns the most recently marked id, if any. Sources that
// can narrow server-side queries (e.g. Twitter since_id) may use this
// as a hint; they must not depend on it for correctness.
func (r *ReadFilter) LastRead() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.lastRead()
}

// Kind reports which variant this filter is.
func (r *ReadFilter) Kind() Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.kind()
}

func (r *ReadFilter) persistLocked() error {
	if r.saver == nil {
		return nil
	}
	data, err := json.Marshal(persisted{Kind: r.st.kind(), State: r.st.marshal()})
	if err != nil {
		return fmt.Errorf("read-filter: marshal for persistence: %w", err)
	}
	if err := r.saver.Save(data); err != nil {
		return fmt.Errorf("read-filter: save: %w", err)
	}
	return nil
}
