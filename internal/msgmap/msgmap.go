// Package msgmap implements the EntryToMessageMap: a persisted mapping
// from entry id to sink message id, used to resolve reply-threading.
// Unlike ReadFilter, a map is owned by exactly one task — no internal
// locking is required.
package msgmap

import (
	"encoding/json"
	"fmt"
)

// MessageID is the sink's identifier for a delivered message.
type MessageID int64

// SaveSink persists the serialized map after every mutation.
type SaveSink interface {
	Save(data []byte) error
}

// Map is the entry-id -> message-id mapping for one task.
type Map struct {
	enabled bool
	data    map[string]MessageID
	saver   SaveSink
}

// New creates an empty map. If enabled is false, Set and Get are no-ops
// so tasks that don't use entry_to_msg_map_enabled pay no cost.
func New(enabled bool, saver SaveSink) *Map {
	return &Map{enabled: enabled, data: make(map[string]MessageID), saver: saver}
}

// Load decodes a persisted map.
func Load(data []byte, enabled bool, saver SaveSink) (*Map, error) {
	m := New(enabled, saver)
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m.data); err != nil {
		return nil, fmt.Errorf("entry-to-msg-map: decode: %w", err)
	}
	return m, nil
}

// Set records the message id a sink returned for entryID.
func (m *Map) Set(entryID string, msgID MessageID) error {
	if !m.enabled || entryID == "" {
		return nil
	}
	m.data[entryID] = msgID
	return m.persist()
}

// Get resolves the message id a prior entry was delivered as, for
// threading a reply under it.
func (m *Map) Get(entryID string) (MessageID, bool) {
	if !m.enabled {
		return 0, false
	}
	id, ok := m.data[entryID]
	return id, ok
}

func (m *Map) persist() error {
	if m.saver == nil {
		return nil
	}
	data, err := json.Marshal(m.data)
	if err != nil {
		return fmt.Errorf("entry-to-msg-map: marshal: %w", err)
	}
	return m.saver.Save(data)
}
