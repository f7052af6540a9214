package readfilter

import (
	"encoding/json"

	"github.com/arc-self/fetchd/internal/entry"
)

// notPresent is an ordered, capacity-bounded set of the last K ids
// seen: "read" means present in the set. Oldest ids are evicted FIFO
// once the cap is exceeded.
type notPresent struct {
	cap   int
	order []string
	set   map[string]struct{}
}

func newNotPresent(capacity int) *notPresent {
	return &notPresent{
		cap: capacity,
		set: make(map[string]struct{}),
	}
}

func (n *notPresent) kind() Kind { return KindNotPresent }

func (n *notPresent) removeRead(entries []entry.Entry) []entry.Entry {
	out := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID != "" && n.isRead(e.ID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

type notPresentJSON struct {
	Capacity int      `json:"capacity"`
	Order    []string `json:"order"`
}

func (n *notPresent) marshal() json.RawMessage {
	data, _ := json.Marshal(notPresentJSON{Capacity: n.cap, Order: append([]string(nil), n.order...)})
	return data
}

func (n *notPresent) UnmarshalJSON(data []byte) error {
	var j notPresentJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if j.Capacity <= 0 {
		j.Capacity = DefaultCapacity
	}
	n.cap = j.Capacity
	n.order = j.Order
	n.set = make(map[string]struct{}, len(j.Order))
	for _, id := range j.Order {
		n.set[id] = struct{}{}
	}
	return nil
}

func (n *notPresent) isRead(id string) bool {
	_, ok := n.set[id]
	return ok
}

func (n *notPresent) markAsRead(id string) {
	if n.isRead(id) {
		return
	}
	n.order = append(n.order, id)
	n.set[id] = struct{}{}
	for n.cap > 0 && len(n.order) > n.cap {
		evicted := n.order[0]
		n.order = n.order[1:]
		delete(n.set, evicted)
	}
}

func (n *notPresent) lastRead() (string, bool) {
	if len(n.order) == 0 {
		return "", false
	}
	return n.order[len(n.order)-1], true
}
