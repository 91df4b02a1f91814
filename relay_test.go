package relay

import (
	"context"
	"sort"
	"sync"

	"github.com/coregx/relay/model"
)

// memRepo is an in-memory MessageRepository for service tests. It mirrors
// the store contract: (id, topic) uniqueness, time-ordered topic queries,
// ErrNoData on empty results.
type memRepo struct {
	mu        sync.Mutex
	rows      []model.Message
	appendErr error
}

func (r *memRepo) Append(_ context.Context, m model.Message) (model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return m, r.appendErr
	}
	for _, row := range r.rows {
		if row.ID == m.ID && row.Topic == m.Topic {
			return m, NewError(ErrCodeConstraint, "message key already exists")
		}
	}
	r.rows = append(r.rows, m)
	return m, nil
}

func (r *memRepo) FindByTopic(_ context.Context, topic string, since int64) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Message
	for _, row := range r.rows {
		if row.Topic == topic && row.Time >= since {
			out = append(out, row)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func (r *memRepo) TimeOfMessage(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			return row.Time, nil
		}
	}
	return 0, ErrNoData
}

func (r *memRepo) DeleteExpired(_ context.Context, now int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	deleted := 0
	for _, row := range r.rows {
		if row.Expires < now {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return deleted, nil
}

func (r *memRepo) messages() []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Message, len(r.rows))
	copy(out, r.rows)
	return out
}

// recordingHandle captures delivered events.
type recordingHandle struct {
	mu      sync.Mutex
	events  []model.Event
	sendErr error
}

func (h *recordingHandle) Send(ev model.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sendErr != nil {
		return h.sendErr
	}
	h.events = append(h.events, ev)
	return nil
}

func (h *recordingHandle) received() []model.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.Event, len(h.events))
	copy(out, h.events)
	return out
}
