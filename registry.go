package relay

import (
	"strings"
	"sync"
	"time"

	"github.com/coregx/relay/model"
	"github.com/coregx/relay/msgid"
)

// Handle is an opaque reference to one live subscriber connection. The
// transport layer implements it and is required to call
// Registry.Unsubscribe exactly once when the connection closes or errors;
// calling it more than once is safe.
type Handle interface {
	// Send delivers one wire record to the subscriber. Delivery is
	// best-effort: an error is observed by the transport's own read loop,
	// never surfaced to publishers.
	Send(ev model.Event) error
}

// Registry is the in-memory live-subscriber fan-out table. There is one
// authoritative instance per broker; a second process would have a disjoint
// registry and must not be assumed compatible.
//
// Thread safety: safe for concurrent use. Mutation of a topic's subscriber
// set is exclusive; sends happen outside the lock.
type Registry struct {
	mu     sync.Mutex
	topics map[string]map[Handle]struct{}
	logger Logger
}

// NewRegistry creates an empty registry. A nil logger is replaced with
// NoopLogger.
func NewRegistry(logger Logger) *Registry {
	if logger == nil {
		logger = &NoopLogger{}
	}
	return &Registry{
		topics: make(map[string]map[Handle]struct{}),
		logger: logger,
	}
}

// Subscribe registers h under every topic in topics, then synchronously
// emits an "open" event to h alone, carrying the comma-joined topic list as
// subscribed. This is the only event that does not originate from a publish.
func (r *Registry) Subscribe(topics []string, h Handle) {
	r.mu.Lock()
	for _, topic := range topics {
		set, ok := r.topics[topic]
		if !ok {
			set = make(map[Handle]struct{})
			r.topics[topic] = set
		}
		set[h] = struct{}{}
	}
	r.mu.Unlock()

	joined := strings.Join(topics, ",")
	id, err := msgid.New()
	if err != nil {
		r.logger.Errorf("Failed to generate open event id: %v", err)
		return
	}
	if err := h.Send(model.NewOpenEvent(id, time.Now().Unix(), joined)); err != nil {
		r.logger.Debugf("Failed to deliver open event (topics=%s): %v", joined, err)
	}
	r.logger.Infof("Subscriber registered: topics=%s", joined)
}

// Unsubscribe removes h from every topic set it belongs to. A topic set left
// empty is dropped from the registry entirely. Safe to call for a handle
// that was never subscribed, and safe to call more than once.
func (r *Registry) Unsubscribe(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for topic, set := range r.topics {
		if _, ok := set[h]; !ok {
			continue
		}
		delete(set, h)
		if len(set) == 0 {
			delete(r.topics, topic)
		}
	}
}

// FanOut sends ev to every handle currently registered for topic.
// Fire-and-forget: a slow or failed handle is not specially handled here,
// its failure is observed via the transport's disconnect notification.
// No ordering is guaranteed between deliveries to different handles.
func (r *Registry) FanOut(topic string, ev model.Event) {
	r.mu.Lock()
	handles := make([]Handle, 0, len(r.topics[topic]))
	for h := range r.topics[topic] {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		if err := h.Send(ev); err != nil {
			r.logger.Debugf("Failed to deliver to subscriber (topic=%s): %v", topic, err)
		}
	}
	if len(handles) > 0 {
		r.logger.Debugf("Fanned out message %s to %d subscribers (topic=%s)", ev.ID, len(handles), topic)
	}
}

// Subscribers returns the number of live handles registered for topic.
func (r *Registry) Subscribers(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics[topic])
}
