package model

// Event kinds carried in the "event" field of a wire record.
const (
	EventOpen    = "open"
	EventMessage = "message"
)

// Event is the exact JSON shape delivered to clients, distinct from the
// stored Message row. Zero-valued fields are omitted, which encodes two wire
// rules: an "open" event carries only id, time, event and topic, and a
// "message" event omits the priority field entirely when the priority equals
// the default (NewMessageEvent zeroes it; 0 is never a valid priority).
type Event struct {
	ID       string `json:"id"`
	Time     int64  `json:"time"`
	Expires  int64  `json:"expires,omitempty"`
	Event    string `json:"event"`
	Topic    string `json:"topic"`
	Message  string `json:"message,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

// NewMessageEvent builds the wire record for a published message. The same
// shape serves live fan-out, replay query lines and the publish ack.
func NewMessageEvent(m Message) Event {
	priority := m.Priority
	if priority == DefaultPriority {
		priority = 0
	}
	return Event{
		ID:       m.ID,
		Time:     m.Time,
		Expires:  m.Expires,
		Event:    EventMessage,
		Topic:    m.Topic,
		Message:  m.Message,
		Priority: priority,
	}
}

// NewOpenEvent builds the greeting sent to a subscriber right after it is
// registered. The topic field carries the comma-joined topic list exactly as
// subscribed.
func NewOpenEvent(id string, now int64, topics string) Event {
	return Event{
		ID:    id,
		Time:  now,
		Event: EventOpen,
		Topic: topics,
	}
}
