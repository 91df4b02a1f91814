// Package model contains the domain entities and wire records of the relay.
package model

import "time"

// Priority bounds and default. A publish without a priority gets
// DefaultPriority; anything outside [MinPriority, MaxPriority] is rejected
// before persistence.
const (
	MinPriority     = 1
	DefaultPriority = 3
	MaxPriority     = 5
)

// Retention is the fixed time-to-live of a message. Expiry is stamped at
// construction and never mutated afterwards.
const Retention = 12 * time.Hour

// DefaultBody replaces an empty publish body.
const DefaultBody = "triggered"

// tablePrefix is the default database table name prefix.
const tablePrefix = "relay_"

// Message is the sole persisted entity: one published notification.
// Messages are immutable once created. The (ID, Topic) pair is the storage
// key; topics themselves are not stored, they exist only as a grouping value
// on message rows.
type Message struct {
	ID       string `json:"id"`       // 12-char base62 message id
	Time     int64  `json:"time"`     // Publish time, Unix seconds
	Expires  int64  `json:"expires"`  // Time + Retention, Unix seconds
	Topic    string `json:"topic"`    // Topic this message belongs to
	Priority int    `json:"priority"` // 1-5, default 3
	Message  string `json:"message"`  // Opaque body
}

// TableName returns the database table name for Message.
func (m Message) TableName() string {
	return tablePrefix + "message"
}

// NewMessage creates a message record for publication, stamping publish time
// and expiry and applying the empty-body coercion. The caller supplies a
// pre-validated priority and a freshly generated id.
func NewMessage(id, topic string, priority int, body string, now time.Time) Message {
	if body == "" {
		body = DefaultBody
	}
	t := now.Unix()
	return Message{
		ID:       id,
		Time:     t,
		Expires:  t + int64(Retention/time.Second),
		Topic:    topic,
		Priority: priority,
		Message:  body,
	}
}

// ValidPriority reports whether p is within the accepted priority range.
func ValidPriority(p int) bool {
	return p >= MinPriority && p <= MaxPriority
}
