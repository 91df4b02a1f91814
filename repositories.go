package relay

import (
	"context"

	"github.com/coregx/relay/model"
)

// MessageRepository defines the persistence interface for the message log.
// The log is append-only: rows are created once at publish time, read by
// replay queries, and destroyed only by the expiry sweep.
//
// Implementations must be safe for concurrent use and must enforce the
// (id, topic) primary key.
type MessageRepository interface {
	// Append persists a fully-populated message record.
	// Returns an ErrCodeConstraint error if (id, topic) already exists.
	Append(ctx context.Context, m model.Message) (model.Message, error)

	// FindByTopic retrieves all messages for a topic with time >= since,
	// ordered by ascending publish time. A since of 0 matches every row.
	// Returns ErrNoData if nothing matches.
	FindByTopic(ctx context.Context, topic string, since int64) ([]model.Message, error)

	// TimeOfMessage resolves a message id to its publish time.
	// The lookup is deliberately not scoped to a topic; the caller's
	// subsequent topic filter provides the scoping.
	// Returns ErrNoData if no message has that id.
	TimeOfMessage(ctx context.Context, id string) (int64, error)

	// DeleteExpired removes every row with expires < now. Idempotent.
	// Returns the number of deleted rows.
	DeleteExpired(ctx context.Context, now int64) (int, error)
}
