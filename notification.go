package relay

import (
	"context"

	"github.com/coregx/relay/model"
)

// NotificationService defines an optional interface for observing broker
// events. Implementations might feed metrics, audit logs, or alerting
// systems. Callbacks run inline on the publish/sweep path and must be cheap;
// their errors are logged and never affect the operation that triggered them.
type NotificationService interface {
	// NotifyMessagePublished is called after a message is durably recorded
	// and fanned out.
	NotifyMessagePublished(ctx context.Context, m model.Message) error

	// NotifySweepCompleted is called after an expiry sweep, with the number
	// of deleted rows.
	NotifySweepCompleted(ctx context.Context, deleted int) error
}

// NoOpNotificationService is a no-op implementation of NotificationService.
// Use this when notifications are not needed.
type NoOpNotificationService struct{}

// NotifyMessagePublished does nothing.
func (n *NoOpNotificationService) NotifyMessagePublished(_ context.Context, _ model.Message) error {
	return nil
}

// NotifySweepCompleted does nothing.
func (n *NoOpNotificationService) NotifySweepCompleted(_ context.Context, _ int) error {
	return nil
}

// LoggingNotificationService is a simple implementation that logs events.
type LoggingNotificationService struct {
	logger Logger
}

// NewLoggingNotificationService creates a new LoggingNotificationService.
func NewLoggingNotificationService(logger Logger) *LoggingNotificationService {
	return &LoggingNotificationService{logger: logger}
}

// NotifyMessagePublished logs the published message.
func (n *LoggingNotificationService) NotifyMessagePublished(_ context.Context, m model.Message) error {
	n.logger.Infof("Message published: id=%s, topic=%s, priority=%d", m.ID, m.Topic, m.Priority)
	return nil
}

// NotifySweepCompleted logs the sweep result.
func (n *LoggingNotificationService) NotifySweepCompleted(_ context.Context, deleted int) error {
	if deleted > 0 {
		n.logger.Infof("Expiry sweep removed %d messages", deleted)
	}
	return nil
}
