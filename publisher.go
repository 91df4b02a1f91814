package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/coregx/relay/model"
	"github.com/coregx/relay/msgid"
)

// Publisher is the publish pipeline: it stamps identity and timestamps,
// persists via the message repository, fans out via the registry, and
// returns the canonical record. A message is never delivered live without
// also being durably recorded, but it can be recorded with zero live
// recipients.
type Publisher struct {
	messages      MessageRepository
	registry      *Registry
	logger        Logger
	notifications NotificationService
	now           func() time.Time
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher) error

// NewPublisher creates a new Publisher with the provided options.
//
// Required options:
//   - WithPublisherRepository: message repository
//   - WithPublisherRegistry: live-subscriber registry
//   - WithPublisherLogger: logger instance
//
// Optional options:
//   - WithPublisherNotifications: observer callbacks (default: no-op)
//   - WithPublisherClock: time source (default: time.Now)
func NewPublisher(opts ...PublisherOption) (*Publisher, error) {
	p := &Publisher{
		notifications: &NoOpNotificationService{},
		now:           time.Now,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply publisher option", err)
		}
	}

	// Validate required dependencies
	if p.messages == nil {
		return nil, NewError(ErrCodeConfiguration, "MessageRepository is required (use WithPublisherRepository)")
	}
	if p.registry == nil {
		return nil, NewError(ErrCodeConfiguration, "Registry is required (use WithPublisherRegistry)")
	}
	if p.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithPublisherLogger)")
	}

	return p, nil
}

// WithPublisherRepository sets the required message repository.
func WithPublisherRepository(messages MessageRepository) PublisherOption {
	return func(p *Publisher) error {
		if messages == nil {
			return fmt.Errorf("messages cannot be nil")
		}
		p.messages = messages
		return nil
	}
}

// WithPublisherRegistry sets the required live-subscriber registry.
func WithPublisherRegistry(registry *Registry) PublisherOption {
	return func(p *Publisher) error {
		if registry == nil {
			return fmt.Errorf("registry cannot be nil")
		}
		p.registry = registry
		return nil
	}
}

// WithPublisherLogger sets the logger instance.
func WithPublisherLogger(logger Logger) PublisherOption {
	return func(p *Publisher) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		p.logger = logger
		return nil
	}
}

// WithPublisherNotifications sets an optional notification service.
func WithPublisherNotifications(service NotificationService) PublisherOption {
	return func(p *Publisher) error {
		if service == nil {
			return fmt.Errorf("notification service cannot be nil")
		}
		p.notifications = service
		return nil
	}
}

// WithPublisherClock sets the time source. Intended for tests.
func WithPublisherClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		p.now = now
		return nil
	}
}

// PublishRequest represents a request to publish a message. The topic is
// already validated by the gateway; the core never receives an invalid one.
type PublishRequest struct {
	Topic    string // Topic to publish to
	Priority int    // 1-5; 0 means unspecified (defaults to 3)
	Body     string // Opaque message text; empty is coerced to "triggered"
}

// Publish runs the publish pipeline and returns the committed record, which
// the gateway echoes as the publish acknowledgment.
//
// The steps are atomic from the caller's perspective:
//  1. Validate the priority; on failure nothing is written, nothing fans out.
//  2. Generate the id and stamp time and expiry.
//  3. Append to the message repository.
//  4. Fan out the wire record to live subscribers of the topic.
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (model.Message, error) {
	priority := req.Priority
	if priority == 0 {
		priority = model.DefaultPriority
	}
	if !model.ValidPriority(priority) {
		return model.Message{}, ErrInvalidPriority
	}

	id, err := msgid.New()
	if err != nil {
		return model.Message{}, fmt.Errorf("failed to generate message id: %w", err)
	}

	message := model.NewMessage(id, req.Topic, priority, req.Body, p.now())
	message, err = p.messages.Append(ctx, message)
	if err != nil {
		return model.Message{}, err
	}

	p.registry.FanOut(message.Topic, model.NewMessageEvent(message))

	p.logger.Infof("Message published: id=%s, topic=%s, priority=%d", message.ID, message.Topic, message.Priority)
	if err := p.notifications.NotifyMessagePublished(ctx, message); err != nil {
		p.logger.Warnf("Publish notification failed: %v", err)
	}

	return message, nil
}
