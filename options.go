package relay

import (
	"fmt"
	"time"
)

// Option is a function that configures a Sweeper.
//
// Example:
//
//	sweeper, err := relay.NewSweeper(
//	    relay.WithSweeperRepository(messages),
//	    relay.WithSweeperLogger(logger),
//	)
type Option func(*Sweeper) error

// WithSweeperRepository sets the required message repository.
func WithSweeperRepository(messages MessageRepository) Option {
	return func(s *Sweeper) error {
		if messages == nil {
			return fmt.Errorf("messages cannot be nil")
		}
		s.messages = messages
		return nil
	}
}

// WithSweeperLogger sets the logger instance.
func WithSweeperLogger(logger Logger) Option {
	return func(s *Sweeper) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithSweeperNotifications sets an optional notification service, called
// after every completed sweep.
func WithSweeperNotifications(service NotificationService) Option {
	return func(s *Sweeper) error {
		if service == nil {
			return fmt.Errorf("notification service cannot be nil")
		}
		s.notifications = service
		return nil
	}
}

// WithSweeperClock sets the time source. Intended for tests.
func WithSweeperClock(now func() time.Time) Option {
	return func(s *Sweeper) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		s.now = now
		return nil
	}
}
