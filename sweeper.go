package relay

import (
	"context"
	"time"
)

// Sweeper deletes message rows past their retention deadline. Sweeping is
// independent of publish and query traffic; it never blocks them beyond
// normal store-level serialization.
//
// A row is visible to replay queries until a sweep observes its expiry, at
// which point it is permanently deleted. No soft delete, no tombstone.
type Sweeper struct {
	messages      MessageRepository
	logger        Logger
	notifications NotificationService
	now           func() time.Time
}

// NewSweeper creates a new Sweeper with the provided options.
//
// Required options:
//   - WithSweeperRepository: message repository
//   - WithSweeperLogger: logger instance
//
// Optional options:
//   - WithSweeperNotifications: observer callbacks (default: no-op)
//   - WithSweeperClock: time source (default: time.Now)
func NewSweeper(opts ...Option) (*Sweeper, error) {
	s := &Sweeper{
		notifications: &NoOpNotificationService{},
		now:           time.Now,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply sweeper option", err)
		}
	}

	if s.messages == nil {
		return nil, NewError(ErrCodeConfiguration, "MessageRepository is required (use WithSweeperRepository)")
	}
	if s.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithSweeperLogger)")
	}

	return s, nil
}

// Sweep deletes every row whose expiry deadline lies before the current
// time. Idempotent. Returns the number of deleted rows.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	deleted, err := s.messages.DeleteExpired(ctx, s.now().Unix())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Infof("Swept %d expired messages", deleted)
	}
	if nerr := s.notifications.NotifySweepCompleted(ctx, deleted); nerr != nil {
		s.logger.Warnf("Sweep notification failed: %v", nerr)
	}
	return deleted, nil
}

// Run sweeps once immediately, clearing any backlog from downtime, and then
// on every tick of interval until the context is canceled. Any cadence that
// runs at least once per retention window keeps the store bounded.
//
// This method blocks and should typically be run in a goroutine.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	s.logger.Infof("Expiry sweeper started (interval: %s)", interval)

	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Errorf("Startup sweep failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("Expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Errorf("Sweep failed: %v", err)
			}
		}
	}
}
