package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSweeper_RequiresDependencies(t *testing.T) {
	_, err := NewSweeper(WithSweeperLogger(&NoopLogger{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MessageRepository is required")
}

func TestSweeper_SweepDeletesOnlyExpired(t *testing.T) {
	now := time.Unix(1700000000, 0)
	repo := &memRepo{}
	seedMessage(repo, "AAAAAAAAAAAA", "alerts", now.Unix()-50000) // expires now-6800: gone
	seedMessage(repo, "BBBBBBBBBBBB", "alerts", now.Unix()-40000) // expires now+3200: kept
	seedMessage(repo, "CCCCCCCCCCCC", "ops", now.Unix()-100)      // kept

	sweeper, err := NewSweeper(
		WithSweeperRepository(repo),
		WithSweeperLogger(&NoopLogger{}),
		WithSweeperClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	deleted, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	for _, row := range repo.messages() {
		assert.GreaterOrEqual(t, row.Expires, now.Unix())
	}

	// idempotent: a second sweep at the same instant deletes nothing
	deleted, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSweeper_RunSweepsAtStartup(t *testing.T) {
	now := time.Unix(1700000000, 0)
	repo := &memRepo{}
	seedMessage(repo, "AAAAAAAAAAAA", "alerts", now.Unix()-50000)

	sweeper, err := NewSweeper(
		WithSweeperRepository(repo),
		WithSweeperLogger(&NoopLogger{}),
		WithSweeperClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx, time.Hour)
		close(done)
	}()

	// the startup sweep clears the backlog without waiting for a tick
	assert.Eventually(t, func() bool {
		return len(repo.messages()) == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
}
