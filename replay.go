package relay

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/coregx/relay/model"
)

// Selector lengths that pick the absolute interpretations. The
// disambiguation is intentional and exact: a 10-character numeric string is
// always a Unix timestamp, a 12-character string is always a message id,
// regardless of whether either would parse as the other kind.
const (
	timestampSelectorLen = 10
	idSelectorLen        = 12
)

// durationSelector matches relative selectors such as "30s", "15m", "2h"
// and "1d" (case-insensitive).
var durationSelector = regexp.MustCompile(`(?i)^([1-9]\d*)([smhd])$`)

var unitSeconds = map[string]int64{
	"s": 1,
	"m": 60,
	"h": 3600,
	"d": 86400,
}

// ReplayEngine resolves a client-supplied "since" selector into a concrete
// time lower bound and returns matching log entries in publish order.
type ReplayEngine struct {
	messages MessageRepository
	logger   Logger
	now      func() time.Time
}

// ReplayOption configures a ReplayEngine.
type ReplayOption func(*ReplayEngine) error

// NewReplayEngine creates a new ReplayEngine with the provided options.
//
// Required options:
//   - WithReplayRepository: message repository
//   - WithReplayLogger: logger instance
//
// Optional options:
//   - WithReplayClock: time source for relative selectors (default: time.Now)
func NewReplayEngine(opts ...ReplayOption) (*ReplayEngine, error) {
	e := &ReplayEngine{now: time.Now}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply replay option", err)
		}
	}

	if e.messages == nil {
		return nil, NewError(ErrCodeConfiguration, "MessageRepository is required (use WithReplayRepository)")
	}
	if e.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithReplayLogger)")
	}

	return e, nil
}

// WithReplayRepository sets the required message repository.
func WithReplayRepository(messages MessageRepository) ReplayOption {
	return func(e *ReplayEngine) error {
		if messages == nil {
			return fmt.Errorf("messages cannot be nil")
		}
		e.messages = messages
		return nil
	}
}

// WithReplayLogger sets the logger instance.
func WithReplayLogger(logger Logger) ReplayOption {
	return func(e *ReplayEngine) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		e.logger = logger
		return nil
	}
}

// WithReplayClock sets the time source. Intended for tests.
func WithReplayClock(now func() time.Time) ReplayOption {
	return func(e *ReplayEngine) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		e.now = now
		return nil
	}
}

// Replay returns the messages of topic selected by since, ordered by
// ascending publish time. Selector forms, in this exact precedence (first
// match wins):
//
//  1. empty or "all": every message for the topic
//  2. exactly 10 characters: absolute Unix timestamp, time >= since
//  3. exactly 12 characters: message id; resolves to that message's
//     publish time, then time >= that value; an unknown id yields an
//     empty result, not an error
//  4. "<n><s|m|h|d>": relative duration, time >= now - n*unit
//  5. anything else: empty result, not an error
//
// An empty topic log yields an empty slice for every valid selector form.
func (e *ReplayEngine) Replay(ctx context.Context, topic, since string) ([]model.Message, error) {
	bound, ok, err := e.resolve(ctx, since)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.Message{}, nil
	}

	messages, err := e.messages.FindByTopic(ctx, topic, bound)
	if err != nil {
		if IsNoData(err) {
			return []model.Message{}, nil
		}
		return nil, err
	}
	return messages, nil
}

// resolve turns a selector into a time lower bound. ok=false means the
// selector matched nothing and the query must yield an empty result.
func (e *ReplayEngine) resolve(ctx context.Context, since string) (bound int64, ok bool, err error) {
	switch {
	case since == "" || since == "all":
		return 0, true, nil

	case len(since) == timestampSelectorLen:
		ts, perr := strconv.ParseInt(since, 10, 64)
		if perr != nil {
			e.logger.Debugf("Unparseable timestamp selector %q", since)
			return 0, false, nil
		}
		return ts, true, nil

	case len(since) == idSelectorLen:
		t, lerr := e.messages.TimeOfMessage(ctx, since)
		if lerr != nil {
			if IsNoData(lerr) {
				return 0, false, nil
			}
			return 0, false, lerr
		}
		return t, true, nil
	}

	if m := durationSelector.FindStringSubmatch(since); m != nil {
		n, perr := strconv.ParseInt(m[1], 10, 64)
		if perr != nil {
			return 0, false, nil
		}
		return e.now().Unix() - n*unitSeconds[normalizeUnit(m[2])], true, nil
	}

	e.logger.Debugf("Unrecognized since selector %q", since)
	return 0, false, nil
}

func normalizeUnit(u string) string {
	switch u {
	case "S":
		return "s"
	case "M":
		return "m"
	case "H":
		return "h"
	case "D":
		return "d"
	}
	return u
}
