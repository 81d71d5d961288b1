// Package motion drives the robot body through synchronized moves.
package motion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gwillem/pastabot/pkg/robot"
)

// ErrSettleTimeout is returned when actuators do not settle within the
// Syncer's timeout.
var ErrSettleTimeout = errors.New("actuators did not settle")

// Default Syncer timings.
const (
	DefaultPollInterval  = 5 * time.Millisecond
	DefaultSettleTimeout = 30 * time.Second
)

// Outcome is the result of waiting for a synchronized move.
type Outcome int

const (
	Settled Outcome = iota
	TimedOut
)

func (o Outcome) String() string {
	if o == TimedOut {
		return "timed out"
	}
	return "settled"
}

// Syncer waits for a set of actuators to finish their moves.
type Syncer struct {
	// Interval is the pause between two polling sweeps.
	Interval time.Duration
	// Timeout bounds the wait. Zero waits forever.
	Timeout time.Duration
	// OnSweep, if set, runs after every sweep that found a moving actuator.
	OnSweep func(ctx context.Context)

	sleep func(time.Duration)
	now   func() time.Time
}

// NewSyncer creates a Syncer with the default interval and the given timeout.
func NewSyncer(timeout time.Duration) *Syncer {
	return &Syncer{
		Interval: DefaultPollInterval,
		Timeout:  timeout,
	}
}

// Wait blocks until every actuator reports settled within the same sweep.
// Every actuator is polled on every sweep, so one that was settled earlier
// but reports moving again keeps the wait going. The Outcome is only
// meaningful when err is nil.
func (s *Syncer) Wait(ctx context.Context, actuators ...robot.Actuator) (Outcome, error) {
	now := s.now
	if now == nil {
		now = time.Now
	}
	var deadline time.Time
	if s.Timeout > 0 {
		deadline = now().Add(s.Timeout)
	}

	for {
		all := true
		for _, a := range actuators {
			settled, err := a.Settled(ctx)
			if err != nil {
				return Settled, fmt.Errorf("poll %s: %w", a.Name(), err)
			}
			if !settled {
				all = false
			}
		}
		if all {
			return Settled, nil
		}

		if !deadline.IsZero() && !now().Before(deadline) {
			return TimedOut, nil
		}
		if err := ctx.Err(); err != nil {
			return Settled, err
		}
		if s.OnSweep != nil {
			s.OnSweep(ctx)
		}
		s.pause()
	}
}

func (s *Syncer) pause() {
	if s.sleep != nil {
		s.sleep(s.Interval)
		return
	}
	if s.Interval > 0 {
		time.Sleep(s.Interval)
	}
}
