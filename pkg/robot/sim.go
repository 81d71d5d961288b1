package robot

import (
	"context"
	"math"
	"sync"
	"time"
)

// Sim is an in-process Actuator that travels at the commanded speed.
// It is used for --sim runs and for tests.
type Sim struct {
	mu sync.Mutex

	name      string
	connected bool
	scale     float64
	now       func() time.Time

	from    int
	target  int
	speed   int
	started time.Time
	state   MotionState
	moves   []Move
	resets  int
}

// SimOption configures a Sim.
type SimOption func(*Sim)

// WithTimeScale makes simulated time run factor times faster than wall time.
func WithTimeScale(factor float64) SimOption {
	return func(s *Sim) {
		if factor > 0 {
			s.scale = factor
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) SimOption {
	return func(s *Sim) {
		s.now = now
	}
}

// Disconnected makes the Sim behave like an unplugged motor.
func Disconnected() SimOption {
	return func(s *Sim) {
		s.connected = false
	}
}

// NewSim creates a simulated actuator resting at home.
func NewSim(name string, opts ...SimOption) *Sim {
	s := &Sim{
		name:      name,
		connected: true,
		scale:     1,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sim) Name() string {
	return s.name
}

func (s *Sim) Connected() bool {
	return s.connected
}

func (s *Sim) MoveToAbs(ctx context.Context, m Move) error {
	if !s.connected {
		return ErrNotConnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.from = s.positionLocked()
	s.target = m.Position
	s.speed = m.Speed
	s.started = s.now()
	s.state = Moving
	s.moves = append(s.moves, m)
	return nil
}

func (s *Sim) Settled(ctx context.Context) (bool, error) {
	if !s.connected {
		return false, ErrNotConnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Moving && s.positionLocked() == s.target {
		s.from = s.target
		s.state = Stopped
	}
	return s.state != Moving, nil
}

func (s *Sim) Position(ctx context.Context) (int, error) {
	if !s.connected {
		return 0, ErrNotConnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked(), nil
}

func (s *Sim) ResetAndStop(ctx context.Context) error {
	if !s.connected {
		return ErrNotConnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.from = s.positionLocked()
	s.target = s.from
	s.state = Idle
	s.resets++
	return nil
}

// Moves returns every move commanded so far.
func (s *Sim) Moves() []Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Move(nil), s.moves...)
}

// Resets returns how many times ResetAndStop was called.
func (s *Sim) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

func (s *Sim) positionLocked() int {
	if s.state != Moving || s.speed <= 0 {
		if s.state == Moving {
			return s.target
		}
		return s.from
	}

	elapsed := s.now().Sub(s.started).Seconds() * s.scale
	travelled := int(math.Floor(elapsed*float64(s.speed) + 1e-6))
	dist := s.target - s.from
	switch {
	case dist >= 0 && travelled >= dist, dist < 0 && travelled >= -dist:
		return s.target
	case dist >= 0:
		return s.from + travelled
	default:
		return s.from - travelled
	}
}
