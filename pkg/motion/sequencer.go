package motion

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gwillem/pastabot/pkg/robot"
)

// State is a snapshot published after every synchronized move.
type State struct {
	Phase     string
	Positions map[robot.Role]int
	Timestamp time.Time
	Error     error
}

// Config holds the constants of the move routine.
type Config struct {
	Speed         int
	Step          int
	Repetitions   int
	SettleTimeout time.Duration
}

// ConfigFrom builds a sequencer Config from the robot configuration.
func ConfigFrom(m robot.MotionConfig, settleTimeout time.Duration) Config {
	return Config{
		Speed:         m.Speed,
		Step:          m.Step,
		Repetitions:   m.Repetitions,
		SettleTimeout: settleTimeout,
	}
}

// Sequencer runs the robot's move routine: home, oscillate, home.
type Sequencer struct {
	body   *robot.Body
	syncer *Syncer
	cfg    Config
	logger logrus.FieldLogger

	sampleEvery time.Duration
	lastSample  time.Time

	stateCh chan State
	logCh   chan string
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLogger sets the logger used for routine progress.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Sequencer) {
		s.logger = l
	}
}

// WithSyncer replaces the default Syncer.
func WithSyncer(sy *Syncer) Option {
	return func(s *Sequencer) {
		s.syncer = sy
	}
}

// WithSampling publishes position snapshots while waiting for a move, at
// most once per every.
func WithSampling(every time.Duration) Option {
	return func(s *Sequencer) {
		s.sampleEvery = every
	}
}

// NewSequencer creates a sequencer for body. The body must have been started.
func NewSequencer(body *robot.Body, cfg Config, opts ...Option) *Sequencer {
	if cfg.Speed <= 0 {
		cfg.Speed = robot.DefaultSpeed
	}
	if cfg.Step == 0 {
		cfg.Step = robot.DefaultStep
	}
	if cfg.Repetitions <= 0 {
		cfg.Repetitions = robot.DefaultRepetitions
	}

	s := &Sequencer{
		body:    body,
		syncer:  NewSyncer(cfg.SettleTimeout),
		cfg:     cfg,
		logger:  logrus.StandardLogger(),
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sampleEvery > 0 {
		sy := *s.syncer
		sy.OnSweep = s.sample
		s.syncer = &sy
	}
	return s
}

// States returns a channel that receives state updates.
func (s *Sequencer) States() <-chan State {
	return s.stateCh
}

// Logs returns a channel that receives log messages.
func (s *Sequencer) Logs() <-chan string {
	return s.logCh
}

// Config returns the routine constants in use.
func (s *Sequencer) Config() Config {
	return s.cfg
}

// Run performs the full routine and returns once the robot is back home.
func (s *Sequencer) Run(ctx context.Context) error {
	start := time.Now()
	s.log("Routine started")

	if err := s.Home(ctx); err != nil {
		return err
	}
	for i := 0; i < s.cfg.Repetitions; i++ {
		if err := s.Oscillate(ctx); err != nil {
			return fmt.Errorf("repetition %d: %w", i+1, err)
		}
	}
	if err := s.Home(ctx); err != nil {
		return err
	}

	s.log("Routine finished in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// Home moves both actuators to position 0 and waits for them.
func (s *Sequencer) Home(ctx context.Context) error {
	return s.moveAll(ctx, "home", map[robot.Role]robot.Move{
		robot.Left:  {Position: 0, Speed: s.cfg.Speed, Stop: robot.Coast},
		robot.Right: {Position: 0, Speed: s.cfg.Speed, Stop: robot.Coast},
	})
}

// Oscillate performs one two-phase reciprocal move.
func (s *Sequencer) Oscillate(ctx context.Context) error {
	step := s.cfg.Step
	err := s.moveAll(ctx, "swing-a", map[robot.Role]robot.Move{
		robot.Left:  {Position: step, Speed: s.cfg.Speed, Stop: robot.Brake},
		robot.Right: {Position: -step, Speed: s.cfg.Speed, Stop: robot.Brake},
	})
	if err != nil {
		return err
	}
	return s.moveAll(ctx, "swing-b", map[robot.Role]robot.Move{
		robot.Left:  {Position: -step, Speed: s.cfg.Speed, Stop: robot.Brake},
		robot.Right: {Position: step, Speed: s.cfg.Speed, Stop: robot.Brake},
	})
}

func (s *Sequencer) moveAll(ctx context.Context, phase string, moves map[robot.Role]robot.Move) error {
	actuators := make([]robot.Actuator, 0, len(moves))
	for _, role := range robot.AllRoles() {
		m, ok := moves[role]
		if !ok {
			continue
		}
		a := s.body.Actuator(role)
		if err := a.MoveToAbs(ctx, m); err != nil {
			s.halt()
			return fmt.Errorf("%s: move %s: %w", phase, role, err)
		}
		actuators = append(actuators, a)
	}

	outcome, err := s.syncer.Wait(ctx, actuators...)
	if err == nil && outcome == TimedOut {
		err = fmt.Errorf("%s after %s: %w", phase, s.syncer.Timeout, ErrSettleTimeout)
	} else if err != nil {
		err = fmt.Errorf("%s: %w", phase, err)
	}
	if err != nil {
		s.halt()
		s.sendState(State{Phase: phase, Timestamp: time.Now(), Error: err})
		return err
	}

	s.logger.WithField("phase", phase).Debug("phase settled")
	s.publish(ctx, phase)
	return nil
}

// halt stops every actuator after a failed move. It uses a fresh context so
// that a cancelled request still leaves the motors stopped.
func (s *Sequencer) halt() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.body.Reset(ctx); err != nil {
		s.logger.WithError(err).Warn("halt failed")
		s.log("Warning: halt failed: %v", err)
	}
}

func (s *Sequencer) sample(ctx context.Context) {
	if time.Since(s.lastSample) < s.sampleEvery {
		return
	}
	s.lastSample = time.Now()
	s.publish(ctx, "moving")
}

func (s *Sequencer) publish(ctx context.Context, phase string) {
	positions, err := s.body.Positions(ctx)
	if err != nil {
		s.sendState(State{Phase: phase, Timestamp: time.Now(), Error: err})
		return
	}
	s.sendState(State{
		Phase:     phase,
		Positions: positions,
		Timestamp: time.Now(),
	})
}

func (s *Sequencer) log(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.logger.Info(msg)
	select {
	case s.logCh <- fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg):
	default:
		// Drop if channel full
	}
}

func (s *Sequencer) sendState(st State) {
	select {
	case s.stateCh <- st:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-s.stateCh:
		default:
		}
		select {
		case s.stateCh <- st:
		default:
		}
	}
}
