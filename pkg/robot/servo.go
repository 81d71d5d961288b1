package robot

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// SettleTolerance is how far, in raw steps, a servo may rest from its target
// and still count as settled.
const SettleTolerance = 12

// servoDriver is the part of a Feetech servo that Servo drives.
type servoDriver interface {
	Position(ctx context.Context) (int, error)
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	SetPosition(ctx context.Context, position int) error
	SetPositionWithTime(ctx context.Context, position, timeMs int) error
}

// Servo is an Actuator backed by a Feetech STS servo.
type Servo struct {
	servo     servoDriver
	cal       ActuatorCalibration
	connected bool

	target int
	stop   StopPolicy
	state  MotionState
	torque bool
}

// NewServo wraps a servo found on the bus.
func NewServo(bus *feetech.Bus, found feetech.FoundServo, cal ActuatorCalibration) *Servo {
	return newServo(feetech.NewServo(bus, found.ID, found.Model), cal)
}

func newServo(driver servoDriver, cal ActuatorCalibration) *Servo {
	return &Servo{
		servo:     driver,
		cal:       cal,
		connected: true,
	}
}

func missingServo(cal ActuatorCalibration) *Servo {
	return &Servo{cal: cal}
}

func (s *Servo) Name() string {
	return "servo " + strconv.Itoa(s.cal.ID)
}

func (s *Servo) Connected() bool {
	return s.connected
}

func (s *Servo) MoveToAbs(ctx context.Context, m Move) error {
	if !s.connected {
		return ErrNotConnected
	}

	current, err := s.Position(ctx)
	if err != nil {
		return err
	}

	if !s.torque {
		if err := s.servo.Enable(ctx); err != nil {
			return fmt.Errorf("enable torque: %w", err)
		}
		s.torque = true
	}

	ms := MoveTime(m.Position-current, m.Speed)
	if err := s.servo.SetPositionWithTime(ctx, s.cal.ToRaw(m.Position), ms); err != nil {
		return fmt.Errorf("set position: %w", err)
	}

	s.target = m.Position
	s.stop = m.Stop
	s.state = Moving
	return nil
}

func (s *Servo) Settled(ctx context.Context) (bool, error) {
	if !s.connected {
		return false, ErrNotConnected
	}
	if s.state != Moving {
		return true, nil
	}

	raw, err := s.servo.Position(ctx)
	if err != nil {
		return false, fmt.Errorf("read position: %w", err)
	}
	if diff := raw - s.cal.ToRaw(s.target); diff > SettleTolerance || diff < -SettleTolerance {
		return false, nil
	}

	if s.stop == Coast {
		if err := s.servo.Disable(ctx); err != nil {
			return false, fmt.Errorf("disable torque: %w", err)
		}
		s.torque = false
	}
	s.state = Stopped
	return true, nil
}

func (s *Servo) Position(ctx context.Context) (int, error) {
	if !s.connected {
		return 0, ErrNotConnected
	}
	raw, err := s.servo.Position(ctx)
	if err != nil {
		return 0, fmt.Errorf("read position: %w", err)
	}
	return s.cal.FromRaw(raw), nil
}

// ResetAndStop cycles torque to clear overload protection, then holds the
// servo where it stands.
func (s *Servo) ResetAndStop(ctx context.Context) error {
	if !s.connected {
		return ErrNotConnected
	}
	if err := s.servo.Disable(ctx); err != nil {
		return fmt.Errorf("disable torque: %w", err)
	}
	raw, err := s.servo.Position(ctx)
	if err != nil {
		return fmt.Errorf("read position: %w", err)
	}
	if err := s.servo.Enable(ctx); err != nil {
		return fmt.Errorf("enable torque: %w", err)
	}
	if err := s.servo.SetPosition(ctx, raw); err != nil {
		return fmt.Errorf("hold position: %w", err)
	}

	s.target = s.cal.FromRaw(raw)
	s.state = Idle
	s.torque = true
	return nil
}
