package robot

import (
	"context"
	"errors"
)

// ErrNotConnected is returned when a required actuator did not answer at startup.
var ErrNotConnected = errors.New("actuator not connected")

// StopPolicy is applied by an actuator when it reaches its target.
type StopPolicy int

const (
	// Coast releases the motor once the target is reached.
	Coast StopPolicy = iota
	// Brake holds the motor at the target.
	Brake
)

func (p StopPolicy) String() string {
	switch p {
	case Brake:
		return "brake"
	default:
		return "coast"
	}
}

// MotionState is the coarse state of an actuator.
type MotionState int

const (
	Idle MotionState = iota
	Moving
	Stopped
)

func (s MotionState) String() string {
	switch s {
	case Moving:
		return "moving"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Move is a single absolute move request for one actuator.
type Move struct {
	Position int
	Speed    int
	Stop     StopPolicy
}

// Actuator is one position-controlled motor.
//
// MoveToAbs only issues the request; callers wait for completion by polling
// Settled.
type Actuator interface {
	// Name identifies the actuator in logs (port or servo ID).
	Name() string
	// Connected reports whether the device answered when it was opened.
	Connected() bool
	MoveToAbs(ctx context.Context, m Move) error
	// Settled reports whether the last commanded move has finished.
	Settled(ctx context.Context) (bool, error)
	// Position returns the current absolute position in degrees from home.
	Position(ctx context.Context) (int, error)
	// ResetAndStop clears fault state and halts any motion.
	ResetAndStop(ctx context.Context) error
}
