package robot

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// Body is the fixed set of actuators that make up the robot, indexed by role.
type Body struct {
	actuators map[Role]Actuator
	bus       *feetech.Bus
}

// NewBody creates a body from already constructed actuators.
func NewBody(actuators map[Role]Actuator) *Body {
	return &Body{actuators: actuators}
}

// NewSimBody creates a body of simulated actuators.
func NewSimBody(opts ...SimOption) *Body {
	actuators := make(map[Role]Actuator, len(AllRoles()))
	for _, role := range AllRoles() {
		actuators[role] = NewSim(string(role), opts...)
	}
	return NewBody(actuators)
}

// OpenBody opens the servo bus and looks up every calibrated servo on it.
// Servos that do not answer are kept as disconnected actuators so that
// Check can report them.
func OpenBody(ctx context.Context, cfg *Config) (*Body, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Bus.Port,
		BaudRate: cfg.Bus.BaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	ids := cfg.Calibration.IDs()
	if len(ids) == 0 {
		bus.Close()
		return nil, fmt.Errorf("no actuators calibrated")
	}

	scanCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	found, err := bus.Scan(scanCtx, slices.Min(ids), slices.Max(ids))
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("scan bus: %w", err)
	}

	actuators := make(map[Role]Actuator, len(ids))
	for _, s := range found {
		role, cal, ok := cfg.Calibration.ByID(s.ID)
		if !ok {
			continue
		}
		actuators[role] = NewServo(bus, s, cal)
	}
	for role, cal := range cfg.Calibration {
		if _, ok := actuators[role]; !ok {
			actuators[role] = missingServo(cal)
		}
	}

	return &Body{actuators: actuators, bus: bus}, nil
}

// Close closes the body's bus connection, if any.
func (b *Body) Close() error {
	if b.bus == nil {
		return nil
	}
	return b.bus.Close()
}

// Actuator returns the actuator playing role.
func (b *Body) Actuator(role Role) Actuator {
	return b.actuators[role]
}

// Actuators returns all actuators in role order.
func (b *Body) Actuators() []Actuator {
	out := make([]Actuator, 0, len(b.actuators))
	for _, role := range AllRoles() {
		if a, ok := b.actuators[role]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Check asserts that every role has a connected actuator.
func (b *Body) Check() error {
	for _, role := range AllRoles() {
		a, ok := b.actuators[role]
		if !ok {
			return fmt.Errorf("%s: %w", role, ErrNotConnected)
		}
		if !a.Connected() {
			return fmt.Errorf("%s (%s): %w", role, a.Name(), ErrNotConnected)
		}
	}
	return nil
}

// Reset resets and stops every actuator.
func (b *Body) Reset(ctx context.Context) error {
	for _, role := range AllRoles() {
		a, ok := b.actuators[role]
		if !ok {
			continue
		}
		if err := a.ResetAndStop(ctx); err != nil {
			return fmt.Errorf("reset %s: %w", role, err)
		}
	}
	return nil
}

// Start checks that the body is complete and brings it to a known state.
// It must succeed before any move is issued.
func (b *Body) Start(ctx context.Context) error {
	if err := b.Check(); err != nil {
		return err
	}
	return b.Reset(ctx)
}

// Positions reads current positions from all actuators.
func (b *Body) Positions(ctx context.Context) (map[Role]int, error) {
	positions := make(map[Role]int, len(b.actuators))
	for role, a := range b.actuators {
		pos, err := a.Position(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s position: %w", role, err)
		}
		positions[role] = pos
	}
	return positions, nil
}
