package robot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver records the commands a Servo sends to the hardware.
type fakeDriver struct {
	raw int
	err error
	ops []string
}

func (f *fakeDriver) Position(ctx context.Context) (int, error) {
	return f.raw, f.err
}

func (f *fakeDriver) Enable(ctx context.Context) error {
	f.ops = append(f.ops, "enable")
	return nil
}

func (f *fakeDriver) Disable(ctx context.Context) error {
	f.ops = append(f.ops, "disable")
	return nil
}

func (f *fakeDriver) SetPosition(ctx context.Context, position int) error {
	f.ops = append(f.ops, fmt.Sprintf("hold %d", position))
	return nil
}

func (f *fakeDriver) SetPositionWithTime(ctx context.Context, position, timeMs int) error {
	f.ops = append(f.ops, fmt.Sprintf("move %d in %dms", position, timeMs))
	return nil
}

var homeCal = ActuatorCalibration{ID: 1, HomingOffset: 2048}

func TestServo_MoveToAbs(t *testing.T) {
	driver := &fakeDriver{raw: 2048}
	servo := newServo(driver, homeCal)

	require.NoError(t, servo.MoveToAbs(context.Background(), Move{Position: 45, Speed: 400, Stop: Brake}))
	assert.Equal(t, []string{"enable", "move 2560 in 113ms"}, driver.ops)
}

func TestServo_SettleTolerance(t *testing.T) {
	tests := []struct {
		offset  int
		settled bool
	}{
		{0, true},
		{SettleTolerance, true},
		{-SettleTolerance, true},
		{SettleTolerance + 1, false},
		{-SettleTolerance - 1, false},
	}

	for _, tt := range tests {
		driver := &fakeDriver{raw: 2048}
		servo := newServo(driver, homeCal)
		require.NoError(t, servo.MoveToAbs(context.Background(), Move{Position: 45, Speed: 400, Stop: Brake}))

		driver.raw = homeCal.ToRaw(45) + tt.offset
		settled, err := servo.Settled(context.Background())
		require.NoError(t, err)
		if settled != tt.settled {
			t.Errorf("Settled() at %+d steps = %v, want %v", tt.offset, settled, tt.settled)
		}
	}
}

func TestServo_CoastReleasesTorque(t *testing.T) {
	driver := &fakeDriver{raw: 2560}
	servo := newServo(driver, homeCal)
	ctx := context.Background()

	require.NoError(t, servo.MoveToAbs(ctx, Move{Position: 0, Speed: 400, Stop: Coast}))
	driver.raw = 2048
	settled, err := servo.Settled(ctx)
	require.NoError(t, err)
	require.True(t, settled)
	assert.Equal(t, []string{"enable", "move 2048 in 113ms", "disable"}, driver.ops)

	driver.ops = nil
	require.NoError(t, servo.MoveToAbs(ctx, Move{Position: 45, Speed: 400, Stop: Brake}))
	assert.Equal(t, []string{"enable", "move 2560 in 113ms"}, driver.ops)
}

func TestServo_BrakeHoldsTorque(t *testing.T) {
	driver := &fakeDriver{raw: 2048}
	servo := newServo(driver, homeCal)
	ctx := context.Background()

	require.NoError(t, servo.MoveToAbs(ctx, Move{Position: 45, Speed: 400, Stop: Brake}))
	driver.raw = 2560
	settled, err := servo.Settled(ctx)
	require.NoError(t, err)
	require.True(t, settled)

	driver.ops = nil
	require.NoError(t, servo.MoveToAbs(ctx, Move{Position: -45, Speed: 400, Stop: Brake}))
	assert.Equal(t, []string{"move 1536 in 225ms"}, driver.ops)
}

func TestServo_SettledReadError(t *testing.T) {
	driver := &fakeDriver{raw: 2048}
	servo := newServo(driver, homeCal)
	require.NoError(t, servo.MoveToAbs(context.Background(), Move{Position: 45, Speed: 400, Stop: Brake}))

	busErr := errors.New("no status packet")
	driver.err = busErr
	_, err := servo.Settled(context.Background())
	assert.ErrorIs(t, err, busErr)
}

func TestServo_ResetAndStopHoldsPosition(t *testing.T) {
	driver := &fakeDriver{raw: 2100}
	servo := newServo(driver, homeCal)
	ctx := context.Background()

	require.NoError(t, servo.ResetAndStop(ctx))
	assert.Equal(t, []string{"disable", "enable", "hold 2100"}, driver.ops)

	settled, err := servo.Settled(ctx)
	require.NoError(t, err)
	assert.True(t, settled)

	// Torque is already on after a reset.
	driver.ops = nil
	require.NoError(t, servo.MoveToAbs(ctx, Move{Position: 5, Speed: 400, Stop: Brake}))
	assert.Equal(t, []string{"move 2105 in 0ms"}, driver.ops)
}

func TestServo_Missing(t *testing.T) {
	servo := missingServo(homeCal)
	ctx := context.Background()

	assert.False(t, servo.Connected())
	assert.Equal(t, "servo 1", servo.Name())
	assert.ErrorIs(t, servo.MoveToAbs(ctx, Move{Position: 45, Speed: 400}), ErrNotConnected)
	_, err := servo.Settled(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = servo.Position(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, servo.ResetAndStop(ctx), ErrNotConnected)
}
