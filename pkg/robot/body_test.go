package robot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBody_StartFailsWithDisconnectedActuator(t *testing.T) {
	right := NewSim("right", Disconnected())
	body := NewBody(map[Role]Actuator{
		Left:  NewSim("left"),
		Right: right,
	})

	err := body.Start(context.Background())
	require.ErrorIs(t, err, ErrNotConnected)
	assert.Contains(t, err.Error(), "right")
}

func TestBody_StartFailsWithMissingRole(t *testing.T) {
	body := NewBody(map[Role]Actuator{Left: NewSim("left")})

	require.ErrorIs(t, body.Start(context.Background()), ErrNotConnected)
}

func TestBody_StartResetsEveryActuator(t *testing.T) {
	left, right := NewSim("left"), NewSim("right")
	body := NewBody(map[Role]Actuator{Left: left, Right: right})

	require.NoError(t, body.Start(context.Background()))
	assert.Equal(t, 1, left.Resets())
	assert.Equal(t, 1, right.Resets())
}

func TestBody_ActuatorsInRoleOrder(t *testing.T) {
	left, right := NewSim("left"), NewSim("right")
	body := NewBody(map[Role]Actuator{Right: right, Left: left})

	assert.Equal(t, []Actuator{left, right}, body.Actuators())
	assert.Same(t, right, body.Actuator(Right))
}

func TestSim_TravelsAtSpeed(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(0, 0)
	sim := NewSim("left", WithClock(func() time.Time { return now }))

	require.NoError(t, sim.MoveToAbs(ctx, Move{Position: 40, Speed: 400, Stop: Brake}))

	settled, err := sim.Settled(ctx)
	require.NoError(t, err)
	assert.False(t, settled)

	now = now.Add(50 * time.Millisecond)
	pos, err := sim.Position(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, pos)

	now = now.Add(50 * time.Millisecond)
	settled, err = sim.Settled(ctx)
	require.NoError(t, err)
	assert.True(t, settled)

	pos, err = sim.Position(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, pos)

	// Moving back in the negative direction.
	require.NoError(t, sim.MoveToAbs(ctx, Move{Position: -40, Speed: 400}))
	now = now.Add(100 * time.Millisecond)
	pos, err = sim.Position(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
}

func TestSim_ResetHoldsPosition(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(0, 0)
	sim := NewSim("left", WithClock(func() time.Time { return now }))

	require.NoError(t, sim.MoveToAbs(ctx, Move{Position: 100, Speed: 100}))
	now = now.Add(300 * time.Millisecond)
	require.NoError(t, sim.ResetAndStop(ctx))

	now = now.Add(time.Second)
	pos, err := sim.Position(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, pos)

	settled, err := sim.Settled(ctx)
	require.NoError(t, err)
	assert.True(t, settled)
}

func TestSim_Disconnected(t *testing.T) {
	sim := NewSim("left", Disconnected())

	assert.False(t, sim.Connected())
	assert.ErrorIs(t, sim.MoveToAbs(context.Background(), Move{Position: 1}), ErrNotConnected)
}
