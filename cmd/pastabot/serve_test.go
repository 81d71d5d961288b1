package main

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/pastabot/pkg/robot"
)

func TestLoadConfig_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pastabot.json")

	_, err := loadConfig(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pastabot setup")

	cfg, err := loadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, robot.DefaultConfig(), cfg)
}

func TestLoadConfig_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pastabot.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := loadConfig(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load ")
}

func TestLoadConfig_Saved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pastabot.json")
	cfg := robot.DefaultConfig()
	cfg.Listen = ":4000"
	require.NoError(t, cfg.SaveTo(path))

	got, err := loadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, ":4000", got.Listen)
}

func TestOpenBody(t *testing.T) {
	body, err := openBody(context.Background(), robot.DefaultConfig(), true)
	require.NoError(t, err)
	assert.Len(t, body.Actuators(), 2)

	_, err = openBody(context.Background(), robot.DefaultConfig(), false)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, io.Discard, newLogger("off").Out)
	assert.Equal(t, logrus.DebugLevel, newLogger("debug").Level)
	assert.Equal(t, logrus.InfoLevel, newLogger("bogus").Level)
}

func TestStartThenListen_DisconnectedActuator(t *testing.T) {
	body := robot.NewBody(map[robot.Role]robot.Actuator{
		robot.Left:  robot.NewSim("left"),
		robot.Right: robot.NewSim("right", robot.Disconnected()),
	})
	listened := false

	_, err := startThenListen(context.Background(), body, func(context.Context) (net.PacketConn, error) {
		listened = true
		return nil, nil
	})
	require.ErrorIs(t, err, robot.ErrNotConnected)
	assert.False(t, listened)
}

func TestStartThenListen_ResetsBeforeBinding(t *testing.T) {
	left, right := robot.NewSim("left"), robot.NewSim("right")
	body := robot.NewBody(map[robot.Role]robot.Actuator{robot.Left: left, robot.Right: right})

	conn, err := startThenListen(context.Background(), body, func(ctx context.Context) (net.PacketConn, error) {
		assert.Equal(t, 1, left.Resets())
		assert.Equal(t, 1, right.Resets())
		return net.ListenPacket("udp4", "127.0.0.1:0")
	})
	require.NoError(t, err)
	conn.Close()
}
