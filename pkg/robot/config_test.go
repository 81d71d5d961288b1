package robot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFrom_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"bus":{"port":"/dev/ttyACM0"},"motion":{"step":30}}`), 0644))

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Bus.Port)
	assert.Equal(t, DefaultBaudRate, cfg.Bus.BaudRate)
	assert.Equal(t, 30, cfg.Motion.Step)
	assert.Equal(t, DefaultSpeed, cfg.Motion.Speed)
	assert.Equal(t, DefaultRepetitions, cfg.Motion.Repetitions)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.True(t, cfg.IsCalibrated())
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	cfg := DefaultConfig()
	cfg.Calibration[Right] = ActuatorCalibration{ID: 9, DriveMode: 1, HomingOffset: 1000}
	cfg.Speech.Voice = "en-us"

	assert.False(t, ConfigExists(path))
	require.NoError(t, cfg.SaveTo(path))
	assert.True(t, ConfigExists(path))
	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, loaded)
}

func TestConfig_IsCalibrated(t *testing.T) {
	cfg := DefaultConfig()
	delete(cfg.Calibration, Left)

	assert.False(t, cfg.IsCalibrated())
}
