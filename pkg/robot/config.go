package robot

import (
	"encoding/json"
	"os"
)

const DefaultConfigFile = "pastabot.json"

// Defaults carried over from the original robot build.
const (
	DefaultListen      = ":3636"
	DefaultSpeed       = 400
	DefaultStep        = 45
	DefaultRepetitions = 5
	DefaultBaudRate    = 1_000_000
)

// Config holds the robot configuration
type Config struct {
	Bus         BusConfig    `json:"bus"`
	Calibration Calibration  `json:"calibration,omitempty"`
	Listen      string       `json:"listen"`
	Motion      MotionConfig `json:"motion"`
	Speech      SpeechConfig `json:"speech"`
}

// BusConfig holds the serial bus the servos are daisy-chained on
type BusConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate"`
}

// MotionConfig holds the constants of the move routine
type MotionConfig struct {
	Speed       int `json:"speed"`
	Step        int `json:"step"`
	Repetitions int `json:"repetitions"`
}

// SpeechConfig holds the synthesizer options
type SpeechConfig struct {
	Binary         string `json:"binary"`
	Amplitude      int    `json:"amplitude"`
	Voice          string `json:"voice,omitempty"`
	WordsPerMinute int    `json:"words_per_minute,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		Bus:         BusConfig{BaudRate: DefaultBaudRate},
		Calibration: DefaultCalibration(),
		Listen:      DefaultListen,
		Motion: MotionConfig{
			Speed:       DefaultSpeed,
			Step:        DefaultStep,
			Repetitions: DefaultRepetitions,
		},
		Speech: SpeechConfig{
			Binary:    "espeak",
			Amplitude: 200,
		},
	}
}

// IsCalibrated returns true if every role has calibration data
func (c *Config) IsCalibrated() bool {
	for _, role := range AllRoles() {
		if _, ok := c.Calibration[role]; !ok {
			return false
		}
	}
	return true
}

// LoadConfigFrom loads configuration from a specific file.
// Fields missing from the file keep their defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if a config file exists at path
func ConfigExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
