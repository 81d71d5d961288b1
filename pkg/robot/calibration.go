package robot

import "math"

// StepsPerRev is the resolution of an STS servo over one full turn.
const StepsPerRev = 4096

// Raw position limits of an STS servo.
const (
	RawMin = 0
	RawMax = StepsPerRev - 1
)

// ActuatorCalibration maps a servo's raw steps to signed degrees around home.
type ActuatorCalibration struct {
	ID           int `json:"id"`
	DriveMode    int `json:"drive_mode"`
	HomingOffset int `json:"homing_offset"`
}

// Calibration holds calibration data for all actuators, keyed by role.
type Calibration map[Role]ActuatorCalibration

// DefaultCalibration is used when no setup has been run: servo IDs 1 and 2,
// both centred at mid travel.
func DefaultCalibration() Calibration {
	return Calibration{
		Left:  ActuatorCalibration{ID: 1, HomingOffset: StepsPerRev / 2},
		Right: ActuatorCalibration{ID: 2, HomingOffset: StepsPerRev / 2},
	}
}

// ToRaw converts degrees relative to home into a raw servo position.
// The result is clamped to the servo's travel.
func (c ActuatorCalibration) ToRaw(degrees int) int {
	steps := int(math.Round(float64(degrees) * StepsPerRev / 360))
	if c.DriveMode != 0 {
		steps = -steps
	}
	raw := c.HomingOffset + steps
	return min(max(raw, RawMin), RawMax)
}

// FromRaw converts a raw servo position into degrees relative to home.
func (c ActuatorCalibration) FromRaw(raw int) int {
	steps := raw - c.HomingOffset
	if c.DriveMode != 0 {
		steps = -steps
	}
	return int(math.Round(float64(steps) * 360 / StepsPerRev))
}

// IDs returns the servo IDs for all actuators in the calibration.
func (c Calibration) IDs() []int {
	ids := make([]int, 0, len(c))
	// Use AllRoles() to ensure consistent ordering
	for _, role := range AllRoles() {
		if ac, ok := c[role]; ok {
			ids = append(ids, ac.ID)
		}
	}
	return ids
}

// ByID returns role and calibration for a given servo ID.
func (c Calibration) ByID(id int) (Role, ActuatorCalibration, bool) {
	for role, ac := range c {
		if ac.ID == id {
			return role, ac, true
		}
	}
	return "", ActuatorCalibration{}, false
}

// MoveTime returns how long a move of distance degrees takes at speed
// degrees per second. A non-positive speed means "as fast as possible".
func MoveTime(distance, speed int) int {
	if speed <= 0 {
		return 0
	}
	if distance < 0 {
		distance = -distance
	}
	return int(math.Ceil(float64(distance) * 1000 / float64(speed)))
}
