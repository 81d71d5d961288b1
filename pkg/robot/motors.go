// Package robot provides abstractions for the two actuators that move the robot.
package robot

// Role identifies an actuator by its place on the robot body.
type Role string

// Actuator roles. Left is the first motor of the original build (port A),
// Right the second (port D).
const (
	Left  Role = "left"
	Right Role = "right"
)

// AllRoles returns all roles in order (matching servo IDs 1-2).
func AllRoles() []Role {
	return []Role{
		Left,
		Right,
	}
}
