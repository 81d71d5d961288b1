// Package pastabot is the motion and speech server of a two-motor talking
// robot.
//
// The server listens for short UDP datagrams from chat front ends: HELLO is
// answered with ACK so clients can discover the robot, MOVE runs the robot's
// swing routine, and any other text is spoken aloud. Commands are handled one
// at a time, to completion.
//
// # Installation
//
//	go install github.com/gwillem/pastabot/cmd/pastabot@latest
//
// # Usage
//
// First, run setup to find the servo bus and record the home pose:
//
//	pastabot setup
//
// Then start the server:
//
//	pastabot serve
//
// From another machine on the same network:
//
//	pastabot discover
//	pastabot move
//	pastabot say hello friend
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/pastabot: CLI with serve, setup, jog and client commands
//   - pkg/robot: Actuators, calibration, and configuration
//   - pkg/motion: Synchronized moves and the swing routine
//   - pkg/speech: Text to speech
//   - pkg/protocol: Datagram server, client and discovery
//   - pkg/metrics: Prometheus counters for the server
package pastabot
