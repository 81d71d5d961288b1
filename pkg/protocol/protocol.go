// Package protocol implements the datagram command protocol spoken between
// the chat front ends and the robot.
//
// A client finds the robot by broadcasting HELLO on the server port and
// adopting the first host that answers ACK. After that it sends MOVE to run
// the move routine, or any other text to have it spoken. Only HELLO is
// answered.
package protocol

import (
	"bytes"
	"unicode/utf8"
)

// DefaultPort is the well-known server port.
const DefaultPort = 3636

// MaxDatagram is the largest payload the server reads in one receive.
const MaxDatagram = 4096

// Protocol tokens.
var (
	TokenHello = []byte("HELLO")
	TokenAck   = []byte("ACK")
	TokenMove  = []byte("MOVE")
)

// Kind is the classification of an inbound datagram.
type Kind int

const (
	KindHello Kind = iota
	KindMove
	KindSpeech
	// KindEmpty is a datagram with no printable content.
	KindEmpty
	// KindEcho is a stray ACK, typically from another server answering a
	// broadcast HELLO. Speaking it could start an acknowledgement loop.
	KindEcho
	// KindMalformed is a payload that is not valid UTF-8.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "hello"
	case KindMove:
		return "move"
	case KindSpeech:
		return "speech"
	case KindEmpty:
		return "empty"
	case KindEcho:
		return "echo"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Ignored reports whether datagrams of this kind are dropped.
func (k Kind) Ignored() bool {
	return k == KindEmpty || k == KindEcho || k == KindMalformed
}

// Classify decides what to do with a payload. HELLO and MOVE match on exact
// bytes only; everything else is speech unless it is filtered out.
func Classify(payload []byte) Kind {
	switch {
	case bytes.Equal(payload, TokenHello):
		return KindHello
	case bytes.Equal(payload, TokenMove):
		return KindMove
	case bytes.Equal(payload, TokenAck):
		return KindEcho
	case len(bytes.TrimSpace(payload)) == 0:
		return KindEmpty
	case !utf8.Valid(payload):
		return KindMalformed
	default:
		return KindSpeech
	}
}
