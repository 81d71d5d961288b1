package protocol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gwillem/pastabot/pkg/metrics"
	"github.com/gwillem/pastabot/pkg/speech"
)

// Mover runs the robot's move routine to completion.
type Mover interface {
	Run(ctx context.Context) error
}

// MoverFunc adapts a function to the Mover interface.
type MoverFunc func(ctx context.Context) error

func (f MoverFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Server reads datagrams one at a time and dispatches them. A datagram is
// handled to completion before the next one is read; anything arriving in
// the meantime waits in the socket's receive buffer.
type Server struct {
	conn    net.PacketConn
	mover   Mover
	speaker speech.Speaker
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server's logger.
func WithServerLogger(l logrus.FieldLogger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics records server activity in m.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a server on an already bound socket.
func NewServer(conn net.PacketConn, mover Mover, speaker speech.Speaker, opts ...ServerOption) *Server {
	s := &Server{
		conn:    conn,
		mover:   mover,
		speaker: speaker,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the bound local address.
func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Serve runs the receive loop until ctx is cancelled or the socket fails.
// The socket is closed when Serve returns. Cancellation is not an error.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.conn.Close()
	})
	defer func() {
		stop()
		s.conn.Close()
	}()

	s.logger.WithField("addr", s.Addr().String()).Info("server ready")

	buf := make([]byte, MaxDatagram)
	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		s.handle(ctx, buf[:n], addr)
	}
}

func (s *Server) handle(ctx context.Context, payload []byte, addr net.Addr) {
	kind := Classify(payload)
	log := s.logger.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"peer":       addr.String(),
		"kind":       kind.String(),
	})
	s.metrics.Received(kind.String())
	start := time.Now()

	switch kind {
	case KindHello:
		log.Debug("discovery probe")
		if _, err := s.conn.WriteTo(TokenAck, addr); err != nil {
			log.WithError(err).Warn("ack failed")
		}

	case KindMove:
		log.Info("move routine started")
		err := s.mover.Run(ctx)
		s.metrics.Routine(err)
		if err != nil {
			log.WithError(err).Error("move routine failed")
			break
		}
		log.WithField("took", time.Since(start).Round(time.Millisecond)).Info("move routine done")

	case KindSpeech:
		text := string(payload)
		log.WithField("text", text).Info("speaking")
		err := s.speaker.Speak(ctx, text)
		s.metrics.Utterance(err)
		if err != nil {
			log.WithError(err).Error("speech failed")
		}

	default:
		log.WithField("bytes", len(payload)).Warn("datagram dropped")
	}

	s.metrics.Handled(kind.String(), time.Since(start))
}
