package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/gwillem/pastabot/pkg/metrics"
	"github.com/gwillem/pastabot/pkg/motion"
	"github.com/gwillem/pastabot/pkg/protocol"
	"github.com/gwillem/pastabot/pkg/robot"
	"github.com/gwillem/pastabot/pkg/speech"
)

type ServeCommand struct {
	Config        string        `long:"config" env:"PASTABOT_CONFIG" default:"pastabot.json" description:"Configuration file written by setup"`
	Listen        string        `long:"listen" env:"PASTABOT_LISTEN" description:"Listen address (overrides the config file)"`
	Sim           bool          `long:"sim" env:"PASTABOT_SIM" description:"Use simulated actuators instead of the servo bus"`
	Mute          bool          `long:"mute" env:"PASTABOT_MUTE" description:"Log speech instead of playing it"`
	SettleTimeout time.Duration `long:"settle-timeout" env:"PASTABOT_SETTLE_TIMEOUT" default:"30s" description:"Give up on a move after this long (0 waits forever)"`
	SpeechTimeout time.Duration `long:"speech-timeout" env:"PASTABOT_SPEECH_TIMEOUT" default:"60s" description:"Give up on an utterance after this long (0 waits forever)"`
	MetricsAddr   string        `long:"metrics-addr" env:"PASTABOT_METRICS_ADDR" description:"Serve Prometheus metrics on this address"`
	LogLevel      string        `long:"log-level" env:"PASTABOT_LOG_LEVEL" default:"info" description:"debug, info, warn, error or off"`
}

func (c *ServeCommand) Execute(args []string) error {
	logger := newLogger(c.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c.Config, c.Sim)
	if err != nil {
		logger.WithError(err).Fatal("Cannot load configuration")
	}
	if c.Listen != "" {
		cfg.Listen = c.Listen
	}

	body, err := openBody(ctx, cfg, c.Sim)
	if err != nil {
		logger.WithError(err).Fatal("Cannot open actuators")
	}

	conn, err := startThenListen(ctx, body, func(ctx context.Context) (net.PacketConn, error) {
		return protocol.Listen(ctx, cfg.Listen)
	})
	if err != nil {
		body.Close()
		logger.WithError(err).Fatal("Startup failed")
	}
	defer body.Close()

	seq := motion.NewSequencer(body, motion.ConfigFrom(cfg.Motion, c.SettleTimeout), motion.WithLogger(logger))

	var speaker speech.Speaker = speech.NewEspeak(speech.OptionsFrom(cfg.Speech, c.SpeechTimeout))
	if c.Mute {
		speaker = speech.SpeakerFunc(func(_ context.Context, text string) error {
			logger.WithField("text", text).Info("muted speech")
			return nil
		})
	}

	serverOpts := []protocol.ServerOption{protocol.WithServerLogger(logger)}
	if c.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		serverOpts = append(serverOpts, protocol.WithMetrics(metrics.New(reg)))
		shutdown := serveMetrics(c.MetricsAddr, reg, logger)
		defer shutdown()
	}

	srv := protocol.NewServer(conn, seq, speaker, serverOpts...)
	if err := srv.Serve(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// startThenListen brings every actuator to a known state and only then binds
// the command socket.
func startThenListen(ctx context.Context, body *robot.Body, listen func(context.Context) (net.PacketConn, error)) (net.PacketConn, error) {
	if err := body.Start(ctx); err != nil {
		return nil, fmt.Errorf("actuator check: %w", err)
	}
	conn, err := listen(ctx)
	if err != nil {
		return nil, fmt.Errorf("bind socket: %w", err)
	}
	return conn, nil
}

func loadConfig(path string, sim bool) (*robot.Config, error) {
	cfg, err := robot.LoadConfigFrom(path)
	if errors.Is(err, fs.ErrNotExist) && sim {
		return robot.DefaultConfig(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s not found, run 'pastabot setup' first", path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

func openBody(ctx context.Context, cfg *robot.Config, sim bool) (*robot.Body, error) {
	if sim {
		return robot.NewSimBody(), nil
	}
	if cfg.Bus.Port == "" {
		return nil, fmt.Errorf("no servo bus configured, run 'pastabot setup' first")
	}
	return robot.OpenBody(ctx, cfg)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger logrus.FieldLogger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.WithField("addr", addr).Info("Metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
