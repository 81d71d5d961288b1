// Package speech renders text as audible speech.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/gwillem/pastabot/pkg/robot"
)

// ErrTimeout is returned when playback does not finish in time.
var ErrTimeout = errors.New("speech timed out")

// DefaultTimeout bounds a single utterance.
const DefaultTimeout = 60 * time.Second

// Speaker speaks text and returns once playback is complete.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// SpeakerFunc adapts a function to the Speaker interface.
type SpeakerFunc func(ctx context.Context, text string) error

func (f SpeakerFunc) Speak(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Options configure the espeak synthesizer.
type Options struct {
	Binary         string
	Amplitude      int
	Voice          string
	WordsPerMinute int
	// Timeout bounds playback. Zero waits forever.
	Timeout time.Duration
}

// OptionsFrom builds Options from the robot configuration.
func OptionsFrom(cfg robot.SpeechConfig, timeout time.Duration) Options {
	return Options{
		Binary:         cfg.Binary,
		Amplitude:      cfg.Amplitude,
		Voice:          cfg.Voice,
		WordsPerMinute: cfg.WordsPerMinute,
		Timeout:        timeout,
	}
}

// Espeak speaks through the espeak command line synthesizer.
type Espeak struct {
	opts Options
}

// NewEspeak creates an espeak speaker.
func NewEspeak(opts Options) *Espeak {
	if opts.Binary == "" {
		opts.Binary = "espeak"
	}
	return &Espeak{opts: opts}
}

// Args returns the command line passed to espeak. The text itself is fed on
// stdin so that it is never parsed as a flag.
func (e *Espeak) Args() []string {
	var args []string
	if e.opts.Amplitude > 0 {
		args = append(args, "-a", strconv.Itoa(e.opts.Amplitude))
	}
	if e.opts.Voice != "" {
		args = append(args, "-v", e.opts.Voice)
	}
	if e.opts.WordsPerMinute > 0 {
		args = append(args, "-s", strconv.Itoa(e.opts.WordsPerMinute))
	}
	return append(args, "--stdin")
}

func (e *Espeak) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	parent := ctx
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.opts.Binary, e.Args()...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if err := parent.Err(); err != nil {
			return fmt.Errorf("%s: %w", e.opts.Binary, err)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s after %s: %w", e.opts.Binary, e.opts.Timeout, ErrTimeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", e.opts.Binary, err, msg)
		}
		return fmt.Errorf("%s: %w", e.opts.Binary, err)
	}
	return nil
}
