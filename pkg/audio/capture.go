// Package audio records the microphone and plays synthesized speech.
//
// Capture drives ffmpeg to read raw PCM from the system input device and
// hands the recording back as a WAV file when the session stops. Player keeps
// one persistent playback channel whose source is replaced on every Play.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// Capture timing.
const (
	startupGrace = 250 * time.Millisecond
	stopGrace    = 1200 * time.Millisecond
)

// CaptureConfig describes how the microphone should be captured.
type CaptureConfig struct {
	Command     string
	InputFormat string
	InputDevice string
	SampleRate  int
	Channels    int

	// MaxDuration ends the recording by itself; zero means unlimited.
	MaxDuration time.Duration
}

// Session is a live microphone recording.
type Session interface {
	// Stop releases the microphone and returns the recording as WAV bytes.
	// A recording with no samples returns nil bytes.
	Stop() ([]byte, error)

	// Done is closed when the capture ends, on its own or after Stop.
	Done() <-chan struct{}
}

// FFmpegCapture records PCM audio using ffmpeg.
type FFmpegCapture struct {
	cfg CaptureConfig
}

// NewFFmpegCapture creates a capture with defaults filled in.
func NewFFmpegCapture(cfg CaptureConfig) *FFmpegCapture {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	return &FFmpegCapture{cfg: cfg}
}

func (c *FFmpegCapture) args() []string {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", c.cfg.InputFormat,
		"-i", c.cfg.InputDevice,
	}
	if c.cfg.MaxDuration > 0 {
		args = append(args, "-t", strconv.FormatFloat(c.cfg.MaxDuration.Seconds(), 'f', -1, 64))
	}
	return append(args,
		"-ac", strconv.Itoa(c.cfg.Channels),
		"-ar", strconv.Itoa(c.cfg.SampleRate),
		"-f", "s16le",
		"-",
	)
}

// Start acquires the microphone. It fails if ffmpeg exits during startup,
// which is how a missing or busy device shows up.
func (c *FFmpegCapture) Start(ctx context.Context) (Session, error) {
	cmd := exec.CommandContext(ctx, c.cfg.Command, c.args()...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("audio: ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("audio: start ffmpeg: %w", err)
	}

	s := &ffmpegSession{
		process:    cmd.Process,
		stderr:     &stderr,
		sampleRate: c.cfg.SampleRate,
		channels:   c.cfg.Channels,
		waitErr:    make(chan error, 1),
		done:       make(chan struct{}),
	}

	go s.pump(stdout, cmd)

	select {
	case err := <-s.waitErr:
		if err != nil {
			return nil, fmt.Errorf("audio: ffmpeg exited before capture started: %w: %s", err, trimSpace(stderr.String()))
		}
		return nil, errors.New("audio: ffmpeg exited before capture started")
	case <-time.After(startupGrace):
	}

	return s, nil
}

type ffmpegSession struct {
	process *os.Process
	stderr  *bytes.Buffer

	sampleRate int
	channels   int

	mu  sync.Mutex
	pcm bytes.Buffer

	waitErr chan error
	done    chan struct{}

	stopOnce sync.Once
	stopErr  error
}

// pump drains stdout until EOF, then reaps the process.
func (s *ffmpegSession) pump(stdout io.Reader, cmd *exec.Cmd) {
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.pcm.Write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			break
		}
	}
	s.waitErr <- cmd.Wait()
	close(s.waitErr)
	close(s.done)
}

func (s *ffmpegSession) Done() <-chan struct{} {
	return s.done
}

func (s *ffmpegSession) Stop() ([]byte, error) {
	s.stopOnce.Do(func() {
		select {
		case <-s.done:
			if err, ok := <-s.waitErr; ok {
				s.stopErr = normalizeStopErr(err)
			}
		default:
			_ = s.process.Signal(os.Interrupt)
			select {
			case err, ok := <-s.waitErr:
				if ok {
					s.stopErr = normalizeStopErr(err)
				}
			case <-time.After(stopGrace):
				_ = s.process.Kill()
				if err, ok := <-s.waitErr; ok {
					s.stopErr = normalizeStopErr(err)
				}
			}
		}

		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimSpace(s.stderr.String()))
		}
	})

	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pcm.Len() == 0 {
		return nil, s.stopErr
	}
	return EncodeWAV(s.pcm.Bytes(), s.sampleRate, s.channels), s.stopErr
}

// normalizeStopErr treats a non-zero exit after an interrupt as a clean stop.
func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimSpace(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}

var _ Session = (*ffmpegSession)(nil)
