package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// StreamOptions selects the rendition for a streaming invocation.
type StreamOptions struct {
	// FormatID is the yt-dlp format selector, e.g. "137" or "best[height<=720]".
	FormatID string
	// ExtractAudio asks the tool to transcode the audio track.
	ExtractAudio bool
	// AudioFormat is the target audio container when ExtractAudio is set.
	AudioFormat string
}

// Stream is a running streaming invocation. It owns the subprocess handle:
// the caller reads media bytes from it, then either Wait()s for a clean exit
// or Kill()s it. Kill is safe to call concurrently and more than once.
type Stream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	cancel context.CancelFunc
	logger *zap.Logger

	killOnce sync.Once
	waitOnce sync.Once
	waitErr  error
}

// StartStream spawns yt-dlp in streaming mode, writing media bytes to its
// stdout. The subprocess is bounded by the client's stream timeout; the
// returned Stream must be reaped with Wait or torn down with Kill.
func (c *Client) StartStream(ctx context.Context, url string, opts StreamOptions) (*Stream, error) {
	ctx, cancel := context.WithTimeout(ctx, c.streamTimeout)

	args := append([]string{}, baseArgs...)
	args = append(args, "-o", "-", "-f", opts.FormatID)
	if opts.ExtractAudio {
		args = append(args, "--extract-audio", "--audio-format", opts.AudioFormat)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, c.binaryPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start %s: %w", c.binaryPath, err)
	}

	c.logger.Info("Streaming subprocess started",
		zap.String("url", url),
		zap.String("format", opts.FormatID),
		zap.Bool("extract_audio", opts.ExtractAudio),
		zap.Int("pid", cmd.Process.Pid),
	)

	return &Stream{
		cmd:    cmd,
		stdout: stdout,
		stderr: &stderr,
		cancel: cancel,
		logger: c.logger,
	}, nil
}

// Read reads media bytes from the subprocess output.
func (s *Stream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Wait reaps the subprocess. Safe to call more than once; subsequent calls
// return the first result. A non-nil error carries the tool's stderr text.
func (s *Stream) Wait() error {
	s.waitOnce.Do(func() {
		err := s.cmd.Wait()
		s.cancel()
		if err != nil {
			msg := strings.TrimSpace(s.stderr.String())
			if msg != "" {
				s.waitErr = fmt.Errorf("yt-dlp error: %w - %s", err, msg)
			} else {
				s.waitErr = fmt.Errorf("yt-dlp error: %w", err)
			}
		}
	})
	return s.waitErr
}

// Kill terminates the subprocess immediately. Idempotent: only the first
// call acts, and killing an already-exited process is a no-op. An
// uncooperative process gets SIGKILL, not a polite signal. The killed child
// is reaped in the background so it never lingers as a zombie.
func (s *Stream) Kill() {
	s.killOnce.Do(func() {
		s.cancel()
		if s.cmd.Process != nil {
			if err := s.cmd.Process.Kill(); err != nil && !strings.Contains(err.Error(), "already finished") {
				s.logger.Warn("Failed to kill streaming subprocess",
					zap.Int("pid", s.cmd.Process.Pid),
					zap.Error(err),
				)
			}
		}
		go func() { _ = s.Wait() }()
	})
}
