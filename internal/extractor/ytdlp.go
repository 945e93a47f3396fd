// Package extractor wraps the yt-dlp binary. Metadata fetches run under a
// circuit breaker and a bounded retry budget; streaming invocations hand the
// caller a Stream that owns the subprocess and can be killed at any time.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/savemedia/gateway/internal/circuitbreaker"
	"github.com/savemedia/gateway/internal/retry"
	"github.com/savemedia/gateway/internal/types"
)

// baseArgs are shared by every invocation: single video, quiet output, and
// the lenient transport flags the service has always passed to the tool.
var baseArgs = []string{
	"--no-playlist",
	"--no-warnings",
	"--no-check-certificates",
	"--prefer-free-formats",
	"--youtube-skip-dash-manifest",
}

// Config holds yt-dlp invocation settings.
type Config struct {
	BinaryPath      string
	MetadataTimeout time.Duration
	StreamTimeout   time.Duration
	Retries         int
}

// Client invokes yt-dlp for metadata extraction and media streaming.
type Client struct {
	binaryPath      string
	metadataTimeout time.Duration
	streamTimeout   time.Duration
	logger          *zap.Logger
	breaker         *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
}

// NewClient creates a yt-dlp wrapper with circuit breaker and retry logic.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	breaker := circuitbreaker.NewCircuitBreaker("yt-dlp", circuitbreaker.Config{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6)
		},
		OnStateChange: func(name string, from circuitbreaker.State, to circuitbreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	retryConfig := retry.Config{
		MaxAttempts:     cfg.Retries,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		Multiplier:      2.0,
		Jitter:          0.3,
		RetryableErrors: isRetryableError,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Warn("Retrying yt-dlp metadata fetch",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		},
	}

	return &Client{
		binaryPath:      cfg.BinaryPath,
		metadataTimeout: cfg.MetadataTimeout,
		streamTimeout:   cfg.StreamTimeout,
		logger:          logger,
		breaker:         breaker,
		retryConfig:     retryConfig,
	}
}

// isRetryableError determines if a metadata fetch failure should be retried.
// Permanent failures (private, removed, unsupported) must surface to the
// caller unchanged so error classification sees the tool's wording.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if err == circuitbreaker.ErrCircuitOpen {
		return false
	}

	errStr := strings.ToLower(err.Error())

	nonRetryablePatterns := []string{
		"private",
		"sign in",
		"unavailable",
		"not found",
		"removed",
		"unsupported",
		"no video formats",
		"copyright",
		"invalid",
		"malformed",
	}
	for _, pattern := range nonRetryablePatterns {
		if strings.Contains(errStr, pattern) {
			return false
		}
	}

	retryablePatterns := []string{
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"network",
		"dns",
		"429",
		"too many requests",
		"500",
		"502",
		"503",
		"504",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	// Default: retry unknown errors (conservative approach)
	return true
}

// FetchMetadata extracts metadata from a URL without downloading.
func (c *Client) FetchMetadata(ctx context.Context, url string) (*types.MediaInfo, error) {
	var info *types.MediaInfo

	err := c.breaker.Execute(ctx, func() error {
		return retry.Retry(ctx, c.retryConfig, func() error {
			args := append([]string{"--dump-json"}, baseArgs...)
			args = append(args, url)

			output, err := c.execute(ctx, c.metadataTimeout, args)
			if err != nil {
				return fmt.Errorf("failed to extract metadata: %w", err)
			}

			parsed, err := parseInfoOutput(output)
			if err != nil {
				return fmt.Errorf("failed to parse metadata: %w", err)
			}

			info = parsed
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return info, nil
}

// Version reports the installed yt-dlp version, used by the health check.
func (c *Client) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, c.binaryPath, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("yt-dlp version check failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// execute runs yt-dlp and returns its combined output. On failure the
// output is folded into the error so classification can see the tool's
// failure text.
func (c *Client) execute(ctx context.Context, timeout time.Duration, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binaryPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", fmt.Errorf("command failed: %w - %s", err, string(output))
	}

	return string(output), nil
}

// parseInfoOutput finds and unmarshals the JSON document in yt-dlp output.
// The tool may interleave non-JSON lines, so we scan for the last line that
// parses as an object.
func parseInfoOutput(output string) (*types.MediaInfo, error) {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") && strings.HasSuffix(line, "}") {
			var info types.MediaInfo
			if err := json.Unmarshal([]byte(line), &info); err == nil {
				return &info, nil
			}
		}
	}
	return nil, fmt.Errorf("no JSON object found in yt-dlp output")
}
