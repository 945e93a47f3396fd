// Package download plans and supervises streaming download sessions. A
// session owns one yt-dlp subprocess whose stdout is piped to the HTTP
// response; when the client goes away the subprocess is killed immediately.
package download

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/savemedia/gateway/internal/errors"
	"github.com/savemedia/gateway/internal/extractor"
	"github.com/savemedia/gateway/internal/metrics"
	"github.com/savemedia/gateway/internal/platform"
	"github.com/savemedia/gateway/internal/pool"
	"github.com/savemedia/gateway/internal/resolver"
	"github.com/savemedia/gateway/internal/types"
)

// defaultSelector is used when the client did not pick a concrete format.
// It is an opaque selector passed through to the tool, never a format_id
// surfaced by /api/info.
const defaultSelector = "best[height<=720]"

// Plan is a resolved download: the rendition to stream and the response
// headers to send before the first media byte.
type Plan struct {
	URL         string
	FormatID    string
	IsAudio     bool
	Title       string
	Filename    string
	ContentType string
	Platform    string
}

// Supervisor plans downloads and spawns streaming sessions.
type Supervisor struct {
	resolver *resolver.Resolver
	client   *extractor.Client
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewSupervisor creates a download supervisor.
func NewSupervisor(res *resolver.Resolver, client *extractor.Client, m *metrics.Metrics, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		resolver: res,
		client:   client,
		metrics:  m,
		logger:   logger,
	}
}

// Plan resolves metadata for the requested URL and decides filename, content
// type and format selector. Metadata failures surface classified, before any
// streaming subprocess exists.
func (s *Supervisor) Plan(ctx context.Context, req types.DownloadRequest) (*Plan, error) {
	info, err := s.resolver.Fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	formatID := req.FormatID
	if formatID == "" {
		formatID = defaultSelector
	}

	isAudio := IsAudioRequest(req.FormatID, req.Quality)
	ext := Extension(isAudio, info)
	name, _ := platform.Match(req.URL)

	return &Plan{
		URL:         req.URL,
		FormatID:    formatID,
		IsAudio:     isAudio,
		Title:       info.Title,
		Filename:    SafeFilename(info.Title, ext),
		ContentType: ContentType(ext, isAudio),
		Platform:    name,
	}, nil
}

// Start spawns the streaming subprocess for a plan. The subprocess lives on
// its own context: it outlives the HTTP handler and is bounded only by the
// stream timeout and explicit termination.
func (s *Supervisor) Start(plan *Plan) (*Session, error) {
	opts := extractor.StreamOptions{FormatID: plan.FormatID}
	if plan.IsAudio {
		opts.FormatID = "bestaudio"
		opts.ExtractAudio = true
		opts.AudioFormat = "mp3"
	}

	stream, err := s.client.StartStream(context.Background(), plan.URL, opts)
	if err != nil {
		return nil, apperrors.ErrStreamTransport.WithCause(err)
	}

	session := &Session{
		ID:        uuid.New().String(),
		Plan:      plan,
		stream:    stream,
		metrics:   s.metrics,
		logger:    s.logger,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}

	s.metrics.RecordDownloadStart(plan.Platform)
	s.logger.Info("Download session started",
		zap.String("session_id", session.ID),
		zap.String("url", plan.URL),
		zap.String("format", plan.FormatID),
		zap.String("filename", plan.Filename),
		zap.Bool("audio", plan.IsAudio),
	)

	return session, nil
}

// Session is one live streaming download.
type Session struct {
	ID   string
	Plan *Plan

	stream  *extractor.Stream
	metrics *metrics.Metrics
	logger  *zap.Logger

	startedAt time.Time
	bytesOut  atomic.Int64
	cancelled atomic.Bool

	closeOnce sync.Once
	done      chan struct{}
}

// Pipe copies media bytes from the subprocess into the response writer until
// the stream ends or the client disconnects. A failed write or flush means
// the client is gone; the subprocess is killed on the spot.
func (s *Session) Pipe(w *bufio.Writer) {
	buf := pool.MediumSlicePool.Get()
	defer pool.MediumSlicePool.Put(buf)

	for {
		n, readErr := s.stream.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				s.Terminate("client disconnected during write")
				return
			}
			if err := w.Flush(); err != nil {
				s.Terminate("client disconnected during flush")
				return
			}
			s.bytesOut.Add(int64(n))
			s.metrics.AddBytesStreamed(n)
		}
		if readErr != nil {
			if readErr == io.EOF {
				s.complete()
			} else {
				s.fail(readErr)
			}
			return
		}
	}
}

// Terminate kills the subprocess and closes the session. Idempotent: every
// disconnect path may call it, only the first has any effect.
func (s *Session) Terminate(reason string) {
	s.closeOnce.Do(func() {
		s.cancelled.Store(true)
		s.stream.Kill()
		s.metrics.RecordDownloadEnd(s.Plan.Platform, true)
		s.logger.Info("Download session terminated",
			zap.String("session_id", s.ID),
			zap.String("reason", reason),
			zap.Int64("bytes_streamed", s.bytesOut.Load()),
			zap.Duration("elapsed", time.Since(s.startedAt)),
		)
		close(s.done)
	})
}

// WatchConn terminates the session when the client connection dies. fasthttp
// surfaces no disconnect signal while a response streams and the pipe loop
// only notices a dead peer on its next write, so a download whose subprocess
// has stalled would otherwise outlive a client that already went away. The
// client sends no request data during a download; any bytes read here are
// discarded and the poll continues.
func (s *Session) WatchConn(conn net.Conn) {
	go func() {
		buf := make([]byte, 1)
		for {
			select {
			case <-s.done:
				return
			default:
			}

			if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
				s.Terminate("client connection closed")
				return
			}
			if _, err := conn.Read(buf); err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					continue
				}
				s.Terminate("client connection closed")
				return
			}
		}
	}()
}

// Done is closed when the session has finished, either way.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Cancelled reports whether the session ended by termination rather than a
// completed stream.
func (s *Session) Cancelled() bool {
	return s.cancelled.Load()
}

// BytesStreamed reports how much media this session has sent.
func (s *Session) BytesStreamed() int64 {
	return s.bytesOut.Load()
}

func (s *Session) complete() {
	s.closeOnce.Do(func() {
		err := s.stream.Wait()
		s.metrics.RecordDownloadEnd(s.Plan.Platform, false)
		if err != nil {
			s.logger.Warn("Download stream ended with tool error",
				zap.String("session_id", s.ID),
				zap.Int64("bytes_streamed", s.bytesOut.Load()),
				zap.Error(err),
			)
		} else {
			s.logger.Info("Download session completed",
				zap.String("session_id", s.ID),
				zap.Int64("bytes_streamed", s.bytesOut.Load()),
				zap.Duration("elapsed", time.Since(s.startedAt)),
			)
		}
		close(s.done)
	})
}

func (s *Session) fail(err error) {
	s.closeOnce.Do(func() {
		s.cancelled.Store(true)
		s.stream.Kill()
		s.metrics.RecordDownloadEnd(s.Plan.Platform, true)
		s.logger.Error("Download stream read failed",
			zap.String("session_id", s.ID),
			zap.Int64("bytes_streamed", s.bytesOut.Load()),
			zap.Error(err),
		)
		close(s.done)
	})
}
