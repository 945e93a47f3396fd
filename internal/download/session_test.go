package download

import (
	"context"
	"net"
	"os/exec"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/savemedia/gateway/internal/extractor"
	"github.com/savemedia/gateway/internal/metrics"
)

// newIdleSession builds a session around a real subprocess that exits on its
// own, so termination paths can run without yt-dlp installed.
func newIdleSession(t *testing.T) *Session {
	t.Helper()
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true binary not available")
	}

	client := extractor.NewClient(extractor.Config{
		BinaryPath:      "true",
		MetadataTimeout: time.Second,
		StreamTimeout:   30 * time.Second,
		Retries:         1,
	}, zap.NewNop())

	stream, err := client.StartStream(context.Background(), "https://youtu.be/abc", extractor.StreamOptions{FormatID: "best"})
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}

	metrics.Get().RecordDownloadStart("youtube.com")
	return &Session{
		ID:        "test-session",
		Plan:      &Plan{URL: "https://youtu.be/abc", Platform: "youtube.com"},
		stream:    stream,
		metrics:   metrics.Get(),
		logger:    zap.NewNop(),
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

func TestWatchConn_TerminatesOnClientClose(t *testing.T) {
	s := newIdleSession(t)

	server, client := net.Pipe()
	defer server.Close()
	s.WatchConn(server)

	// The subprocess is producing nothing; only the connection watcher can
	// notice the client going away.
	client.Close()

	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("session not terminated after client connection closed")
	}
	if !s.Cancelled() {
		t.Error("session should report cancellation")
	}
}

func TestWatchConn_StopsWhenSessionEnds(t *testing.T) {
	s := newIdleSession(t)

	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()
	s.WatchConn(server)

	s.Terminate("test teardown")

	// The watcher polls with a one-second deadline; once the session is done
	// it must stop reading so the connection is free for the next request.
	time.Sleep(1500 * time.Millisecond)

	go client.Write([]byte{'x'})
	server.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	buf := make([]byte, 1)
	n, err := server.Read(buf)
	if err != nil || n != 1 {
		t.Errorf("watcher still consuming the connection after session end: n=%d err=%v", n, err)
	}
}

func TestTerminate_Idempotent(t *testing.T) {
	s := newIdleSession(t)

	s.Terminate("first")
	s.Terminate("second")

	select {
	case <-s.Done():
	default:
		t.Fatal("done should be closed after Terminate")
	}
	if !s.Cancelled() {
		t.Error("terminated session should report cancellation")
	}
}
