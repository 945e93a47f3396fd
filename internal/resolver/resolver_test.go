package resolver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/savemedia/gateway/internal/errors"
	"github.com/savemedia/gateway/internal/types"
)

type stubFetcher struct {
	fn    func(ctx context.Context, url string) (*types.MediaInfo, error)
	calls atomic.Int64
}

func (s *stubFetcher) FetchMetadata(ctx context.Context, url string) (*types.MediaInfo, error) {
	s.calls.Add(1)
	return s.fn(ctx, url)
}

func f64(v float64) *float64 { return &v }

func TestSummarize_Defaults(t *testing.T) {
	summary := Summarize(&types.MediaInfo{}, "https://youtu.be/abc")

	if summary.Title != "Unknown Title" {
		t.Errorf("Title = %q", summary.Title)
	}
	if summary.Uploader != "Unknown Uploader" {
		t.Errorf("Uploader = %q", summary.Uploader)
	}
	if summary.Duration != "Unknown" {
		t.Errorf("Duration = %q", summary.Duration)
	}
	if summary.Thumbnail == "" {
		t.Error("Thumbnail should get a placeholder")
	}
	if summary.WebpageURL != "https://youtu.be/abc" {
		t.Errorf("WebpageURL = %q, want request URL fallback", summary.WebpageURL)
	}
	if summary.Description != nil {
		t.Error("empty description should stay nil")
	}
	if len(summary.Formats) == 0 {
		t.Error("Formats should never be empty")
	}
}

func TestSummarize_PopulatedFields(t *testing.T) {
	info := &types.MediaInfo{
		ID:         "abc123",
		Title:      "A Video",
		Duration:   f64(125),
		Uploader:   "someone",
		ViewCount:  42,
		Thumbnail:  "https://i.ytimg.com/vi/abc123/hq.jpg",
		WebpageURL: "https://www.youtube.com/watch?v=abc123",
		UploadDate: "20240115",
	}

	summary := Summarize(info, "https://youtu.be/abc123")
	if summary.Title != "A Video" || summary.Uploader != "someone" {
		t.Errorf("populated fields must pass through, got %+v", summary)
	}
	if summary.Duration != "2:05" {
		t.Errorf("Duration = %q, want 2:05", summary.Duration)
	}
	if summary.WebpageURL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("WebpageURL = %q, reported URL should win over request URL", summary.WebpageURL)
	}
	if summary.UploadDate != "20240115" {
		t.Errorf("UploadDate = %q", summary.UploadDate)
	}
}

func TestSummarize_DescriptionTruncation(t *testing.T) {
	long := strings.Repeat("x", 250)
	summary := Summarize(&types.MediaInfo{Description: long}, "u")

	if summary.Description == nil {
		t.Fatal("description should be set")
	}
	want := strings.Repeat("x", 200) + "..."
	if *summary.Description != want {
		t.Errorf("Description length = %d, want %d", len(*summary.Description), len(want))
	}

	short := "short text"
	summary = Summarize(&types.MediaInfo{Description: short}, "u")
	if *summary.Description != "short text..." {
		t.Errorf("short Description = %q", *summary.Description)
	}
}

func TestFetch_ClassifiesFailures(t *testing.T) {
	fetcher := &stubFetcher{fn: func(ctx context.Context, url string) (*types.MediaInfo, error) {
		return nil, errors.New("ERROR: Private video")
	}}
	r := New(fetcher, zap.NewNop())

	_, err := r.Fetch(context.Background(), "https://youtu.be/abc")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := apperrors.GetStatusCode(err); got != 403 {
		t.Errorf("status = %d, want 403", got)
	}
}

func TestFetch_CoalescesConcurrentCalls(t *testing.T) {
	fetcher := &stubFetcher{fn: func(ctx context.Context, url string) (*types.MediaInfo, error) {
		time.Sleep(100 * time.Millisecond)
		return &types.MediaInfo{Title: "shared"}, nil
	}}
	r := New(fetcher, zap.NewNop())

	const waiters = 5
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := r.Fetch(context.Background(), "https://youtu.be/same")
			if err != nil {
				t.Errorf("Fetch failed: %v", err)
				return
			}
			if info.Title != "shared" {
				t.Errorf("Title = %q", info.Title)
			}
		}()
	}
	wg.Wait()

	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("fetcher invoked %d times, want 1", got)
	}
}

func TestResolve_EndToEnd(t *testing.T) {
	fetcher := &stubFetcher{fn: func(ctx context.Context, url string) (*types.MediaInfo, error) {
		return &types.MediaInfo{Title: "clip", Duration: f64(61)}, nil
	}}
	r := New(fetcher, zap.NewNop())

	summary, err := r.Resolve(context.Background(), "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if summary.Title != "clip" || summary.Duration != "1:01" {
		t.Errorf("summary = %+v", summary)
	}
}
