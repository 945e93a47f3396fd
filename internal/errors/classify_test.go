package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"private video", errors.New("ERROR: Private video. Sign in if you've been granted access"), "ACCESS_DENIED", 403},
		{"sign in required", errors.New("ERROR: Sign in to confirm your age"), "ACCESS_DENIED", 403},
		{"unavailable", errors.New("ERROR: Video unavailable"), "NOT_FOUND", 404},
		{"not found", errors.New("ERROR: This video was not found"), "NOT_FOUND", 404},
		{"unsupported url", errors.New("ERROR: Unsupported URL: https://example.com"), "UNSUPPORTED_CONTENT", 400},
		{"no formats", errors.New("ERROR: No video formats found"), "UNSUPPORTED_CONTENT", 400},
		{"timeout text", errors.New("read timeout while fetching"), "TIMEOUT", 408},
		{"upstream rate limit", errors.New("HTTP Error 429: Too Many Requests"), "UPSTREAM_RATE_LIMITED", 429},
		{"unknown", errors.New("something inexplicable"), "EXTRACTION_ERROR", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.wantStatus)
			}
			if got.Cause == nil {
				t.Error("classified error should carry the original cause")
			}
		})
	}
}

func TestClassify_RuleOrder(t *testing.T) {
	// Both an access rule and the not-found rule could match; the access
	// rule is listed first and must win.
	got := Classify(errors.New("ERROR: Private video, not found otherwise"))
	if got.Code != "ACCESS_DENIED" {
		t.Errorf("Code = %q, want ACCESS_DENIED", got.Code)
	}
}

func TestClassify_PassesThroughClassified(t *testing.T) {
	got := Classify(ErrNotFound)
	if got != ErrNotFound {
		t.Errorf("already classified error should pass through unchanged")
	}

	wrapped := fmt.Errorf("resolving: %w", ErrAccessDenied)
	if got := Classify(wrapped); got.Code != "ACCESS_DENIED" {
		t.Errorf("Code = %q, want ACCESS_DENIED", got.Code)
	}
}

func TestClassify_DeadlineExceeded(t *testing.T) {
	wrapped := fmt.Errorf("command failed: %w", context.DeadlineExceeded)
	got := Classify(wrapped)
	if got.Code != "TIMEOUT" || got.StatusCode != 408 {
		t.Errorf("got %q/%d, want TIMEOUT/408", got.Code, got.StatusCode)
	}
}

func TestClassify_Nil(t *testing.T) {
	if got := Classify(nil); got != nil {
		t.Errorf("Classify(nil) = %v, want nil", got)
	}
}

func TestWithCauseDoesNotMutateSentinel(t *testing.T) {
	derived := ErrTimeout.WithCause(errors.New("boom"))
	if derived.Cause == nil {
		t.Fatal("derived error should carry the cause")
	}
	if ErrTimeout.Cause != nil {
		t.Fatal("sentinel must stay pristine after WithCause")
	}
	if !errors.Is(derived, ErrTimeout) {
		t.Error("derived error should still match its sentinel")
	}
}

func TestWithDetailsDoesNotMutateSentinel(t *testing.T) {
	derived := ErrInvalidURL.WithDetails("bad scheme")
	if derived.Details == nil {
		t.Fatal("derived error should carry details")
	}
	if ErrInvalidURL.Details != nil {
		t.Fatal("sentinel must stay pristine after WithDetails")
	}
}

func TestGetStatusCode(t *testing.T) {
	if got := GetStatusCode(ErrAccessDenied); got != 403 {
		t.Errorf("GetStatusCode = %d, want 403", got)
	}
	if got := GetStatusCode(errors.New("plain")); got != 500 {
		t.Errorf("GetStatusCode(plain) = %d, want 500", got)
	}
}
