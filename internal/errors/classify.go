package errors

import (
	"context"
	"errors"
	"strings"
)

// classifyRule maps yt-dlp failure text to an error kind. Rules are ordered;
// the first substring hit wins.
type classifyRule struct {
	substrings []string
	kind       *CustomError
}

// classifyRules matches against the tool's exact wording, which is the only
// failure signal yt-dlp gives us. Centralized here so the policy is
// swappable if the tool's message format changes.
var classifyRules = []classifyRule{
	{[]string{"Private video", "Sign in"}, ErrAccessDenied},
	{[]string{"Video unavailable", "not found"}, ErrNotFound},
	{[]string{"Unsupported URL", "No video formats"}, ErrUnsupportedContent},
	{[]string{"timeout"}, ErrTimeout},
	{[]string{"Too Many Requests"}, ErrUpstreamRateLimited},
}

// Classify maps an extraction failure to its HTTP-facing error kind.
// Anything unmatched is a permissive 500 extraction error. Already
// classified errors pass through untouched.
func Classify(err error) *CustomError {
	if err == nil {
		return nil
	}

	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}

	// Go's own deadline error does not contain the word "timeout".
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout.WithCause(err)
	}

	msg := err.Error()
	for _, rule := range classifyRules {
		for _, s := range rule.substrings {
			if strings.Contains(msg, s) {
				return rule.kind.WithCause(err)
			}
		}
	}
	return ErrExtractionFailed.WithCause(err)
}
