package download

import (
	"mime"
	"regexp"
	"strings"

	"github.com/savemedia/gateway/internal/types"
)

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// SafeFilename derives an attachment filename from a video title. Everything
// outside [a-zA-Z0-9 ] is stripped, runs of whitespace collapse to a single
// underscore, and a title that strips to nothing falls back to "video".
func SafeFilename(title, ext string) string {
	name := unsafeChars.ReplaceAllString(title, "")
	name = strings.TrimSpace(name)
	if name == "" {
		name = "video"
	}
	name = whitespace.ReplaceAllString(name, "_")
	return name + "." + ext
}

// IsAudioRequest reports whether the client asked for an audio-only download,
// either via the bestaudio selector or an "audio" quality label.
func IsAudioRequest(formatID, quality string) bool {
	if formatID == "bestaudio" {
		return true
	}
	return strings.Contains(strings.ToLower(quality), "audio")
}

// Extension picks the container extension for the response filename. Audio
// requests are always transcoded to mp3; video falls back to mp4 when the
// tool did not report a container.
func Extension(isAudio bool, info *types.MediaInfo) string {
	if isAudio {
		return "mp3"
	}
	if info != nil && info.Ext != "" {
		return info.Ext
	}
	return "mp4"
}

// ContentType maps a container extension to the response Content-Type.
func ContentType(ext string, isAudio bool) string {
	if ct := mime.TypeByExtension("." + ext); ct != "" {
		return ct
	}
	if isAudio {
		return "audio/mpeg"
	}
	return "video/mp4"
}
