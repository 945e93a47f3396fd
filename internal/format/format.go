// Package format normalizes the heterogeneous format list reported by
// yt-dlp into the stable, ranked rendition list the API exposes.
package format

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/savemedia/gateway/internal/types"
)

const (
	// minFilesize filters out thumbnail/metadata-only pseudo-formats the
	// tool sometimes reports. A rendition at exactly this size is dropped.
	minFilesize = 10000

	// maxFormats caps the number of renditions surfaced to the client.
	maxFormats = 15
)

var firstNumber = regexp.MustCompile(`\d+`)

// Normalize filters, labels, deduplicates and ranks the raw format list.
// It is pure and deterministic, never returns an empty slice, and never
// returns more than maxFormats entries.
func Normalize(raw []types.RawFormat) []types.Format {
	out := make([]types.Format, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, f := range raw {
		size := f.Filesize
		if size == nil {
			size = f.FilesizeApprox
		}
		if size == nil || *size <= minFilesize {
			continue
		}

		// First occurrence wins on duplicate identifiers.
		if _, dup := seen[f.FormatID]; dup {
			continue
		}
		seen[f.FormatID] = struct{}{}

		ext := f.Ext
		if ext == "" {
			ext = "mp4"
		}
		vcodec := f.VCodec
		if vcodec == "" {
			vcodec = "none"
		}
		acodec := f.ACodec
		if acodec == "" {
			acodec = "none"
		}

		out = append(out, types.Format{
			FormatID: f.FormatID,
			Ext:      ext,
			Quality:  qualityLabel(f),
			Filesize: FileSize(size),
			VCodec:   vcodec,
			ACodec:   acodec,
			HasVideo: vcodec != "none",
			HasAudio: acodec != "none",
		})
	}

	// Video renditions first, then descending numeric quality. The sort
	// must be stable so equal-quality entries keep their input order.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].HasVideo != out[j].HasVideo {
			return out[i].HasVideo
		}
		return qualityValue(out[i].Quality) > qualityValue(out[j].Quality)
	})

	if len(out) == 0 {
		return fallbackFormats()
	}
	if len(out) > maxFormats {
		out = out[:maxFormats]
	}
	return out
}

// qualityLabel derives a human-readable quality label with precedence:
// explicit format note, pixel height, numeric quality hint, "Unknown".
func qualityLabel(f types.RawFormat) string {
	if f.FormatNote != "" {
		return f.FormatNote
	}
	if f.Height != nil && *f.Height > 0 {
		return fmt.Sprintf("%dp", *f.Height)
	}
	if f.Quality != nil && *f.Quality > 0 {
		return strconv.FormatFloat(*f.Quality, 'f', -1, 64) + "k"
	}
	return "Unknown"
}

// qualityValue extracts the numeric component of a quality label for
// ranking. Labels without digits sort last.
func qualityValue(quality string) int {
	m := firstNumber.FindString(quality)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// fallbackFormats is returned when filtering leaves nothing usable, so the
// client always has something to request. The selectors are interpreted by
// yt-dlp.
func fallbackFormats() []types.Format {
	return []types.Format{
		{
			FormatID: "best[height<=1080]",
			Ext:      "mp4",
			Quality:  "1080p",
			Filesize: "HD Quality",
			VCodec:   "h264",
			ACodec:   "mp3",
			HasAudio: true,
			HasVideo: true,
		},
		{
			FormatID: "best[height<=720]",
			Ext:      "mp4",
			Quality:  "720p",
			Filesize: "HD Quality",
			VCodec:   "h264",
			ACodec:   "mp3",
			HasAudio: true,
			HasVideo: true,
		},
		{
			FormatID: "bestaudio",
			Ext:      "mp3",
			Quality:  "MP3 Audio",
			Filesize: "Audio Only",
			VCodec:   "none",
			ACodec:   "mp3",
			HasAudio: true,
			HasVideo: false,
		},
	}
}

var sizeUnits = [...]string{"Bytes", "KB", "MB", "GB"}

// FileSize renders a byte count using 1024-based magnitudes, rounded to two
// decimal places with trailing zeros trimmed. Absent or negative sizes
// render as "Unknown".
func FileSize(bytes *int64) string {
	if bytes == nil || *bytes < 0 {
		return "Unknown"
	}
	b := *bytes
	if b == 0 {
		return "0 Bytes"
	}

	i := int(math.Floor(math.Log(float64(b)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := math.Round(float64(b)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// Duration renders seconds as "H:MM:SS" or "M:SS". Absent or non-positive
// values render as "Unknown".
func Duration(seconds *float64) string {
	if seconds == nil || math.IsNaN(*seconds) || *seconds <= 0 {
		return "Unknown"
	}

	total := int(*seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
