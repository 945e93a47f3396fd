package types

// InfoRequest is the body of POST /api/info.
type InfoRequest struct {
	URL string `json:"url"`
}

// DownloadRequest is the body of POST /api/download.
type DownloadRequest struct {
	URL      string `json:"url"`
	FormatID string `json:"format_id"`
	Quality  string `json:"quality"`
}

// Format is a single downloadable rendition surfaced to the client.
// Within a VideoSummary the FormatID is unique and the list is ordered:
// video renditions first, then audio-only, descending quality.
type Format struct {
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	Quality  string `json:"quality"`
	Filesize string `json:"filesize"`
	VCodec   string `json:"vcodec"`
	ACodec   string `json:"acodec"`
	HasAudio bool   `json:"has_audio"`
	HasVideo bool   `json:"has_video"`
}

// VideoSummary is the client-facing metadata document returned by /api/info.
type VideoSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Duration    string   `json:"duration"`
	Uploader    string   `json:"uploader"`
	ViewCount   int64    `json:"view_count"`
	Thumbnail   string   `json:"thumbnail"`
	Formats     []Format `json:"formats"`
	WebpageURL  string   `json:"webpage_url"`
	Description *string  `json:"description"`
	UploadDate  string   `json:"upload_date,omitempty"`
}

// MediaInfo mirrors the subset of yt-dlp's JSON dump the gateway consumes.
// Pointer fields distinguish "absent" from zero values in the tool output.
type MediaInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Duration    *float64    `json:"duration"`
	Uploader    string      `json:"uploader"`
	UploadDate  string      `json:"upload_date"`
	ViewCount   int64       `json:"view_count"`
	Thumbnail   string      `json:"thumbnail"`
	WebpageURL  string      `json:"webpage_url"`
	Description string      `json:"description"`
	Ext         string      `json:"ext"`
	Formats     []RawFormat `json:"formats"`
}

// RawFormat is one rendition as reported by yt-dlp. A "none" codec tag means
// the stream lacks that track entirely.
type RawFormat struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	FormatNote     string   `json:"format_note"`
	Height         *int     `json:"height"`
	Quality        *float64 `json:"quality"`
	Filesize       *int64   `json:"filesize"`
	FilesizeApprox *int64   `json:"filesize_approx"`
	VCodec         string   `json:"vcodec"`
	ACodec         string   `json:"acodec"`
}

// ErrorResponse is the uniform failure body. Details is populated only when
// the server runs outside production mode.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
