// Package resolver turns a media URL into the client-facing VideoSummary,
// coalescing concurrent fetches for the same URL and mapping tool failures
// to HTTP-facing error kinds.
package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/savemedia/gateway/internal/dedup"
	apperrors "github.com/savemedia/gateway/internal/errors"
	"github.com/savemedia/gateway/internal/format"
	"github.com/savemedia/gateway/internal/types"
)

const (
	defaultTitle     = "Unknown Title"
	defaultUploader  = "Unknown Uploader"
	defaultThumbnail = "https://via.placeholder.com/320x180/667eea/white?text=Video+Thumbnail"

	descriptionLimit = 200
)

// MetadataFetcher is the metadata-only mode of the external tool.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string) (*types.MediaInfo, error)
}

// Resolver orchestrates metadata-only invocations of the external tool.
type Resolver struct {
	fetcher MetadataFetcher
	flight  *dedup.Singleflight
	logger  *zap.Logger
}

// New creates a metadata resolver.
func New(fetcher MetadataFetcher, logger *zap.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		flight:  dedup.NewSingleflight(),
		logger:  logger,
	}
}

// Fetch returns the raw metadata document for a URL. Concurrent fetches for
// the same URL are coalesced into one tool invocation; failures come back
// classified. The URL must already have passed platform validation.
func (r *Resolver) Fetch(ctx context.Context, url string) (*types.MediaInfo, error) {
	res := r.flight.DoContext(ctx, url, func() (interface{}, error) {
		// The fetch runs on its own context: waiters that give up must not
		// cancel work other waiters still share. The fetcher applies its
		// own per-attempt timeout.
		return r.fetcher.FetchMetadata(context.Background(), url)
	})
	if res.Err != nil {
		r.logger.Warn("Metadata fetch failed",
			zap.String("url", url),
			zap.Bool("coalesced", res.Shared),
			zap.Error(res.Err),
		)
		return nil, apperrors.Classify(res.Err)
	}

	info := res.Val.(*types.MediaInfo)
	if res.Shared {
		r.logger.Debug("Metadata fetch coalesced", zap.String("url", url))
	}
	return info, nil
}

// Resolve fetches metadata and builds the client-facing summary.
func (r *Resolver) Resolve(ctx context.Context, url string) (*types.VideoSummary, error) {
	info, err := r.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return Summarize(info, url), nil
}

// Stats reports in-flight coalescing state for the metrics endpoint.
func (r *Resolver) Stats() map[string]interface{} {
	return r.flight.Stats()
}

// Summarize converts a raw metadata document into a VideoSummary, applying
// defaults for every absent field. Pure: a fresh summary per call, the raw
// document is not touched.
func Summarize(info *types.MediaInfo, requestURL string) *types.VideoSummary {
	summary := &types.VideoSummary{
		ID:         info.ID,
		Title:      info.Title,
		Duration:   format.Duration(info.Duration),
		Uploader:   info.Uploader,
		ViewCount:  info.ViewCount,
		Thumbnail:  info.Thumbnail,
		Formats:    format.Normalize(info.Formats),
		WebpageURL: info.WebpageURL,
		UploadDate: info.UploadDate,
	}

	if summary.Title == "" {
		summary.Title = defaultTitle
	}
	if summary.Uploader == "" {
		summary.Uploader = defaultUploader
	}
	if summary.Thumbnail == "" {
		summary.Thumbnail = defaultThumbnail
	}
	if summary.WebpageURL == "" {
		summary.WebpageURL = requestURL
	}

	if info.Description != "" {
		desc := truncate(info.Description, descriptionLimit) + "..."
		summary.Description = &desc
	}

	return summary
}

// truncate cuts s to at most limit runes without splitting a character.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
