// Package media acquires creative assets for a client run. Images and
// videos are downloaded from the ad platform CDN, recompressed for
// downstream analysis, and uploaded to per-client object storage. Every
// path degrades instead of failing: a creative whose asset cannot be
// acquired keeps its row, only without a stored reference.
package media

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/objectstore"
	"github.com/metalake/ads-core/internal/observability"
)

// VideoSource resolves a video ID to a signed source URL. Signed URLs
// expire within minutes, so resolution happens immediately before each
// download and is never cached.
type VideoSource interface {
	GetObject(ctx context.Context, objectID string, fields []string) (map[string]any, error)
}

// StoreConfig tunes asset acquisition.
type StoreConfig struct {
	Bucket       string
	FFmpegPath   string
	ImageTimeout time.Duration
	VideoTimeout time.Duration
	MaxDimension int
	JPEGQuality  int
	VideoCRF     string
	VideoScale   string
}

// DefaultStoreConfig returns acquisition settings sized for analysis
// workloads rather than archival fidelity.
func DefaultStoreConfig(bucket string) StoreConfig {
	return StoreConfig{
		Bucket:       bucket,
		FFmpegPath:   "ffmpeg",
		ImageTimeout: 30 * time.Second,
		VideoTimeout: 300 * time.Second,
		MaxDimension: 1920,
		JPEGQuality:  65,
		VideoCRF:     "32",
		VideoScale:   "480:-2",
	}
}

// Store downloads, compresses and uploads creative assets.
type Store struct {
	cfg    StoreConfig
	blobs  objectstore.ObjectStore
	source VideoSource
	client *http.Client
}

// NewStore wires a media store against an object store and a video source.
// The source may be nil when video acquisition is disabled.
func NewStore(cfg StoreConfig, blobs objectstore.ObjectStore, source VideoSource) *Store {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = 30 * time.Second
	}
	if cfg.VideoTimeout <= 0 {
		cfg.VideoTimeout = 300 * time.Second
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 1920
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 65
	}
	if cfg.VideoCRF == "" {
		cfg.VideoCRF = "32"
	}
	if cfg.VideoScale == "" {
		cfg.VideoScale = "480:-2"
	}
	return &Store{
		cfg:    cfg,
		blobs:  blobs,
		source: source,
		client: &http.Client{},
	}
}

// StoreImage downloads the creative image, recompresses it and uploads it
// as {creativeID}_image{ext} at the bucket root. It returns the stored
// object URL, or the original remote URL when download or upload fails.
// The remote URL stays valid for images, so the row keeps a usable
// reference either way. An empty imageURL returns an empty reference.
func (s *Store) StoreImage(ctx context.Context, creativeID, imageURL string) string {
	if imageURL == "" {
		return ""
	}

	data, err := s.downloadImage(ctx, imageURL)
	if err != nil {
		log.Warn().Str("creative_id", creativeID).Err(err).
			Msg("image download failed, keeping original url")
		return imageURL
	}
	log.Debug().Str("creative_id", creativeID).Int("bytes", len(data)).
		Msg("image downloaded")

	var ext string
	compressed, err := compressImage(data, s.cfg.MaxDimension, s.cfg.JPEGQuality)
	if err != nil {
		log.Warn().Str("creative_id", creativeID).Err(err).
			Msg("image compression failed, storing original")
		ext = imageExtension(imageURL)
	} else {
		log.Debug().Str("creative_id", creativeID).
			Int("original_bytes", len(data)).Int("compressed_bytes", len(compressed)).
			Msg("image compressed")
		data = compressed
		ext = ".jpg"
	}

	key := creativeID + "_image" + ext
	if err := s.blobs.PutObject(ctx, s.cfg.Bucket, key, data, imageContentType(ext)); err != nil {
		log.Error().Str("creative_id", creativeID).Str("key", key).Err(err).
			Msg("image upload failed, keeping original url")
		return imageURL
	}

	ref := objectstore.URL(s.cfg.Bucket, key)
	observability.MediaStored.WithLabelValues("image").Inc()
	log.Info().Str("creative_id", creativeID).Str("url", ref).Msg("image stored")
	return ref
}

// StoreVideo resolves a fresh signed source URL for the video, downloads
// it, recompresses it with ffmpeg and uploads it as
// {creativeID}_video{ext}. It returns the stored object URL, or an empty
// reference on any failure: signed URLs expire, so there is no original
// URL worth keeping.
func (s *Store) StoreVideo(ctx context.Context, creativeID, videoID string) string {
	if videoID == "" {
		return ""
	}
	if s.source == nil {
		log.Warn().Str("creative_id", creativeID).
			Msg("no video source configured, skipping video")
		return ""
	}

	sourceURL, err := s.resolveVideoSource(ctx, videoID)
	if err != nil || sourceURL == "" {
		log.Warn().Str("creative_id", creativeID).Str("video_id", videoID).Err(err).
			Msg("video source resolution failed, skipping")
		return ""
	}

	// Download right away: the signed URL is only briefly valid.
	data, err := s.downloadVideo(ctx, sourceURL)
	if err != nil {
		log.Warn().Str("creative_id", creativeID).Str("video_id", videoID).Err(err).
			Msg("video download failed, skipping")
		return ""
	}
	log.Debug().Str("creative_id", creativeID).Int("bytes", len(data)).
		Msg("video downloaded")

	var ext string
	compressed, err := s.compressVideo(ctx, data)
	if err != nil {
		log.Warn().Str("creative_id", creativeID).Err(err).
			Msg("video compression failed, storing original")
		ext = videoExtension(sourceURL)
	} else {
		log.Debug().Str("creative_id", creativeID).
			Int("original_bytes", len(data)).Int("compressed_bytes", len(compressed)).
			Msg("video compressed")
		data = compressed
		ext = ".mp4"
	}

	key := creativeID + "_video" + ext
	if err := s.blobs.PutObject(ctx, s.cfg.Bucket, key, data, videoContentType(ext)); err != nil {
		log.Error().Str("creative_id", creativeID).Str("key", key).Err(err).
			Msg("video upload failed")
		return ""
	}

	ref := objectstore.URL(s.cfg.Bucket, key)
	observability.MediaStored.WithLabelValues("video").Inc()
	log.Info().Str("creative_id", creativeID).Str("url", ref).Msg("video stored")
	return ref
}
