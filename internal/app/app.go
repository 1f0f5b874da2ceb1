// Package app wires the extraction service components from configuration.
// Both the batch runner and the HTTP server build the same stack.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/archive"
	"github.com/metalake/ads-core/internal/config"
	"github.com/metalake/ads-core/internal/credentials"
	"github.com/metalake/ads-core/internal/graph"
	"github.com/metalake/ads-core/internal/meta"
	"github.com/metalake/ads-core/internal/objectstore"
	"github.com/metalake/ads-core/internal/pipeline"
	"github.com/metalake/ads-core/internal/warehouse"
)

// Components holds the wired service stack.
type Components struct {
	Blobs    objectstore.ObjectStore
	Creds    *credentials.Loader
	Client   *graph.Client
	Pipeline *pipeline.Pipeline
	// Service is the API-facing dataset service without media storage,
	// used for token health probes.
	Service *meta.Service

	closers []func()
}

// Close releases held resources in reverse wiring order.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build assembles the full stack from configuration.
func Build(ctx context.Context, cfg config.Config) (*Components, error) {
	blobs, err := newObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	creds := credentials.NewLoader(credentials.Config{
		Bucket:    cfg.ObjectStore.ConfigBucket,
		TokenKey:  cfg.Credentials.TokenKey,
		RosterKey: cfg.Credentials.RosterKey,
	}, blobs)
	client := newGraphClient(cfg, creds)

	c := &Components{
		Blobs:   blobs,
		Creds:   creds,
		Client:  client,
		Service: meta.NewService(client, nil),
	}

	var wh pipeline.Warehouse
	if cfg.Warehouse.DSN != "" {
		sink, err := warehouse.NewSink(warehouse.Config{
			DSN:     cfg.Warehouse.DSN,
			Dataset: cfg.Warehouse.Dataset,
		})
		if err != nil {
			return nil, fmt.Errorf("init warehouse: %w", err)
		}
		c.closers = append(c.closers, sink.Close)
		wh = sink
	} else {
		log.Warn().Msg("no warehouse dsn configured, extraction only")
	}

	var arch pipeline.Archiver
	if cfg.Extraction.ArchiveRaw {
		arch = archive.NewWriter(archive.Config{Bucket: cfg.ObjectStore.ArchiveBucket}, blobs)
	}

	c.Pipeline = pipeline.New(pipelineConfig(cfg), client, creds, blobs, wh, arch)
	return c, nil
}

// newObjectStore selects S3 when an endpoint is configured, otherwise the
// local directory store.
func newObjectStore(ctx context.Context, cfg config.Config) (objectstore.ObjectStore, error) {
	if cfg.ObjectStore.Endpoint == "" {
		log.Info().Str("dir", cfg.ObjectStore.LocalDir).Msg("using local object store")
		return objectstore.NewLocalStore(cfg.ObjectStore.LocalDir), nil
	}

	s3, err := objectstore.NewS3Client(objectstore.Config{
		EndpointURL:     cfg.ObjectStore.Endpoint,
		Region:          cfg.ObjectStore.Region,
		AccessKeyID:     cfg.ObjectStore.AccessKey,
		SecretAccessKey: cfg.ObjectStore.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}
	if err := s3.Ping(ctx); err != nil {
		return nil, fmt.Errorf("object store %s unreachable: %w", cfg.ObjectStore.Endpoint, err)
	}
	return s3, nil
}

// newGraphClient wires the API client. The token comes from config when
// set, otherwise from the secret blob, resolved lazily so rotations are
// picked up between calls.
func newGraphClient(cfg config.Config, creds *credentials.Loader) *graph.Client {
	gcfg := graph.DefaultClientConfig()
	gcfg.Host = cfg.API.Host
	gcfg.Version = cfg.API.Version
	gcfg.Timeout = cfg.APITimeout()
	gcfg.MaxRetries = cfg.API.MaxRetries
	gcfg.BaseDelay = cfg.BaseDelay()
	gcfg.SleepDelay = cfg.SleepDelay()
	gcfg.RateLimit = cfg.API.RateLimit
	gcfg.RateBurst = cfg.API.RateBurst

	if cfg.API.AccessToken != "" {
		gcfg.Tokens = graph.StaticToken(cfg.API.AccessToken)
	} else {
		gcfg.Tokens = graph.TokenFunc(func() (string, error) {
			return creds.AccessToken(context.Background())
		})
	}
	return graph.NewClient(gcfg)
}

func pipelineConfig(cfg config.Config) pipeline.Config {
	return pipeline.Config{
		DaysBack:          cfg.Extraction.DaysBack,
		ClientDelay:       cfg.ClientDelay(),
		AccountDelay:      cfg.AccountDelay(),
		CategoryDelay:     cfg.CategoryDelay(),
		Flags:             pipeline.Flags(cfg.Extraction.Datasets),
		Breakdowns:        meta.BreakdownConfig(cfg.Extraction.Breakdowns),
		CreativeLimit:     cfg.Extraction.CreativeLimit,
		DownloadImages:    cfg.Extraction.DownloadImages,
		DownloadVideos:    cfg.Extraction.DownloadVideos,
		TargetImages:      cfg.Extraction.TargetImages,
		TargetVideos:      cfg.Extraction.TargetVideos,
		MediaBucketSuffix: cfg.ObjectStore.MediaBucketSuffix,
	}
}
