// Package pipeline orchestrates the batch extraction run: per-client
// dataset extraction, raw archival and the warehouse load.
// Clients run sequentially against the shared API quota, each inside its
// own error boundary so one bad client never sinks the batch.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/archive"
	"github.com/metalake/ads-core/internal/credentials"
	"github.com/metalake/ads-core/internal/graph"
	"github.com/metalake/ads-core/internal/media"
	"github.com/metalake/ads-core/internal/meta"
	"github.com/metalake/ads-core/internal/objectstore"
	"github.com/metalake/ads-core/internal/observability"
)

// Client run outcomes.
const (
	StatusSucceeded = "succeeded"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// ClientResult is the typed outcome of one client's run.
type ClientResult struct {
	Slug   string `json:"slug"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Tables int    `json:"tables"`
	Rows   int64  `json:"rows"`
}

// Report summarizes a batch run.
type Report struct {
	RunID          string         `json:"run_id"`
	Processed      int            `json:"processed"`
	Failed         int            `json:"failed"`
	Skipped        int            `json:"skipped"`
	ExtractionDate string         `json:"extraction_date"`
	Results        []ClientResult `json:"results"`
}

// Warehouse loads one client's tables into its target project. Satisfied
// by warehouse.Sink.
type Warehouse interface {
	UploadTables(ctx context.Context, project string, tables map[string]*meta.Table, suffix string) error
}

// Archiver snapshots raw tables and run reports. Satisfied by
// archive.Writer.
type Archiver interface {
	Archive(ctx context.Context, slug, date, runID string, tables map[string]*meta.Table) *archive.Result
	StoreReport(ctx context.Context, date, runID string, report any) string
}

// Config tunes the batch run.
type Config struct {
	DaysBack      int
	ClientDelay   time.Duration
	AccountDelay  time.Duration
	CategoryDelay time.Duration

	Flags      Flags
	Breakdowns meta.BreakdownConfig

	CreativeLimit  int
	DownloadImages bool
	DownloadVideos bool
	TargetImages   int
	TargetVideos   int

	// MediaBucketSuffix is appended to the client slug to name its media
	// bucket.
	MediaBucketSuffix string
}

// Pipeline runs the batch. The object store doubles as media destination
// and credential source; warehouse and archiver may be nil to skip those
// stages.
type Pipeline struct {
	cfg    Config
	client *graph.Client
	creds  *credentials.Loader
	blobs  objectstore.ObjectStore
	wh     Warehouse
	arch   Archiver
	now    func() time.Time
}

// New wires a pipeline. Nil flags fall back to the production defaults.
func New(cfg Config, client *graph.Client, creds *credentials.Loader, blobs objectstore.ObjectStore, wh Warehouse, arch Archiver) *Pipeline {
	if cfg.Flags == nil {
		cfg.Flags = DefaultFlags()
	}
	if cfg.MediaBucketSuffix == "" {
		cfg.MediaBucketSuffix = "-meta-ads"
	}
	return &Pipeline{
		cfg:    cfg,
		client: client,
		creds:  creds,
		blobs:  blobs,
		wh:     wh,
		arch:   arch,
		now:    time.Now,
	}
}

// Run executes the batch: load the roster, then extract, archive and load
// every client in order. Roster failures abort the run; per-client
// failures are recorded and the batch continues.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := p.now()
	dates := NewRunDates(start, p.cfg.DaysBack)
	report := &Report{
		RunID:          uuid.NewString(),
		ExtractionDate: dates.Yesterday,
	}

	clients, err := p.creds.Clients(ctx)
	if err != nil {
		return nil, err
	}

	log.Info().Str("run_id", report.RunID).Int("clients", len(clients)).
		Strs("datasets", p.cfg.Flags.Names()).Str("since", dates.Since).
		Str("extraction_date", dates.Yesterday).Msg("starting pipeline run")

	for i, c := range clients {
		if i > 0 && p.cfg.ClientDelay > 0 {
			log.Info().Dur("delay", p.cfg.ClientDelay).
				Msg("waiting between clients to spread API load")
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(p.cfg.ClientDelay):
			}
		}

		res := p.runClient(ctx, c, dates, report.RunID)
		report.Results = append(report.Results, res)
		observability.ClientRuns.WithLabelValues(res.Status).Inc()
		switch res.Status {
		case StatusSucceeded:
			report.Processed++
		case StatusSkipped:
			report.Skipped++
		default:
			report.Failed++
		}

		if err := ctx.Err(); err != nil {
			return report, err
		}
	}

	observability.PipelineRuns.Inc()
	observability.RunDuration.Observe(p.now().Sub(start).Seconds())
	if p.arch != nil {
		p.arch.StoreReport(ctx, report.ExtractionDate, report.RunID, report)
	}
	log.Info().Str("run_id", report.RunID).
		Int("processed", report.Processed).Int("failed", report.Failed).
		Int("skipped", report.Skipped).Str("extraction_date", report.ExtractionDate).
		Msg("pipeline run complete")
	return report, nil
}

func (p *Pipeline) runClient(ctx context.Context, c credentials.Client, dates RunDates, runID string) ClientResult {
	res := ClientResult{Slug: c.Slug}
	log.Info().Str("client", c.Slug).Msg("processing client")

	if !validBusinessID(c.BusinessID) {
		log.Warn().Str("client", c.Slug).Str("business_id", c.BusinessID).
			Msg("skipping client with invalid business id")
		res.Status = StatusSkipped
		res.Reason = fmt.Sprintf("invalid business id %q", c.BusinessID)
		return res
	}

	runner := NewClientRunner(p.serviceFor(ctx, c), p.cfg.Flags, dates, RunnerOptions{
		CreativeLimit:  p.cfg.CreativeLimit,
		DownloadImages: p.cfg.DownloadImages,
		DownloadVideos: p.cfg.DownloadVideos,
		TargetImages:   p.cfg.TargetImages,
		TargetVideos:   p.cfg.TargetVideos,
		AccountDelay:   p.cfg.AccountDelay,
		CategoryDelay:  p.cfg.CategoryDelay,
		Breakdowns:     p.cfg.Breakdowns,
	})

	tables, err := runner.Run(ctx, c.BusinessID)
	if err != nil {
		log.Error().Str("client", c.Slug).Err(err).Msg("client extraction failed")
		res.Status = StatusFailed
		res.Reason = err.Error()
		return res
	}

	res.Tables = len(tables)
	for name, t := range tables {
		if t == nil {
			continue
		}
		rows := int64(len(t.Rows))
		res.Rows += rows
		observability.RowsExtracted.WithLabelValues(name).Add(float64(rows))
	}

	if res.Rows == 0 {
		log.Warn().Str("client", c.Slug).Msg("no data extracted, skipping load")
		res.Status = StatusSkipped
		res.Reason = "no data extracted"
		return res
	}

	if p.arch != nil {
		p.arch.Archive(ctx, c.Slug, dates.Yesterday, runID, tables)
	}

	if c.ProjectID == "" {
		log.Warn().Str("client", c.Slug).Msg("no project id configured, skipping warehouse load")
		res.Status = StatusSkipped
		res.Reason = "no project id configured"
		return res
	}

	if p.wh != nil {
		if err := p.wh.UploadTables(ctx, c.ProjectID, tables, dates.Yesterday); err != nil {
			log.Error().Str("client", c.Slug).Err(err).Msg("warehouse load failed")
			res.Status = StatusFailed
			res.Reason = err.Error()
			return res
		}
	}

	log.Info().Str("client", c.Slug).Int("tables", res.Tables).Int64("rows", res.Rows).
		Msg("client processed")
	res.Status = StatusSucceeded
	return res
}

// serviceFor builds the per-client dataset service. Media acquisition gets
// the client's own bucket; a missing object store just disables media.
func (p *Pipeline) serviceFor(ctx context.Context, c credentials.Client) *meta.Service {
	var store meta.MediaStore
	if p.blobs != nil && (p.cfg.DownloadImages || p.cfg.DownloadVideos) {
		bucket := c.Slug + p.cfg.MediaBucketSuffix
		if err := p.blobs.EnsureBucket(ctx, bucket); err != nil {
			log.Warn().Str("client", c.Slug).Str("bucket", bucket).Err(err).
				Msg("media bucket unavailable, stores will fall back")
		}
		store = media.NewStore(media.DefaultStoreConfig(bucket), p.blobs, p.client)
	}
	return meta.NewService(p.client, store)
}

// validBusinessID rejects empty ids, the placeholder id used for
// not-yet-onboarded clients, and anything non-numeric.
func validBusinessID(id string) bool {
	if id == "" || id == "123" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
