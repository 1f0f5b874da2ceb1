package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/media"
	"github.com/metalake/ads-core/internal/meta"
)

// RunnerOptions tunes the per-client extraction.
type RunnerOptions struct {
	CreativeLimit  int
	DownloadImages bool
	DownloadVideos bool

	// TargetImages and TargetVideos override the per-client media budget.
	// Zero derives one asset per enabled kind.
	TargetImages int
	TargetVideos int

	// AccountDelay spaces the creatives scan across accounts.
	// CategoryDelay pauses between dataset categories (settings,
	// recommendations, performance, activities).
	AccountDelay  time.Duration
	CategoryDelay time.Duration

	Breakdowns meta.BreakdownConfig
}

// ClientRunner extracts every enabled dataset for one client's business.
type ClientRunner struct {
	svc   *meta.Service
	flags Flags
	dates RunDates
	opts  RunnerOptions
}

// NewClientRunner wires a runner for one client run.
func NewClientRunner(svc *meta.Service, flags Flags, dates RunDates, opts RunnerOptions) *ClientRunner {
	return &ClientRunner{svc: svc, flags: flags, dates: dates, opts: opts}
}

// Run walks the enabled datasets in catalog order and returns the
// extracted tables. Dataset-level API failures degrade inside the handlers
// to partial tables; an error return here means the run itself was cut
// short (context cancellation).
func (r *ClientRunner) Run(ctx context.Context, businessID string) (map[string]*meta.Table, error) {
	tables := map[string]*meta.Table{}

	var accounts []meta.AdAccount
	if r.flags.NeedsAccounts() {
		log.Info().Str("business_id", businessID).Msg("fetching ad accounts")
		accs, err := r.svc.FetchAdAccounts(ctx, businessID)
		if err != nil {
			return nil, err
		}
		accounts = accs
		if r.flags.Enabled("accounts") {
			tables["accounts"] = meta.AccountsTable(accounts)
		}
	}

	if err := r.settings(ctx, accounts, tables); err != nil {
		return nil, err
	}
	if err := r.recommendations(ctx, businessID, tables); err != nil {
		return nil, err
	}
	if err := r.performance(ctx, accounts, tables); err != nil {
		return nil, err
	}
	if err := r.activities(ctx, accounts, tables); err != nil {
		return nil, err
	}

	return tables, nil
}

func (r *ClientRunner) settings(ctx context.Context, accounts []meta.AdAccount, tables map[string]*meta.Table) error {
	if r.flags.Enabled("campaigns") {
		t, err := r.svc.Campaigns(ctx, accounts)
		if err != nil {
			return err
		}
		tables["campaigns"] = t
	}
	if r.flags.Enabled("adsets") {
		t, err := r.svc.AdSets(ctx, accounts)
		if err != nil {
			return err
		}
		tables["adsets"] = t
	}
	if r.flags.Enabled("ads") {
		t, err := r.svc.Ads(ctx, accounts)
		if err != nil {
			return err
		}
		tables["ads"] = t
	}
	if r.flags.Enabled("ad_creatives") {
		var budget *media.Budget
		if r.opts.TargetImages > 0 || r.opts.TargetVideos > 0 {
			budget = media.NewBudget(r.opts.TargetImages, r.opts.TargetVideos)
		}
		t, err := r.svc.Creatives(ctx, accounts, meta.CreativeOptions{
			Limit:          r.opts.CreativeLimit,
			DownloadImages: r.opts.DownloadImages,
			DownloadVideos: r.opts.DownloadVideos,
			Budget:         budget,
			AccountDelay:   r.opts.AccountDelay,
		})
		if err != nil {
			return err
		}
		tables["ad_creatives"] = t
	}
	return nil
}

func (r *ClientRunner) recommendations(ctx context.Context, businessID string, tables map[string]*meta.Table) error {
	wanted := r.flags.Enabled("account_recommendations") ||
		r.flags.Enabled("adset_recommendations") ||
		r.flags.Enabled("ad_recommendations")
	if !wanted {
		return nil
	}
	if err := r.pause(ctx); err != nil {
		return err
	}

	if r.flags.Enabled("account_recommendations") {
		t, err := r.svc.AccountRecommendations(ctx, businessID)
		if err != nil {
			return err
		}
		tables["account_recommendations"] = t
	}
	if r.flags.Enabled("adset_recommendations") {
		t, err := r.svc.AdSetRecommendations(ctx, businessID)
		if err != nil {
			return err
		}
		tables["adset_recommendations"] = t
	}
	if r.flags.Enabled("ad_recommendations") {
		t, err := r.svc.AdRecommendations(ctx, businessID)
		if err != nil {
			return err
		}
		tables["ad_recommendations"] = t
	}
	return nil
}

func (r *ClientRunner) performance(ctx context.Context, accounts []meta.AdAccount, tables map[string]*meta.Table) error {
	wantBreakdowns := r.flags.Enabled(BreakdownsFlag) && len(r.opts.Breakdowns.AdCombinations()) > 0
	wanted := r.flags.Enabled("account_performance") ||
		r.flags.Enabled("campaign_performance") ||
		r.flags.Enabled("adset_performance") ||
		r.flags.Enabled("ad_performance") ||
		wantBreakdowns
	if !wanted {
		return nil
	}
	if err := r.pause(ctx); err != nil {
		return err
	}

	window := r.dates.Window()
	if r.flags.Enabled("account_performance") {
		t, err := r.svc.AccountPerformance(ctx, accounts, window)
		if err != nil {
			return err
		}
		tables["account_performance"] = t
	}
	if r.flags.Enabled("campaign_performance") {
		t, err := r.svc.CampaignPerformance(ctx, accounts, window)
		if err != nil {
			return err
		}
		tables["campaign_performance"] = t
	}
	if r.flags.Enabled("adset_performance") {
		t, err := r.svc.AdSetPerformance(ctx, accounts, window)
		if err != nil {
			return err
		}
		tables["adset_performance"] = t
	}
	if r.flags.Enabled("ad_performance") {
		t, err := r.svc.AdPerformance(ctx, accounts, window)
		if err != nil {
			return err
		}
		tables["ad_performance"] = t
	}
	if wantBreakdowns {
		bt, err := r.svc.AdPerformanceBreakdowns(ctx, accounts, window, r.opts.Breakdowns.AdCombinations())
		if err != nil {
			return err
		}
		for name, t := range bt {
			tables[name] = t
		}
	}
	return nil
}

func (r *ClientRunner) activities(ctx context.Context, accounts []meta.AdAccount, tables map[string]*meta.Table) error {
	if !r.flags.Enabled("activities") {
		return nil
	}
	if err := r.pause(ctx); err != nil {
		return err
	}

	t, err := r.svc.Activities(ctx, accounts, r.dates.Since)
	if err != nil {
		return err
	}
	tables["activities"] = t
	return nil
}

// pause waits the configured category delay, bailing out on cancellation.
func (r *ClientRunner) pause(ctx context.Context) error {
	if r.opts.CategoryDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.opts.CategoryDelay):
		return nil
	}
}
