package meta

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/graph"
)

// =============================================================================
// PERFORMANCE DATASETS
// Daily insights at account, campaign, adset and ad level over one shared
// time window. All levels share the metric and action column mapping.
// =============================================================================

var (
	accountInsightsFields = []string{
		"date_start", "spend", "impressions", "reach", "clicks",
		"unique_clicks", "unique_inline_link_clicks",
		"actions", "action_values",
	}
	campaignInsightsFields = []string{
		"date_start", "campaign_id", "spend", "impressions", "reach", "clicks",
		"unique_clicks", "unique_inline_link_clicks", "actions", "action_values", "campaign_name",
	}
	adsetInsightsFields = []string{
		"date_start", "adset_id", "adset_name", "campaign_id", "spend", "impressions", "reach",
		"clicks", "unique_clicks", "unique_inline_link_clicks", "actions", "action_values",
	}
	adInsightsFields = []string{
		"date_start", "ad_id", "adset_id", "campaign_id", "spend", "impressions", "reach", "clicks",
		"unique_clicks", "unique_inline_link_clicks", "actions", "action_values",
		"quality_ranking", "engagement_rate_ranking", "conversion_rate_ranking", "relevance_score",
	}
)

// insights runs one insights call for an account at the given level.
func (s *Service) insights(ctx context.Context, accountID, level string, fields []string, window DateWindow) (*graph.CallResult, error) {
	return s.client.Call(ctx, graph.CallSpec{
		ObjectID: accountID,
		Edge:     "insights",
		Fields:   fields,
		Params: map[string]string{
			"level":          level,
			"time_increment": "1",
		},
		TimeRange: &graph.TimeRange{Since: window.Since, Until: window.Until},
	})
}

// metricValues fills the shared metric columns into row.
func metricValues(row Row, rec Row) {
	row["spend"] = toFloat(rec["spend"])
	row["impressions"] = toInt(rec["impressions"])
	row["reach"] = toInt(rec["reach"])
	row["clicks"] = toInt(rec["clicks"])
	row["unique_clicks"] = toInt(rec["unique_clicks"])
	row["unique_inline_link_clicks"] = toInt(rec["unique_inline_link_clicks"])
}

// actionValues fills the engagement and funnel columns derived from the
// actions and action_values lists.
func actionValues(row Row, rec Row) {
	actions := rec["actions"]
	row["likes"] = ActionValue(actions, "like")
	row["comments"] = ActionValue(actions, "comment")
	row["shares"] = ActionValue(actions, "post_share")
	row["link_clicks"] = ActionValue(actions, "link_click")
	row["landing_page_views"] = ActionValue(actions, "landing_page_view")
	row["content_views"] = ActionValue(actions, "view_content")
	row["add_to_cart"] = ActionValue(actions, "add_to_cart")
	row["initiate_checkout"] = ActionValue(actions, "initiate_checkout")
	row["purchase"] = ActionValue(actions, "purchase")
	row["purchase_value"] = ActionValue(rec["action_values"], "purchase")
}

// AccountPerformance extracts daily account-level metrics.
func (s *Service) AccountPerformance(ctx context.Context, accounts []AdAccount, window DateWindow) (*Table, error) {
	t := NewTable("account_performance")
	log.Info().Int("accounts", len(accounts)).Msg("fetching account performance")

	for _, acc := range accounts {
		res, err := s.insights(ctx, acc.ID, "account", accountInsightsFields, window)
		if err != nil {
			return nil, err
		}
		if !res.Complete {
			log.Warn().Str("account_id", acc.ID).Str("reason", res.Reason).
				Msg("account insights incomplete")
		}

		for _, rec := range res.Records {
			row := Row{
				"account_id":   acc.ID,
				"account_name": acc.Name,
				"currency":     acc.Currency,
				"date":         toString(rec["date_start"]),
			}
			metricValues(row, rec)
			actionValues(row, rec)
			t.Append(row)
		}
	}

	log.Info().Int("total", len(t.Rows)).Msg("account performance rows loaded")
	return t, nil
}

// CampaignPerformance extracts daily campaign-level metrics with ISO week,
// month and year derived from the row date.
func (s *Service) CampaignPerformance(ctx context.Context, accounts []AdAccount, window DateWindow) (*Table, error) {
	t := NewTable("campaign_performance")
	log.Info().Int("accounts", len(accounts)).Msg("fetching campaign performance")

	for _, acc := range accounts {
		res, err := s.insights(ctx, acc.ID, "campaign", campaignInsightsFields, window)
		if err != nil {
			return nil, err
		}
		if !res.Complete {
			log.Warn().Str("account_id", acc.ID).Str("reason", res.Reason).
				Msg("campaign insights incomplete")
		}

		for _, rec := range res.Records {
			date := toString(rec["date_start"])
			week, month, year := dateParts(date)
			row := Row{
				"account_id":    acc.ID,
				"currency":      acc.Currency,
				"campaign_id":   toString(rec["campaign_id"]),
				"campaign_name": toString(rec["campaign_name"]),
				"date":          date,
				"week":          week,
				"month":         month,
				"year":          year,
			}
			metricValues(row, rec)
			actionValues(row, rec)
			t.Append(row)
		}
	}

	log.Info().Int("total", len(t.Rows)).Msg("campaign performance rows loaded")
	return t, nil
}

// AdSetPerformance extracts daily ad-set-level metrics.
func (s *Service) AdSetPerformance(ctx context.Context, accounts []AdAccount, window DateWindow) (*Table, error) {
	t := NewTable("adset_performance")
	log.Info().Int("accounts", len(accounts)).Msg("fetching ad set performance")

	for _, acc := range accounts {
		res, err := s.insights(ctx, acc.ID, "adset", adsetInsightsFields, window)
		if err != nil {
			return nil, err
		}
		if !res.Complete {
			log.Warn().Str("account_id", acc.ID).Str("reason", res.Reason).
				Msg("ad set insights incomplete")
		}

		for _, rec := range res.Records {
			row := Row{
				"account_id":  acc.ID,
				"currency":    acc.Currency,
				"campaign_id": toString(rec["campaign_id"]),
				"adset_id":    toString(rec["adset_id"]),
				"adset_name":  toString(rec["adset_name"]),
				"date":        toString(rec["date_start"]),
			}
			metricValues(row, rec)
			actionValues(row, rec)
			t.Append(row)
		}
	}

	log.Info().Int("total", len(t.Rows)).Msg("ad set performance rows loaded")
	return t, nil
}

// AdPerformance extracts daily ad-level metrics with delivery rankings.
func (s *Service) AdPerformance(ctx context.Context, accounts []AdAccount, window DateWindow) (*Table, error) {
	t := NewTable("ad_performance")
	log.Info().Int("accounts", len(accounts)).Msg("fetching ad performance")

	for _, acc := range accounts {
		res, err := s.insights(ctx, acc.ID, "ad", adInsightsFields, window)
		if err != nil {
			return nil, err
		}
		if !res.Complete {
			log.Warn().Str("account_id", acc.ID).Str("reason", res.Reason).
				Msg("ad insights incomplete")
		}

		for _, rec := range res.Records {
			t.Append(adPerformanceRow(acc.ID, rec))
		}
	}

	log.Info().Int("total", len(t.Rows)).Msg("ad performance rows loaded")
	return t, nil
}

// adPerformanceRow maps one ad-level insights record; shared with the
// breakdown extraction.
func adPerformanceRow(accountID string, rec Row) Row {
	row := Row{
		"account_id":  accountID,
		"ad_id":       toString(rec["ad_id"]),
		"adset_id":    toString(rec["adset_id"]),
		"campaign_id": toString(rec["campaign_id"]),
		"date":        toString(rec["date_start"]),
	}
	metricValues(row, rec)
	actionValues(row, rec)
	row["quality_ranking"] = toString(rec["quality_ranking"])
	row["engagement_rate_ranking"] = toString(rec["engagement_rate_ranking"])
	row["conversion_rate_ranking"] = toString(rec["conversion_rate_ranking"])
	row["relevance_score"] = toString(rec["relevance_score"])
	return row
}
