package meta

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/graph"
)

// =============================================================================
// SETTINGS DATASETS
// Campaign, ad set and ad configuration, one edge call per ad account.
// =============================================================================

var campaignFields = []string{
	"id", "name", "created_time", "start_time", "updated_time", "effective_status",
	"objective", "bid_strategy", "promoted_object", "configured_status",
	"smart_promotion_type", "primary_attribution", "status", "stop_time",
}

// Campaigns fetches campaign settings across the roster.
func (s *Service) Campaigns(ctx context.Context, accounts []AdAccount) (*Table, error) {
	t := NewTable("campaigns")
	log.Info().Int("accounts", len(accounts)).Msg("retrieving campaigns")

	for _, acc := range accounts {
		res, err := s.client.Call(ctx, graph.CallSpec{
			ObjectID: acc.ID,
			Edge:     "campaigns",
			Fields:   campaignFields,
		})
		if err != nil {
			return nil, err
		}
		if !res.Complete {
			log.Warn().Str("account_id", acc.ID).Str("reason", res.Reason).
				Msg("campaign fetch incomplete")
		}

		for _, c := range res.Records {
			t.Append(Row{
				"account_id":           acc.ID,
				"account_name":         acc.Name,
				"currency":             acc.Currency,
				"campaign_id":          toString(c["id"]),
				"campaign_name":        toString(c["name"]),
				"created_time":         dateOnly(c["created_time"]),
				"start_time":           dateOnly(c["start_time"]),
				"updated_time":         dateOnly(c["updated_time"]),
				"effective_status":     toString(c["effective_status"]),
				"objective":            toString(c["objective"]),
				"bid_strategy":         toString(c["bid_strategy"]),
				"promoted_object":      jsonField(c["promoted_object"]),
				"configured_status":    toString(c["configured_status"]),
				"smart_promotion_type": toString(c["smart_promotion_type"]),
				"primary_attribution":  toString(c["primary_attribution"]),
				"status":               toString(c["status"]),
				"stop_time":            dateOnly(c["stop_time"]),
			})
		}
		log.Debug().Str("account_id", acc.ID).Int("count", len(res.Records)).Msg("campaigns fetched")
	}

	log.Info().Int("total", len(t.Rows)).Msg("campaigns processed")
	return t, nil
}

var adsetFields = []string{
	"id", "name", "campaign_id", "created_time", "end_time", "updated_time", "effective_status",
	"attribution_spec", "bid_adjustments", "bid_amount", "bid_info", "bid_strategy",
	"destination_type", "issues_info", "learning_stage_info",
	"optimization_goal", "optimization_sub_event", "promoted_object", "targeting",
	"targeting_optimization_types", "asset_feed_id", "is_dynamic_creative",
}

// AdSets fetches ad set settings across the roster.
func (s *Service) AdSets(ctx context.Context, accounts []AdAccount) (*Table, error) {
	t := NewTable("adsets")
	log.Info().Int("accounts", len(accounts)).Msg("retrieving ad sets")

	for _, acc := range accounts {
		res, err := s.client.Call(ctx, graph.CallSpec{
			ObjectID: acc.ID,
			Edge:     "adsets",
			Fields:   adsetFields,
		})
		if err != nil {
			return nil, err
		}
		if !res.Complete {
			log.Warn().Str("account_id", acc.ID).Str("reason", res.Reason).
				Msg("ad set fetch incomplete")
		}

		for _, a := range res.Records {
			t.Append(Row{
				"account_id":                   acc.ID,
				"account_name":                 acc.Name,
				"currency":                     acc.Currency,
				"campaign_id":                  toString(a["campaign_id"]),
				"adset_id":                     toString(a["id"]),
				"adset_name":                   toString(a["name"]),
				"created_time":                 dateOnly(a["created_time"]),
				"end_time":                     dateOnly(a["end_time"]),
				"updated_time":                 dateOnly(a["updated_time"]),
				"effective_status":             toString(a["effective_status"]),
				"bid_adjustments":              jsonField(a["bid_adjustments"]),
				"bid_amount":                   nullableFloat(a["bid_amount"]),
				"bid_info":                     jsonField(a["bid_info"]),
				"bid_strategy":                 toString(a["bid_strategy"]),
				"optimization_goal":            toString(a["optimization_goal"]),
				"optimization_sub_event":       toString(a["optimization_sub_event"]),
				"attribution_spec":             jsonField(a["attribution_spec"]),
				"destination_type":             toString(a["destination_type"]),
				"issues_info":                  jsonField(a["issues_info"]),
				"learning_stage_info":          jsonField(a["learning_stage_info"]),
				"promoted_object":              jsonField(a["promoted_object"]),
				"targeting":                    jsonField(a["targeting"]),
				"targeting_optimization_types": jsonField(a["targeting_optimization_types"]),
				"asset_feed_id":                toString(a["asset_feed_id"]),
				"is_dynamic_creative":          toBool(a["is_dynamic_creative"]),
			})
		}
		log.Debug().Str("account_id", acc.ID).Int("count", len(res.Records)).Msg("ad sets fetched")
	}

	log.Info().Int("total", len(t.Rows)).Msg("ad sets processed")
	return t, nil
}

var adFields = []string{
	"id", "name", "account_id", "campaign_id", "adset_id",
	"created_time", "updated_time", "ad_active_time", "ad_review_feedback",
	"ad_schedule_start_time", "ad_schedule_end_time", "bid_amount", "configured_status",
	"conversion_domain", "effective_status", "issues_info", "preview_shareable_link",
	"status", "creative", "creative_asset_groups_spec",
}

// Ads fetches ad settings across the roster.
func (s *Service) Ads(ctx context.Context, accounts []AdAccount) (*Table, error) {
	t := NewTable("ads")
	log.Info().Int("accounts", len(accounts)).Msg("retrieving ads")

	for _, acc := range accounts {
		res, err := s.client.Call(ctx, graph.CallSpec{
			ObjectID: acc.ID,
			Edge:     "ads",
			Fields:   adFields,
		})
		if err != nil {
			return nil, err
		}
		if !res.Complete {
			log.Warn().Str("account_id", acc.ID).Str("reason", res.Reason).
				Msg("ad fetch incomplete")
		}

		for _, a := range res.Records {
			t.Append(Row{
				"ad_id":                      toString(a["id"]),
				"name":                       toString(a["name"]),
				"account_id":                 acc.ID,
				"account_name":               acc.Name,
				"currency":                   acc.Currency,
				"campaign_id":                toString(a["campaign_id"]),
				"adset_id":                   toString(a["adset_id"]),
				"created_time":               dateOnly(a["created_time"]),
				"updated_time":               dateOnly(a["updated_time"]),
				"ad_active_time":             dateOnly(a["ad_active_time"]),
				"ad_schedule_start_time":     dateOnly(a["ad_schedule_start_time"]),
				"ad_schedule_end_time":       dateOnly(a["ad_schedule_end_time"]),
				"configured_status":          toString(a["configured_status"]),
				"effective_status":           toString(a["effective_status"]),
				"status":                     toString(a["status"]),
				"bid_amount":                 nullableFloat(a["bid_amount"]),
				"conversion_domain":          toString(a["conversion_domain"]),
				"preview_shareable_link":     toString(a["preview_shareable_link"]),
				"creative":                   jsonField(a["creative"]),
				"creative_asset_groups_spec": jsonField(a["creative_asset_groups_spec"]),
				"ad_review_feedback":         jsonField(a["ad_review_feedback"]),
				"issues_info":                jsonField(a["issues_info"]),
			})
		}
		log.Debug().Str("account_id", acc.ID).Int("count", len(res.Records)).Msg("ads fetched")
	}

	log.Info().Int("total", len(t.Rows)).Msg("ads processed")
	return t, nil
}
