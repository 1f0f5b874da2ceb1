package meta

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/graph"
)

// =============================================================================
// RECOMMENDATION DATASETS
// Delivery recommendations attached to accounts, ad sets and ads. These
// handlers walk their own roster from the business id because they run even
// when the ad-account-dependent datasets are all disabled.
// =============================================================================

// recommendationList normalizes a recommendations payload into a flat record
// list. The API nests the shape differently per object level: accounts wrap
// groups under data with the records one level deeper, ad sets put the
// records directly under data, and ads return a bare list.
func recommendationList(field any) []Row {
	var items []any
	switch v := field.(type) {
	case map[string]any:
		items, _ = v["data"].([]any)
	case []any:
		items = v
	default:
		return nil
	}

	var recs []Row
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if nested, ok := m["recommendations"].([]any); ok {
			for _, n := range nested {
				if rm, ok := n.(map[string]any); ok {
					recs = append(recs, rm)
				}
			}
			continue
		}
		recs = append(recs, m)
	}
	return recs
}

// recommendationRow merges the object identity columns with the shared
// recommendation columns.
func recommendationRow(base Row, rec Row) Row {
	row := make(Row, len(base)+9)
	for k, v := range base {
		row[k] = v
	}
	row["recommendation_signature"] = toString(rec["recommendation_signature"])
	row["type"] = toString(rec["type"])
	row["object_ids"] = joinIDs(rec["object_ids"])
	row["title"] = toString(rec["title"])
	row["message"] = toString(rec["message"])
	row["code"] = toString(rec["code"])
	row["importance"] = toString(rec["importance"])
	row["confidence"] = toString(rec["confidence"])
	row["blame_field"] = toString(rec["blame_field"])
	return row
}

// recommendationRoster lists the accounts under a business with just the
// identity fields the recommendation walks need.
func (s *Service) recommendationRoster(ctx context.Context, businessID string) ([]graph.Record, error) {
	res, err := s.client.Call(ctx, graph.CallSpec{
		ObjectID: businessID,
		Edge:     "owned_ad_accounts",
		Fields:   []string{"id", "name"},
	})
	if err != nil {
		return nil, err
	}
	if !res.Complete {
		log.Warn().Str("business_id", businessID).Str("reason", res.Reason).
			Msg("ad account roster incomplete for recommendations")
	}
	log.Info().Str("business_id", businessID).Int("accounts", len(res.Records)).
		Msg("found ad accounts for recommendations")
	return res.Records, nil
}

// fetchRecommendations reads the recommendations field of one object.
// API failures are isolated per object; context cancellation aborts.
func (s *Service) fetchRecommendations(ctx context.Context, objectID string) ([]Row, error) {
	rec, err := s.client.GetObject(ctx, objectID, []string{"recommendations"})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Str("object_id", objectID).Err(err).
			Msg("failed to fetch recommendations")
		return nil, nil
	}
	return recommendationList(rec["recommendations"]), nil
}

// AccountRecommendations extracts account-level recommendations for every
// ad account under the business.
func (s *Service) AccountRecommendations(ctx context.Context, businessID string) (*Table, error) {
	t := NewTable("account_recommendations")
	roster, err := s.recommendationRoster(ctx, businessID)
	if err != nil {
		return nil, err
	}

	for _, acc := range roster {
		accountID := toString(acc["id"])
		recs, err := s.fetchRecommendations(ctx, accountID)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			t.Append(recommendationRow(Row{
				"object_type":  "Ad Account",
				"object_id":    accountID,
				"account_name": toString(acc["name"]),
			}, rec))
		}
	}

	log.Info().Int("total", len(t.Rows)).Msg("account recommendations retrieved")
	return t, nil
}

// AdSetRecommendations extracts ad-set-level recommendations across all
// ad sets of every account under the business.
func (s *Service) AdSetRecommendations(ctx context.Context, businessID string) (*Table, error) {
	t := NewTable("adset_recommendations")
	roster, err := s.recommendationRoster(ctx, businessID)
	if err != nil {
		return nil, err
	}

	for _, acc := range roster {
		accountID := toString(acc["id"])
		res, err := s.client.Call(ctx, graph.CallSpec{
			ObjectID: accountID,
			Edge:     "adsets",
			Fields:   []string{"id", "name", "campaign_id"},
		})
		if err != nil {
			return nil, err
		}
		if !res.Complete {
			log.Warn().Str("account_id", accountID).Str("reason", res.Reason).
				Msg("ad set listing incomplete, walking what was returned")
		}
		log.Debug().Str("account_id", accountID).Int("adsets", len(res.Records)).
			Msg("ad sets found for account")

		for _, adset := range res.Records {
			adsetID := toString(adset["id"])
			recs, err := s.fetchRecommendations(ctx, adsetID)
			if err != nil {
				return nil, err
			}
			for _, rec := range recs {
				t.Append(recommendationRow(Row{
					"object_type":   "Ad Set",
					"object_id":     adsetID,
					"ad_account_id": accountID,
					"campaign_id":   toString(adset["campaign_id"]),
				}, rec))
			}
		}
	}

	log.Info().Int("total", len(t.Rows)).Msg("ad set recommendations retrieved")
	return t, nil
}

// AdRecommendations extracts ad-level recommendations across all ads of
// every account under the business.
func (s *Service) AdRecommendations(ctx context.Context, businessID string) (*Table, error) {
	t := NewTable("ad_recommendations")
	roster, err := s.recommendationRoster(ctx, businessID)
	if err != nil {
		return nil, err
	}

	for _, acc := range roster {
		accountID := toString(acc["id"])
		res, err := s.client.Call(ctx, graph.CallSpec{
			ObjectID: accountID,
			Edge:     "ads",
			Fields:   []string{"id", "name", "adset_id"},
		})
		if err != nil {
			return nil, err
		}
		if !res.Complete {
			log.Warn().Str("account_id", accountID).Str("reason", res.Reason).
				Msg("ad listing incomplete, walking what was returned")
		}
		log.Debug().Str("account_id", accountID).Int("ads", len(res.Records)).
			Msg("ads found for account")

		for _, ad := range res.Records {
			adID := toString(ad["id"])
			recs, err := s.fetchRecommendations(ctx, adID)
			if err != nil {
				return nil, err
			}
			for _, rec := range recs {
				t.Append(recommendationRow(Row{
					"object_type":   "Ad",
					"object_id":     adID,
					"ad_account_id": accountID,
					"adset_id":      toString(ad["adset_id"]),
				}, rec))
			}
		}
	}

	log.Info().Int("total", len(t.Rows)).Msg("ad recommendations retrieved")
	return t, nil
}
