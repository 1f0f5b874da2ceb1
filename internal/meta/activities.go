package meta

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/graph"
)

// =============================================================================
// ACTIVITIES DATASET
// Change-history events recorded against each ad account since the window
// start.
// =============================================================================

var activityFields = []string{
	"actor_name", "event_time", "event_type", "translated_event_type",
	"object_name", "object_id", "object_type",
}

// Activities extracts change-history events for every account since the
// given date (YYYY-MM-DD).
func (s *Service) Activities(ctx context.Context, accounts []AdAccount, since string) (*Table, error) {
	t := NewTable("activities")
	log.Info().Str("since", since).Int("accounts", len(accounts)).Msg("fetching activities")

	for _, acc := range accounts {
		res, err := s.client.Call(ctx, graph.CallSpec{
			ObjectID: acc.ID,
			Edge:     "activities",
			Fields:   activityFields,
			Params:   map[string]string{"since": since},
		})
		if err != nil {
			return nil, err
		}
		if !res.Complete {
			log.Warn().Str("account_id", acc.ID).Str("reason", res.Reason).
				Msg("activities incomplete")
		}
		log.Debug().Str("account_id", acc.ID).Int("activities", len(res.Records)).
			Msg("activities retrieved from account")

		for _, rec := range res.Records {
			t.Append(Row{
				"actor_name":            toString(rec["actor_name"]),
				"event_time":            dateOnly(rec["event_time"]),
				"event_type":            toString(rec["event_type"]),
				"translated_event_type": toString(rec["translated_event_type"]),
				"object_name":           toString(rec["object_name"]),
				"object_id":             toString(rec["object_id"]),
				"object_type":           toString(rec["object_type"]),
				"account_id":            acc.ID,
				"account_name":          acc.Name,
				"currency":              acc.Currency,
			})
		}
	}

	log.Info().Int("total", len(t.Rows)).Msg("activities loaded")
	return t, nil
}
