package meta

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/graph"
)

// =============================================================================
// BREAKDOWN DATASETS
// Ad-level insights segmented by demographic or placement dimensions. Each
// dimension combination yields its own table named after the joined
// dimensions, e.g. ad_performance_age_gender.
// =============================================================================

// BreakdownConfig maps an insights level to the dimension combinations to
// extract at that level. Only the ad level is wired into the run today.
type BreakdownConfig map[string][][]string

// AdCombinations returns the ad-level dimension combinations, nil when the
// config carries none.
func (c BreakdownConfig) AdCombinations() [][]string {
	if c == nil {
		return nil
	}
	return c["ad"]
}

// breakdownTableName derives the table name for one dimension combination.
func breakdownTableName(dims []string) string {
	return "ad_performance_" + strings.Join(dims, "_")
}

// breakdownFields extends the ad_performance schema with one string column
// per dimension.
func breakdownFields(dims []string) []FieldDef {
	fields := FieldsFor("ad_performance")
	for _, d := range dims {
		fields = append(fields, strCol(d))
	}
	return fields
}

// AdPerformanceBreakdowns extracts one table per dimension combination.
// Accounts that fail keep the run going; the affected table is just thinner.
func (s *Service) AdPerformanceBreakdowns(ctx context.Context, accounts []AdAccount, window DateWindow, combos [][]string) (map[string]*Table, error) {
	out := make(map[string]*Table, len(combos))
	if len(combos) == 0 {
		return out, nil
	}
	log.Info().Int("combinations", len(combos)).Msg("running ad-level breakdowns")

	for _, dims := range combos {
		name := breakdownTableName(dims)
		t := &Table{Name: name, Fields: breakdownFields(dims)}
		log.Info().Strs("breakdowns", dims).Msg("extracting insights with breakdowns")

		for _, acc := range accounts {
			res, err := s.client.Call(ctx, graph.CallSpec{
				ObjectID: acc.ID,
				Edge:     "insights",
				Fields:   adInsightsFields,
				Params: map[string]string{
					"level":          "ad",
					"time_increment": "1",
					"breakdowns":     strings.Join(dims, ","),
				},
				TimeRange: &graph.TimeRange{Since: window.Since, Until: window.Until},
			})
			if err != nil {
				return nil, err
			}
			if !res.Complete {
				log.Warn().Str("account_id", acc.ID).Strs("breakdowns", dims).
					Str("reason", res.Reason).Msg("breakdown insights incomplete")
			}

			for _, rec := range res.Records {
				row := adPerformanceRow(acc.ID, rec)
				for _, d := range dims {
					row[d] = toString(rec[d])
				}
				t.Append(row)
			}
		}

		log.Info().Str("table", name).Int("rows", len(t.Rows)).Msg("breakdown rows loaded")
		out[name] = t
	}

	return out, nil
}
