package meta

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testWindow = DateWindow{Since: "2026-05-27", Until: "2026-08-24"}

func insightsRecord(extra map[string]any) map[string]any {
	rec := map[string]any{
		"date_start":                "2026-08-24",
		"spend":                     "125.40",
		"impressions":               "10500",
		"reach":                     "8200",
		"clicks":                    "340",
		"unique_clicks":             "300",
		"unique_inline_link_clicks": "120",
		"actions": []any{
			map[string]any{"action_type": "like", "value": "12"},
			map[string]any{"action_type": "link_click", "value": "118"},
			map[string]any{"action_type": "purchase", "value": "7"},
		},
		"action_values": []any{
			map[string]any{"action_type": "purchase", "value": "542.10"},
		},
	}
	for k, v := range extra {
		rec[k] = v
	}
	return rec
}

func TestAccountPerformance(t *testing.T) {
	var gotQuery url.Values
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v22.0/act_1/insights", r.URL.Path)
		gotQuery = r.URL.Query()
		writeData(w, insightsRecord(nil))
	}), nil)

	tbl, err := svc.AccountPerformance(context.Background(),
		[]AdAccount{{ID: "act_1", Name: "Brand One", Currency: "EUR"}}, testWindow)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)

	assert.Equal(t, "account", gotQuery.Get("level"))
	assert.Equal(t, "1", gotQuery.Get("time_increment"))
	assert.JSONEq(t, `{"since":"2026-05-27","until":"2026-08-24"}`, gotQuery.Get("time_range"))

	row := tbl.Rows[0]
	assert.Equal(t, "act_1", row["account_id"])
	assert.Equal(t, "Brand One", row["account_name"])
	assert.Equal(t, "EUR", row["currency"])
	assert.Equal(t, "2026-08-24", row["date"])
	assert.Equal(t, 125.40, row["spend"])
	assert.Equal(t, int64(10500), row["impressions"])
	assert.Equal(t, 12.0, row["likes"])
	assert.Equal(t, 118.0, row["link_clicks"])
	assert.Equal(t, 7.0, row["purchase"])
	assert.Equal(t, 542.10, row["purchase_value"])
	assert.Equal(t, 0.0, row["add_to_cart"], "missing action types report zero")
}

func TestCampaignPerformance_CalendarParts(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "campaign", r.URL.Query().Get("level"))
		writeData(w, insightsRecord(map[string]any{
			"campaign_id":   "c1",
			"campaign_name": "Summer Sale",
		}))
	}), nil)

	tbl, err := svc.CampaignPerformance(context.Background(),
		[]AdAccount{{ID: "act_1", Name: "Brand One", Currency: "EUR"}}, testWindow)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)

	row := tbl.Rows[0]
	assert.Equal(t, "c1", row["campaign_id"])
	assert.Equal(t, "Summer Sale", row["campaign_name"])
	assert.Equal(t, int64(35), row["week"])
	assert.Equal(t, int64(8), row["month"])
	assert.Equal(t, int64(2026), row["year"])
	_, hasAccountName := row["account_name"]
	assert.False(t, hasAccountName, "campaign rows carry only the account id and currency")
}

func TestAdSetPerformance(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "adset", r.URL.Query().Get("level"))
		writeData(w, insightsRecord(map[string]any{
			"adset_id":    "as1",
			"adset_name":  "Prospecting",
			"campaign_id": "c1",
		}))
	}), nil)

	tbl, err := svc.AdSetPerformance(context.Background(),
		[]AdAccount{{ID: "act_1", Name: "Brand One", Currency: "EUR"}}, testWindow)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)

	row := tbl.Rows[0]
	assert.Equal(t, "as1", row["adset_id"])
	assert.Equal(t, "Prospecting", row["adset_name"])
	assert.Equal(t, "c1", row["campaign_id"])
	assert.Equal(t, int64(300), row["unique_clicks"])
}

func TestAdPerformance_Rankings(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ad", r.URL.Query().Get("level"))
		writeData(w, insightsRecord(map[string]any{
			"ad_id":                   "ad1",
			"adset_id":                "as1",
			"campaign_id":             "c1",
			"quality_ranking":         "ABOVE_AVERAGE",
			"engagement_rate_ranking": "AVERAGE",
			"conversion_rate_ranking": "BELOW_AVERAGE_20",
		}))
	}), nil)

	tbl, err := svc.AdPerformance(context.Background(),
		[]AdAccount{{ID: "act_1", Name: "Brand One", Currency: "EUR"}}, testWindow)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)

	row := tbl.Rows[0]
	assert.Equal(t, "ad1", row["ad_id"])
	assert.Equal(t, "ABOVE_AVERAGE", row["quality_ranking"])
	assert.Equal(t, "AVERAGE", row["engagement_rate_ranking"])
	assert.Equal(t, "BELOW_AVERAGE_20", row["conversion_rate_ranking"])
	assert.Equal(t, "", row["relevance_score"], "retired metric maps to empty, not NULL")
}

func TestAdPerformanceBreakdowns(t *testing.T) {
	var gotQuery url.Values
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		writeData(w, insightsRecord(map[string]any{
			"ad_id":  "ad1",
			"age":    "25-34",
			"gender": "female",
		}))
	}), nil)

	tables, err := svc.AdPerformanceBreakdowns(context.Background(),
		[]AdAccount{{ID: "act_1", Name: "Brand One", Currency: "EUR"}},
		testWindow, [][]string{{"age", "gender"}})
	require.NoError(t, err)

	assert.Equal(t, "age,gender", gotQuery.Get("breakdowns"))
	assert.Equal(t, "ad", gotQuery.Get("level"))

	tbl, ok := tables["ad_performance_age_gender"]
	require.True(t, ok, "table keyed by the joined dimension names")
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "25-34", tbl.Rows[0]["age"])
	assert.Equal(t, "female", tbl.Rows[0]["gender"])
	assert.Equal(t, "ad1", tbl.Rows[0]["ad_id"])

	cols := tbl.Columns()
	assert.Equal(t, "age", cols[len(cols)-2])
	assert.Equal(t, "gender", cols[len(cols)-1], "dimension columns extend the base schema")
}

func TestAdPerformanceBreakdowns_NoCombos(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no combinations must mean no calls")
	}), nil)

	tables, err := svc.AdPerformanceBreakdowns(context.Background(),
		[]AdAccount{{ID: "act_1"}}, testWindow, nil)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestBreakdownConfig(t *testing.T) {
	var nilCfg BreakdownConfig
	assert.Nil(t, nilCfg.AdCombinations())

	cfg := BreakdownConfig{"ad": {{"gender"}, {"age", "gender"}}}
	assert.Len(t, cfg.AdCombinations(), 2)
}
