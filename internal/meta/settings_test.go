package meta

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAccounts = []AdAccount{
	{ID: "act_1", Name: "Brand One", Currency: "EUR"},
	{ID: "act_2", Name: "Brand Two", Currency: "USD"},
}

func TestCampaigns(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v22.0/act_1/campaigns":
			writeData(w, map[string]any{
				"id":                "c1",
				"name":              "Summer Sale",
				"created_time":      "2026-05-01T10:00:00+0200",
				"start_time":        "2026-05-02T00:00:00+0200",
				"updated_time":      "2026-08-20T18:45:00+0200",
				"effective_status":  "ACTIVE",
				"objective":         "OUTCOME_SALES",
				"bid_strategy":      "LOWEST_COST_WITHOUT_CAP",
				"promoted_object":   map[string]any{"pixel_id": "777"},
				"configured_status": "ACTIVE",
				"status":            "ACTIVE",
			})
		case "/v22.0/act_2/campaigns":
			writeData(w)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), nil)

	tbl, err := svc.Campaigns(context.Background(), testAccounts)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)

	row := tbl.Rows[0]
	assert.Equal(t, "act_1", row["account_id"])
	assert.Equal(t, "Brand One", row["account_name"])
	assert.Equal(t, "EUR", row["currency"])
	assert.Equal(t, "c1", row["campaign_id"])
	assert.Equal(t, "Summer Sale", row["campaign_name"])
	assert.Equal(t, "2026-05-01", row["created_time"])
	assert.Equal(t, "2026-08-20", row["updated_time"])
	assert.JSONEq(t, `{"pixel_id":"777"}`, row["promoted_object"].(string))
	assert.Nil(t, row["stop_time"], "absent timestamps map to NULL")
}

func TestAdSets_BidFields(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v22.0/act_1/adsets":
			writeData(w,
				map[string]any{
					"id": "as1", "name": "Prospecting", "campaign_id": "c1",
					"bid_amount":          float64(250),
					"is_dynamic_creative": true,
					"targeting":           map[string]any{"geo_locations": map[string]any{"countries": []any{"ES"}}},
				},
				map[string]any{
					"id": "as2", "name": "Retargeting", "campaign_id": "c1",
					"bid_amount": float64(0),
				},
			)
		case "/v22.0/act_2/adsets":
			writeData(w)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), nil)

	tbl, err := svc.AdSets(context.Background(), testAccounts)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)

	assert.Equal(t, 250.0, tbl.Rows[0]["bid_amount"])
	assert.Equal(t, true, tbl.Rows[0]["is_dynamic_creative"])
	assert.JSONEq(t, `{"geo_locations":{"countries":["ES"]}}`, tbl.Rows[0]["targeting"].(string))

	assert.Nil(t, tbl.Rows[1]["bid_amount"], "zero bid means unset")
	assert.Equal(t, false, tbl.Rows[1]["is_dynamic_creative"])
	assert.Equal(t, "{}", tbl.Rows[1]["targeting"])
}

func TestAds(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v22.0/act_1/ads":
			writeData(w, map[string]any{
				"id": "ad1", "name": "Hero Video", "campaign_id": "c1", "adset_id": "as1",
				"created_time":     "2026-06-15T09:00:00+0200",
				"effective_status": "ACTIVE",
				"creative":         map[string]any{"id": "cr9"},
			})
		case "/v22.0/act_2/ads":
			writeGraphError(w, http.StatusInternalServerError, 2, "service temporarily unavailable")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), nil)

	tbl, err := svc.Ads(context.Background(), testAccounts)
	require.NoError(t, err, "a failing account degrades, it does not abort the run")
	require.Len(t, tbl.Rows, 1)

	row := tbl.Rows[0]
	assert.Equal(t, "ad1", row["ad_id"])
	assert.Equal(t, "Hero Video", row["name"])
	assert.Equal(t, "2026-06-15", row["created_time"])
	assert.JSONEq(t, `{"id":"cr9"}`, row["creative"].(string))
	assert.Nil(t, row["bid_amount"])
	assert.Equal(t, "{}", row["issues_info"])
}
