package meta

// =============================================================================
// API LIBRARY
// Catalog of Graph API calls used by the extraction handlers.
// =============================================================================

// APIEndpoint describes one Graph API call shape.
type APIEndpoint struct {
	Method      string
	Path        string
	Description string
	DocsURL     string
	Scope       string
}

// APILibrary contains all Graph API calls used by this service.
var APILibrary = map[string]APIEndpoint{
	"business_ad_accounts": {
		Method:      "GET",
		Path:        "/{business_id}/owned_ad_accounts",
		Description: "List ad accounts owned by a Business Manager",
		DocsURL:     "https://developers.facebook.com/docs/marketing-api/reference/business/owned_ad_accounts/",
		Scope:       "accounts",
	},
	"account_campaigns": {
		Method:      "GET",
		Path:        "/{ad_account_id}/campaigns",
		Description: "List campaigns of an ad account",
		DocsURL:     "https://developers.facebook.com/docs/marketing-api/reference/ad-account/campaigns/",
		Scope:       "settings",
	},
	"account_adsets": {
		Method:      "GET",
		Path:        "/{ad_account_id}/adsets",
		Description: "List ad sets of an ad account",
		DocsURL:     "https://developers.facebook.com/docs/marketing-api/reference/ad-account/adsets/",
		Scope:       "settings",
	},
	"account_ads": {
		Method:      "GET",
		Path:        "/{ad_account_id}/ads",
		Description: "List ads of an ad account",
		DocsURL:     "https://developers.facebook.com/docs/marketing-api/reference/ad-account/ads/",
		Scope:       "settings",
	},
	"account_creatives": {
		Method:      "GET",
		Path:        "/{ad_account_id}/adcreatives",
		Description: "List ad creatives of an ad account",
		DocsURL:     "https://developers.facebook.com/docs/marketing-api/reference/ad-account/adcreatives/",
		Scope:       "settings",
	},
	"account_insights": {
		Method:      "GET",
		Path:        "/{ad_account_id}/insights",
		Description: "Daily performance metrics at account, campaign, adset or ad level",
		DocsURL:     "https://developers.facebook.com/docs/marketing-api/reference/ad-account/insights/",
		Scope:       "performance",
	},
	"account_activities": {
		Method:      "GET",
		Path:        "/{ad_account_id}/activities",
		Description: "Change-history events recorded against an ad account",
		DocsURL:     "https://developers.facebook.com/docs/marketing-api/reference/ad-activity/",
		Scope:       "change_history",
	},
	"object_recommendations": {
		Method:      "GET",
		Path:        "/{object_id}?fields=recommendations",
		Description: "Delivery recommendations attached to an account, ad set or ad",
		DocsURL:     "https://developers.facebook.com/docs/marketing-api/reference/ad-recommendation/",
		Scope:       "recommendations",
	},
	"video_source": {
		Method:      "GET",
		Path:        "/{video_id}?fields=source",
		Description: "Short-lived signed download URL for an ad video",
		DocsURL:     "https://developers.facebook.com/docs/graph-api/reference/video/",
		Scope:       "media",
	},
	"me": {
		Method:      "GET",
		Path:        "/me",
		Description: "Identity probe for the configured access token",
		DocsURL:     "https://developers.facebook.com/docs/graph-api/reference/user/",
		Scope:       "system",
	},
}

// =============================================================================
// FIELD DEFINITIONS
// =============================================================================

// FieldDef defines a schema field.
type FieldDef struct {
	Name     string
	DataType string // STRING, INTEGER, DOUBLE, BOOLEAN, DATE
	Nullable bool
	Comment  string
}

func strCol(name string) FieldDef  { return FieldDef{Name: name, DataType: "STRING", Nullable: true} }
func dblCol(name string) FieldDef  { return FieldDef{Name: name, DataType: "DOUBLE", Nullable: true} }
func intCol(name string) FieldDef  { return FieldDef{Name: name, DataType: "INTEGER", Nullable: true} }
func dateCol(name string) FieldDef { return FieldDef{Name: name, DataType: "DATE", Nullable: true} }

func actionCols() []FieldDef {
	return []FieldDef{
		dblCol("likes"), dblCol("comments"), dblCol("shares"),
		dblCol("link_clicks"), dblCol("landing_page_views"), dblCol("content_views"),
		dblCol("add_to_cart"), dblCol("initiate_checkout"), dblCol("purchase"),
		dblCol("purchase_value"),
	}
}

func metricCols() []FieldDef {
	return []FieldDef{
		dblCol("spend"), intCol("impressions"), intCol("reach"), intCol("clicks"),
		intCol("unique_clicks"), intCol("unique_inline_link_clicks"),
	}
}

func recommendationCols() []FieldDef {
	return []FieldDef{
		strCol("recommendation_signature"), strCol("type"), strCol("object_ids"),
		strCol("title"), strCol("message"), strCol("code"),
		strCol("importance"), strCol("confidence"), strCol("blame_field"),
	}
}

func cols(groups ...[]FieldDef) []FieldDef {
	var out []FieldDef
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// =============================================================================
// DATASET DEFINITIONS
// One entry per warehouse table; StaticFields is the normative column order
// produced by the matching handler.
// =============================================================================

// DatasetDefinition defines a dataset's schema and extraction shape.
type DatasetDefinition struct {
	Name             string // warehouse base table name and flag name
	Title            string
	Description      string
	StaticFields     []FieldDef
	APIKeys          []string
	RequiresAccounts bool // handler consumes the ad-account roster
}

// DatasetDefinitions contains all dataset definitions keyed by table name.
var DatasetDefinitions = map[string]DatasetDefinition{
	"accounts": {
		Name:        "accounts",
		Title:       "Ad Accounts",
		Description: "Ad accounts owned by the client's Business Manager.",
		StaticFields: []FieldDef{
			{Name: "account_id", DataType: "STRING", Nullable: false, Comment: "Graph id, keeps the act_ prefix."},
			strCol("account_name"), strCol("currency"),
			strCol("account_status"), strCol("business_country_code"),
		},
		APIKeys:          []string{"business_ad_accounts"},
		RequiresAccounts: true,
	},
	"campaigns": {
		Name:        "campaigns",
		Title:       "Campaigns",
		Description: "Campaign settings across all ad accounts.",
		StaticFields: cols(
			[]FieldDef{strCol("account_id"), strCol("account_name"), strCol("currency")},
			[]FieldDef{
				strCol("campaign_id"), strCol("campaign_name"),
				dateCol("created_time"), dateCol("start_time"), dateCol("updated_time"),
				strCol("effective_status"), strCol("objective"), strCol("bid_strategy"),
				strCol("promoted_object"), strCol("configured_status"),
				strCol("smart_promotion_type"), strCol("primary_attribution"),
				strCol("status"), dateCol("stop_time"),
			},
		),
		APIKeys:          []string{"account_campaigns"},
		RequiresAccounts: true,
	},
	"adsets": {
		Name:        "adsets",
		Title:       "Ad Sets",
		Description: "Ad set settings including targeting and bidding.",
		StaticFields: cols(
			[]FieldDef{strCol("account_id"), strCol("account_name"), strCol("currency")},
			[]FieldDef{
				strCol("campaign_id"), strCol("adset_id"), strCol("adset_name"),
				dateCol("created_time"), dateCol("end_time"), dateCol("updated_time"),
				strCol("effective_status"),
				strCol("bid_adjustments"), dblCol("bid_amount"), strCol("bid_info"), strCol("bid_strategy"),
				strCol("optimization_goal"), strCol("optimization_sub_event"),
				strCol("attribution_spec"), strCol("destination_type"),
				strCol("issues_info"), strCol("learning_stage_info"), strCol("promoted_object"),
				strCol("targeting"), strCol("targeting_optimization_types"),
				strCol("asset_feed_id"),
				{Name: "is_dynamic_creative", DataType: "BOOLEAN", Nullable: true},
			},
		),
		APIKeys:          []string{"account_adsets"},
		RequiresAccounts: true,
	},
	"ads": {
		Name:        "ads",
		Title:       "Ads",
		Description: "Ad settings with creative references.",
		StaticFields: cols(
			[]FieldDef{strCol("ad_id"), strCol("name"), strCol("account_id"), strCol("account_name"), strCol("currency")},
			[]FieldDef{
				strCol("campaign_id"), strCol("adset_id"),
				dateCol("created_time"), dateCol("updated_time"), dateCol("ad_active_time"),
				dateCol("ad_schedule_start_time"), dateCol("ad_schedule_end_time"),
				strCol("configured_status"), strCol("effective_status"), strCol("status"),
				dblCol("bid_amount"), strCol("conversion_domain"), strCol("preview_shareable_link"),
				strCol("creative"), strCol("creative_asset_groups_spec"),
				strCol("ad_review_feedback"), strCol("issues_info"),
			},
		),
		APIKeys:          []string{"account_ads"},
		RequiresAccounts: true,
	},
	"ad_creatives": {
		Name:        "ad_creatives",
		Title:       "Ad Creatives",
		Description: "Creative metadata with derived format, destination URLs and stored media refs.",
		StaticFields: cols(
			[]FieldDef{
				strCol("creative_id"), strCol("name"), strCol("account_id"), strCol("account_name"), strCol("currency"),
				strCol("actor_id"), strCol("status"), strCol("adlabels"),
				strCol("body"), strCol("call_to_action_type"), strCol("object_type"),
				strCol("image_hash"), strCol("image_url"), strCol("thumbnail_url"),
				{Name: "video_id_raw", DataType: "STRING", Nullable: true, Comment: "Top-level video id as returned by the API."},
				{Name: "cloud_storage_url", DataType: "STRING", Nullable: true, Comment: "Stored media ref, at most one asset per creative."},
				strCol("url_tags"), strCol("product_set_id"),
				strCol("effective_object_story_id"), strCol("effective_instagram_media_id"),
				strCol("template_url_spec"), strCol("asset_feed_spec"),
				strCol("creative_format"),
				strCol("primary_url"), strCol("link_url"), strCol("object_url"),
				strCol("template_url"), strCol("instagram_url"),
				strCol("page_id"), strCol("instagram_actor_id"),
				strCol("link_url_from_spec"), strCol("link_caption"), strCol("link_name"),
				strCol("link_description"), strCol("link_message"), strCol("link_call_to_action"),
				{Name: "video_id", DataType: "STRING", Nullable: true, Comment: "Story-spec video id, the one that resolves through media endpoints."},
				strCol("video_title"), strCol("video_message"), strCol("video_call_to_action"),
				strCol("template_message"), strCol("template_call_to_action"), strCol("template_link"),
				strCol("photo_url"), strCol("photo_caption"),
				strCol("object_story_spec"),
			},
		),
		APIKeys:          []string{"account_creatives", "video_source"},
		RequiresAccounts: true,
	},
	"account_performance": {
		Name:        "account_performance",
		Title:       "Account Performance",
		Description: "Daily account-level delivery metrics.",
		StaticFields: cols(
			[]FieldDef{strCol("account_id"), strCol("account_name"), strCol("currency"), dateCol("date")},
			metricCols(), actionCols(),
		),
		APIKeys:          []string{"account_insights"},
		RequiresAccounts: true,
	},
	"campaign_performance": {
		Name:        "campaign_performance",
		Title:       "Campaign Performance",
		Description: "Daily campaign-level delivery metrics with calendar parts.",
		StaticFields: cols(
			[]FieldDef{
				strCol("account_id"), strCol("currency"),
				strCol("campaign_id"), strCol("campaign_name"), dateCol("date"),
				intCol("week"), intCol("month"), intCol("year"),
			},
			metricCols(), actionCols(),
		),
		APIKeys:          []string{"account_insights"},
		RequiresAccounts: true,
	},
	"adset_performance": {
		Name:        "adset_performance",
		Title:       "Ad Set Performance",
		Description: "Daily ad-set-level delivery metrics.",
		StaticFields: cols(
			[]FieldDef{
				strCol("account_id"), strCol("currency"),
				strCol("campaign_id"), strCol("adset_id"), strCol("adset_name"), dateCol("date"),
			},
			metricCols(), actionCols(),
		),
		APIKeys:          []string{"account_insights"},
		RequiresAccounts: true,
	},
	"ad_performance": {
		Name:        "ad_performance",
		Title:       "Ad Performance",
		Description: "Daily ad-level delivery metrics with diagnostic rankings.",
		StaticFields: cols(
			[]FieldDef{
				strCol("account_id"), strCol("ad_id"), strCol("adset_id"),
				strCol("campaign_id"), dateCol("date"),
			},
			metricCols(), actionCols(),
			[]FieldDef{
				strCol("quality_ranking"), strCol("engagement_rate_ranking"),
				strCol("conversion_rate_ranking"), strCol("relevance_score"),
			},
		),
		APIKeys:          []string{"account_insights"},
		RequiresAccounts: true,
	},
	"account_recommendations": {
		Name:        "account_recommendations",
		Title:       "Account Recommendations",
		Description: "Delivery recommendations at the ad account level.",
		StaticFields: cols(
			[]FieldDef{strCol("object_type"), strCol("object_id"), strCol("account_name")},
			recommendationCols(),
		),
		APIKeys: []string{"business_ad_accounts", "object_recommendations"},
	},
	"adset_recommendations": {
		Name:        "adset_recommendations",
		Title:       "Ad Set Recommendations",
		Description: "Delivery recommendations at the ad set level.",
		StaticFields: cols(
			[]FieldDef{strCol("object_type"), strCol("object_id"), strCol("ad_account_id"), strCol("campaign_id")},
			recommendationCols(),
		),
		APIKeys: []string{"business_ad_accounts", "account_adsets", "object_recommendations"},
	},
	"ad_recommendations": {
		Name:        "ad_recommendations",
		Title:       "Ad Recommendations",
		Description: "Delivery recommendations at the ad level.",
		StaticFields: cols(
			[]FieldDef{strCol("object_type"), strCol("object_id"), strCol("ad_account_id"), strCol("adset_id")},
			recommendationCols(),
		),
		APIKeys: []string{"business_ad_accounts", "account_ads", "object_recommendations"},
	},
	"activities": {
		Name:        "activities",
		Title:       "Activities",
		Description: "Change-history events since the window start.",
		StaticFields: []FieldDef{
			strCol("actor_name"), dateCol("event_time"), strCol("event_type"),
			strCol("translated_event_type"), strCol("object_name"), strCol("object_id"),
			strCol("object_type"),
			strCol("account_id"), strCol("account_name"), strCol("currency"),
		},
		APIKeys:          []string{"account_activities"},
		RequiresAccounts: true,
	},
}

// TableOrder fixes the extraction and load sequence for the per-client run.
var TableOrder = []string{
	"accounts", "campaigns", "adsets", "ads", "ad_creatives",
	"account_recommendations", "adset_recommendations", "ad_recommendations",
	"account_performance", "campaign_performance", "adset_performance", "ad_performance",
	"activities",
}

// FieldsFor returns the catalog schema for a dataset, nil when unknown.
func FieldsFor(name string) []FieldDef {
	def, ok := DatasetDefinitions[name]
	if !ok {
		return nil
	}
	fields := make([]FieldDef, len(def.StaticFields))
	copy(fields, def.StaticFields)
	return fields
}

// AccountDependentDatasets lists datasets whose handlers consume the
// ad-account roster; any of their flags being set forces an account fetch.
func AccountDependentDatasets() []string {
	var out []string
	for _, name := range TableOrder {
		if DatasetDefinitions[name].RequiresAccounts {
			out = append(out, name)
		}
	}
	return out
}
