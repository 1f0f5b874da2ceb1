package creative

import (
	"encoding/json"
	"strings"
)

// Format labels produced by Classify.
const (
	FormatCarousel     = "CAROUSEL"
	FormatVideo        = "VIDEO"
	FormatDynamic      = "DYNAMIC/ADVANTAGE+"
	FormatSingleImage  = "SINGLE_IMAGE/LINK"
	FormatPromotedPost = "PROMOTED_POST"
	FormatUnknown      = "UNKNOWN"
)

// Classify labels a creative's structural shape. The rules form an
// ordered decision list; the first match wins:
//
//  1. non-empty child_attachments            -> CAROUSEL
//  2. a video id or video_data block         -> VIDEO
//  3. asset feed content or a product set id -> DYNAMIC/ADVANTAGE+
//  4. link data, image hash or photo URL     -> SINGLE_IMAGE/LINK
//  5. a page id with no link_data link       -> PROMOTED_POST
//  6. otherwise                              -> UNKNOWN
//
// Pure function of the record: same input, same label.
func Classify(record map[string]any) string {
	spec := NormalizeSpec(record["object_story_spec"])

	if hasChildAttachments(spec) {
		return FormatCarousel
	}

	if truthy(record["video_id"]) || truthy(spec["video_data"]) {
		return FormatVideo
	}

	if hasAssetFeed(record["asset_feed_spec"]) || truthy(record["product_set_id"]) {
		return FormatDynamic
	}

	linkData := spec["link_data"]
	photoURL := ""
	if photoData, ok := spec["photo_data"].(map[string]any); ok {
		photoURL = getString(photoData, "url")
	}
	if truthy(linkData) || truthy(record["image_hash"]) || photoURL != "" {
		return FormatSingleImage
	}

	linkInLinkData := ""
	if ld, ok := linkData.(map[string]any); ok {
		linkInLinkData = getString(ld, "link")
	}
	if truthy(spec["page_id"]) && linkInLinkData == "" {
		return FormatPromotedPost
	}

	return FormatUnknown
}

// hasChildAttachments reports a usable carousel: a non-empty list that is
// not the degenerate single-empty-object placeholder the API sometimes
// returns.
func hasChildAttachments(spec map[string]any) bool {
	list, ok := spec["child_attachments"].([]any)
	if !ok || len(list) == 0 {
		return false
	}
	if len(list) == 1 {
		if m, ok := list[0].(map[string]any); ok && len(m) == 0 {
			return false
		}
	}
	return true
}

// hasAssetFeed accepts the asset_feed_spec as object, list or JSON
// string; only non-empty content counts.
func hasAssetFeed(v any) bool {
	switch spec := v.(type) {
	case map[string]any:
		return len(spec) > 0
	case []any:
		return len(spec) > 0
	case string:
		trimmed := strings.TrimSpace(spec)
		if trimmed == "" {
			return false
		}
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
			return false
		}
		return hasAssetFeed(parsed)
	default:
		return false
	}
}
