package creative

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NormalizeSpec returns the object form of a nested spec field. The API
// delivers object_story_spec and friends either as native objects or as
// JSON-encoded strings; anything unparseable normalizes to an empty map.
func NormalizeSpec(v any) map[string]any {
	switch spec := v.(type) {
	case map[string]any:
		return spec
	case string:
		trimmed := strings.TrimSpace(spec)
		if trimmed == "" {
			return map[string]any{}
		}
		var parsed map[string]any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
			return map[string]any{}
		}
		return parsed
	default:
		return map[string]any{}
	}
}

// StoryData is the flattened view of an object_story_spec.
type StoryData struct {
	PageID           string
	InstagramActorID string

	LinkURL          string
	LinkCaption      string
	LinkName         string
	LinkDescription  string
	LinkMessage      string
	LinkCallToAction string

	VideoID           string
	VideoTitle        string
	VideoMessage      string
	VideoCallToAction string

	TemplateMessage      string
	TemplateCallToAction string
	TemplateLink         string

	PhotoURL     string
	PhotoCaption string
}

// FlattenStory pulls the page, link, video, template and photo blocks out
// of a normalized object_story_spec. Call-to-action blocks are kept as
// JSON strings.
func FlattenStory(spec map[string]any) StoryData {
	var data StoryData
	data.PageID = getString(spec, "page_id")
	data.InstagramActorID = getString(spec, "instagram_actor_id")

	if linkData, ok := spec["link_data"].(map[string]any); ok {
		data.LinkURL = getString(linkData, "link")
		data.LinkCaption = getString(linkData, "caption")
		data.LinkName = getString(linkData, "name")
		data.LinkDescription = getString(linkData, "description")
		data.LinkMessage = getString(linkData, "message")
		data.LinkCallToAction = dumpJSON(linkData["call_to_action"])
	}
	if videoData, ok := spec["video_data"].(map[string]any); ok {
		data.VideoID = getString(videoData, "video_id")
		data.VideoTitle = getString(videoData, "title")
		data.VideoMessage = getString(videoData, "message")
		data.VideoCallToAction = dumpJSON(videoData["call_to_action"])
	}
	if templateData, ok := spec["template_data"].(map[string]any); ok {
		data.TemplateMessage = getString(templateData, "message")
		data.TemplateCallToAction = dumpJSON(templateData["call_to_action"])
		data.TemplateLink = getString(templateData, "link")
	}
	if photoData, ok := spec["photo_data"].(map[string]any); ok {
		data.PhotoURL = getString(photoData, "url")
		data.PhotoCaption = getString(photoData, "caption")
	}
	return data
}

// VideoID resolves the creative's video identifier, preferring the one
// nested under object_story_spec.video_data over the top-level field.
// Only the nested id reliably resolves through the media endpoints.
func VideoID(record map[string]any) string {
	spec := NormalizeSpec(record["object_story_spec"])
	if videoData, ok := spec["video_data"].(map[string]any); ok {
		if id := getString(videoData, "video_id"); id != "" {
			return id
		}
	}
	return getString(record, "video_id")
}

// getString reads a string-ish field, stringifying numbers.
func getString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// truthy is the presence check used by the classifier rules: empty
// strings, zeroes, empty containers and nil are all absent.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	case map[string]any:
		return len(val) > 0
	case []any:
		return len(val) > 0
	default:
		return true
	}
}

func dumpJSON(v any) string {
	if v == nil {
		return "{}"
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}
