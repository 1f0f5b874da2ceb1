package creative

import (
	"encoding/json"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		want   string
	}{
		{
			name:   "empty record",
			record: map[string]any{},
			want:   FormatUnknown,
		},
		{
			name: "top level video id",
			record: map[string]any{
				"video_id":          "987654321",
				"object_story_spec": map[string]any{},
			},
			want: FormatVideo,
		},
		{
			name: "video data block",
			record: map[string]any{
				"object_story_spec": map[string]any{
					"video_data": map[string]any{"video_id": "111"},
				},
			},
			want: FormatVideo,
		},
		{
			name: "empty video data block is not a video",
			record: map[string]any{
				"object_story_spec": map[string]any{
					"video_data": map[string]any{},
				},
			},
			want: FormatUnknown,
		},
		{
			name: "carousel",
			record: map[string]any{
				"object_story_spec": map[string]any{
					"child_attachments": []any{map[string]any{"link": "a"}},
				},
			},
			want: FormatCarousel,
		},
		{
			name: "carousel beats video",
			record: map[string]any{
				"video_id": "1",
				"object_story_spec": map[string]any{
					"child_attachments": []any{map[string]any{"link": "a"}},
				},
			},
			want: FormatCarousel,
		},
		{
			name: "single empty attachment is not a carousel",
			record: map[string]any{
				"object_story_spec": map[string]any{
					"child_attachments": []any{map[string]any{}},
				},
			},
			want: FormatUnknown,
		},
		{
			name: "empty attachments list is not a carousel",
			record: map[string]any{
				"object_story_spec": map[string]any{
					"child_attachments": []any{},
				},
			},
			want: FormatUnknown,
		},
		{
			name: "dynamic via asset feed",
			record: map[string]any{
				"asset_feed_spec": map[string]any{"images": []any{map[string]any{"hash": "h"}}},
			},
			want: FormatDynamic,
		},
		{
			name: "dynamic via product set id",
			record: map[string]any{
				"product_set_id": "555",
			},
			want: FormatDynamic,
		},
		{
			name: "empty asset feed is not dynamic",
			record: map[string]any{
				"asset_feed_spec": map[string]any{},
			},
			want: FormatUnknown,
		},
		{
			name: "single image via link data",
			record: map[string]any{
				"object_story_spec": map[string]any{
					"link_data": map[string]any{"link": "https://shop.example"},
				},
			},
			want: FormatSingleImage,
		},
		{
			name: "single image via image hash",
			record: map[string]any{
				"image_hash": "abc123",
			},
			want: FormatSingleImage,
		},
		{
			name: "single image via photo url",
			record: map[string]any{
				"object_story_spec": map[string]any{
					"photo_data": map[string]any{"url": "https://img.example/p.jpg"},
				},
			},
			want: FormatSingleImage,
		},
		{
			name: "promoted post",
			record: map[string]any{
				"object_story_spec": map[string]any{
					"page_id": "44455",
				},
			},
			want: FormatPromotedPost,
		},
		{
			name: "video beats dynamic",
			record: map[string]any{
				"video_id":        "9",
				"asset_feed_spec": map[string]any{"videos": []any{}},
			},
			want: FormatVideo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.record); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_StringEncodedSpecs(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		want   string
	}{
		{
			name: "carousel from string spec",
			record: map[string]any{
				"object_story_spec": `{"child_attachments":[{"link":"a"},{"link":"b"}]}`,
			},
			want: FormatCarousel,
		},
		{
			name: "video from string spec",
			record: map[string]any{
				"object_story_spec": `{"video_data":{"video_id":"321"}}`,
			},
			want: FormatVideo,
		},
		{
			name: "dynamic from string asset feed",
			record: map[string]any{
				"asset_feed_spec": `{"bodies":[{"text":"hi"}]}`,
			},
			want: FormatDynamic,
		},
		{
			name: "garbage string spec falls through",
			record: map[string]any{
				"object_story_spec": `{not json`,
				"asset_feed_spec":   `also not json`,
			},
			want: FormatUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.record); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	record := map[string]any{
		"video_id":          "987654321",
		"object_story_spec": `{"video_data":{"video_id":"987654321"}}`,
	}
	first := Classify(record)
	for i := 0; i < 10; i++ {
		if got := Classify(record); got != first {
			t.Fatalf("classification changed between runs: %q then %q", first, got)
		}
	}
	if first != FormatVideo {
		t.Errorf("got %q, want %q", first, FormatVideo)
	}
}

func TestVideoID_PrefersStorySpec(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		want   string
	}{
		{
			name: "nested id wins over top level",
			record: map[string]any{
				"video_id":          "top",
				"object_story_spec": map[string]any{"video_data": map[string]any{"video_id": "nested"}},
			},
			want: "nested",
		},
		{
			name: "falls back to top level",
			record: map[string]any{
				"video_id":          "top",
				"object_story_spec": map[string]any{},
			},
			want: "top",
		},
		{
			name: "string encoded spec",
			record: map[string]any{
				"object_story_spec": `{"video_data":{"video_id":"enc"}}`,
			},
			want: "enc",
		},
		{
			name:   "no video",
			record: map[string]any{},
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VideoID(tt.record); got != tt.want {
				t.Errorf("VideoID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFlattenStory(t *testing.T) {
	spec := NormalizeSpec(`{
		"page_id": "p1",
		"instagram_actor_id": "ig1",
		"link_data": {
			"link": "https://shop.example",
			"caption": "cap",
			"name": "nm",
			"description": "desc",
			"message": "msg",
			"call_to_action": {"type": "SHOP_NOW"}
		},
		"video_data": {"video_id": "v1", "title": "t", "message": "m"},
		"template_data": {"message": "tm", "link": "https://t.example"},
		"photo_data": {"url": "https://img.example/a.jpg", "caption": "pc"}
	}`)

	data := FlattenStory(spec)

	if data.PageID != "p1" || data.InstagramActorID != "ig1" {
		t.Errorf("page block = %+v", data)
	}
	if data.LinkURL != "https://shop.example" || data.LinkName != "nm" {
		t.Errorf("link block = %+v", data)
	}
	var cta map[string]any
	if err := json.Unmarshal([]byte(data.LinkCallToAction), &cta); err != nil {
		t.Fatalf("link call to action is not JSON: %v", err)
	}
	if cta["type"] != "SHOP_NOW" {
		t.Errorf("call_to_action = %v", cta)
	}
	if data.VideoID != "v1" || data.VideoTitle != "t" {
		t.Errorf("video block = %+v", data)
	}
	if data.TemplateMessage != "tm" || data.TemplateLink != "https://t.example" {
		t.Errorf("template block = %+v", data)
	}
	if data.PhotoURL != "https://img.example/a.jpg" || data.PhotoCaption != "pc" {
		t.Errorf("photo block = %+v", data)
	}
}

func TestNormalizeSpec(t *testing.T) {
	if got := NormalizeSpec(nil); len(got) != 0 {
		t.Errorf("nil -> %v", got)
	}
	if got := NormalizeSpec("  "); len(got) != 0 {
		t.Errorf("blank -> %v", got)
	}
	if got := NormalizeSpec("{broken"); len(got) != 0 {
		t.Errorf("broken -> %v", got)
	}
	if got := NormalizeSpec(map[string]any{"a": 1}); len(got) != 1 {
		t.Errorf("map -> %v", got)
	}
	if got := NormalizeSpec(`{"a": 1}`); got["a"] != float64(1) {
		t.Errorf("json string -> %v", got)
	}
}
