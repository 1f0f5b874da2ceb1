package creative

import "testing"

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		want   URLSet
	}{
		{
			name: "link url wins",
			record: map[string]any{
				"link_url":   "https://a",
				"object_url": "https://b",
			},
			want: URLSet{Primary: "https://a", Link: "https://a", Object: "https://b"},
		},
		{
			name: "object url when no link",
			record: map[string]any{
				"object_url":   "https://b",
				"template_url": "https://c",
			},
			want: URLSet{Primary: "https://b", Object: "https://b", Template: "https://c"},
		},
		{
			name: "template url last in line",
			record: map[string]any{
				"template_url": "https://c",
			},
			want: URLSet{Primary: "https://c", Template: "https://c"},
		},
		{
			name: "instagram never promoted to primary",
			record: map[string]any{
				"instagram_permalink_url": "https://instagram.com/p/x",
			},
			want: URLSet{Instagram: "https://instagram.com/p/x"},
		},
		{
			name:   "empty record",
			record: map[string]any{},
			want:   URLSet{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractURLs(tt.record); got != tt.want {
				t.Errorf("ExtractURLs() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
