package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Video CDN endpoints refuse requests without browser-looking headers.
const (
	videoUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	videoReferer   = "https://www.facebook.com/"
	videoAccept    = "video/mp4,video/*;q=0.9,*/*;q=0.8"
)

// resolveVideoSource asks the API for the video's signed source URL.
func (s *Store) resolveVideoSource(ctx context.Context, videoID string) (string, error) {
	rec, err := s.source.GetObject(ctx, videoID, []string{"source"})
	if err != nil {
		return "", err
	}
	source, _ := rec["source"].(string)
	if source == "" {
		return "", fmt.Errorf("no source url in response for video %s", videoID)
	}
	return source, nil
}

// downloadVideo fetches video bytes from a signed CDN URL.
func (s *Store) downloadVideo(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse video url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported video url scheme %q", u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.VideoTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", videoUserAgent)
	req.Header.Set("Referer", videoReferer)
	req.Header.Set("Accept", videoAccept)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video download returned status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "video/") {
		return nil, fmt.Errorf("url does not point to a video: %q", ct)
	}
	return io.ReadAll(resp.Body)
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
	".mkv":  true,
}

// videoExtension extracts the file extension from a URL path, defaulting
// to .mp4 for unknown or missing extensions.
func videoExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".mp4"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if !videoExtensions[ext] {
		return ".mp4"
	}
	return ext
}

func videoContentType(ext string) string {
	switch ext {
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	default:
		return "video/mp4"
	}
}
