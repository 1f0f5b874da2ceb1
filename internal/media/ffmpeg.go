package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// compressVideo transcodes a video to low-resolution H.264 through ffmpeg.
// ffmpeg works on files, so the bytes round-trip through temp files. The
// caller falls back to the original bytes when ffmpeg is missing or the
// transcode fails.
func (s *Store) compressVideo(ctx context.Context, data []byte) ([]byte, error) {
	in, err := os.CreateTemp("", "ads-video-*.mp4")
	if err != nil {
		return nil, fmt.Errorf("create temp input: %w", err)
	}
	inPath := in.Name()
	defer os.Remove(inPath)

	if _, err := in.Write(data); err != nil {
		in.Close()
		return nil, fmt.Errorf("write temp input: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("close temp input: %w", err)
	}

	outPath := strings.TrimSuffix(inPath, ".mp4") + "_compressed.mp4"
	defer os.Remove(outPath)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.VideoTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.cfg.FFmpegPath,
		"-i", inPath,
		"-vf", "scale="+s.cfg.VideoScale,
		"-c:v", "libx264",
		"-crf", s.cfg.VideoCRF,
		"-preset", "fast",
		"-c:a", "aac",
		"-b:a", "64k",
		"-movflags", "+faststart",
		"-y",
		outPath,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read temp output: %w", err)
	}
	return out, nil
}

// lastLine trims ffmpeg's chatty stderr down to its final line, which
// carries the actual error.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
