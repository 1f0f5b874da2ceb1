package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageExtension(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/a/pic.png", ".png"},
		{"https://cdn.example.com/a/pic.JPEG?sig=abc", ".jpeg"},
		{"https://cdn.example.com/a/pic.webp", ".webp"},
		{"https://cdn.example.com/a/pic.gif", ".gif"},
		{"https://cdn.example.com/a/pic.bmp", ".jpg"},
		{"https://cdn.example.com/a/pic", ".jpg"},
		{"", ".jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, imageExtension(tt.url), tt.url)
	}
}

func TestImageContentType(t *testing.T) {
	assert.Equal(t, "image/png", imageContentType(".png"))
	assert.Equal(t, "image/gif", imageContentType(".gif"))
	assert.Equal(t, "image/webp", imageContentType(".webp"))
	assert.Equal(t, "image/jpeg", imageContentType(".jpg"))
	assert.Equal(t, "image/jpeg", imageContentType(".jpeg"))
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompressImageShrinksLargeImages(t *testing.T) {
	data := pngBytes(t, solidImage(4000, 2000, color.RGBA{R: 40, G: 80, B: 120, A: 255}))

	out, err := compressImage(data, 1920, 65)
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1920, img.Bounds().Dx())
	assert.Equal(t, 960, img.Bounds().Dy())
}

func TestCompressImageShrinksByHeight(t *testing.T) {
	data := pngBytes(t, solidImage(1000, 2500, color.RGBA{A: 255}))

	out, err := compressImage(data, 1920, 65)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 768, img.Bounds().Dx())
	assert.Equal(t, 1920, img.Bounds().Dy())
}

func TestCompressImageKeepsSmallDimensions(t *testing.T) {
	data := pngBytes(t, solidImage(100, 50, color.RGBA{R: 255, A: 255}))

	out, err := compressImage(data, 1920, 65)
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestCompressImageFlattensAlphaOntoWhite(t *testing.T) {
	// Left half fully transparent, right half opaque red.
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 50; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	out, err := compressImage(pngBytes(t, img), 1920, 90)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	r, g, b, _ := decoded.At(10, 50).RGBA()
	assert.Greater(t, r>>8, uint32(240), "transparent area should flatten to white")
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))

	r, g, _, _ = decoded.At(90, 50).RGBA()
	assert.Greater(t, r>>8, uint32(200), "opaque area should keep its color")
	assert.Less(t, g>>8, uint32(100))
}

func TestCompressImageRejectsGarbage(t *testing.T) {
	_, err := compressImage([]byte("definitely not an image"), 1920, 65)
	require.Error(t, err)
}
