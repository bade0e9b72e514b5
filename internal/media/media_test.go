package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "pixel.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir)

	url, err := LoadImage(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	want, _ := os.ReadFile(path)
	assert.Equal(t, want, raw)
}

func TestLoadImageRejects(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadImage(filepath.Join(dir, "nope.png"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("text file with image extension", func(t *testing.T) {
		path := filepath.Join(dir, "fake.png")
		require.NoError(t, os.WriteFile(path, []byte("hello, not an image"), 0o600))
		_, err := LoadImage(path)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := LoadImage(dir)
		assert.ErrorIs(t, err, ErrNotImage)
	})

	t.Run("too large", func(t *testing.T) {
		path := filepath.Join(dir, "big.png")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, f.Truncate(MaxImageBytes+1))
		require.NoError(t, f.Close())
		_, err = LoadImage(path)
		assert.ErrorIs(t, err, ErrTooLarge)
	})
}

func TestDetectType(t *testing.T) {
	gif := []byte("GIF89a\x01\x00\x01\x00")
	got, err := DetectType("x.bin", gif)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", got)

	webp := append([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "), make([]byte, 8)...)
	got, err = DetectType("x", webp)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", got)

	// Unknown bytes fall back to the extension.
	got, err = DetectType("photo.JPG", []byte{0x00, 0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", got)

	_, err = DetectType("doc.pdf", []byte("%PDF-1.7"))
	assert.ErrorIs(t, err, ErrNotImage)
}
