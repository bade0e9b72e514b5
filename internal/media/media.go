// Package media turns local image files into data URLs for multimodal requests.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const MaxImageBytes = 5 << 20

var (
	ErrTooLarge = errors.New("image exceeds 5MB")
	ErrNotImage = errors.New("not a supported image")
)

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// LoadImage reads the image at path and returns it as a base64 data URL.
func LoadImage(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotImage, path)
	}
	if info.Size() > MaxImageBytes {
		return "", fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}

	// Read one byte past the limit in case the file grew after Stat.
	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("%w: %s", ErrTooLarge, path)
	}

	mimeType, err := DetectType(path, data)
	if err != nil {
		return "", err
	}
	return DataURL(mimeType, data), nil
}

// DetectType sniffs data and falls back to the file extension. Only
// png, jpeg, gif and webp are accepted.
func DetectType(path string, data []byte) (string, error) {
	sniffed := http.DetectContentType(data)
	if allowedTypes[sniffed] {
		return sniffed, nil
	}
	if sniffed == "application/octet-stream" {
		byExt, _, _ := strings.Cut(mime.TypeByExtension(strings.ToLower(filepath.Ext(path))), ";")
		if allowedTypes[byExt] {
			return byExt, nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrNotImage, filepath.Base(path), sniffed)
}

func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
