package service

import (
	"errors"
	"fmt"
	"strings"

	"personachat/internal/models"
)

var ErrInvalidImage = errors.New("invalid image")

// CreateImageMessage pairs text with one image. imageURL must be an image
// data URL or an http(s) URL.
func CreateImageMessage(text, imageURL string) (models.Content, error) {
	url := strings.TrimSpace(imageURL)
	switch {
	case url == "":
		return models.Content{}, fmt.Errorf("%w: empty image url", ErrInvalidImage)
	case strings.HasPrefix(url, "data:"):
		if !strings.HasPrefix(url, "data:image/") {
			return models.Content{}, fmt.Errorf("%w: data url is not an image", ErrInvalidImage)
		}
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
	default:
		return models.Content{}, fmt.Errorf("%w: unsupported image url", ErrInvalidImage)
	}
	return models.MultiPart(models.TextPart(text), models.ImagePart(url)), nil
}
