package profile

import (
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-booking-client/internal/errors"
)

// DefaultMaxBytes is the largest picture accepted for upload.
const DefaultMaxBytes int64 = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Picture is an image ready to upload.
type Picture struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewPicture sniffs data and enforces the image type and size rules.
func NewPicture(filename string, data []byte, maxBytes int64) (Picture, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if int64(len(data)) > maxBytes {
		return Picture{}, apperrors.ErrImageTooLarge
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return Picture{}, apperrors.Wrapf(apperrors.ErrNotAnImage, "detected %s", contentType)
	}
	return Picture{Filename: filename, ContentType: contentType, Data: data}, nil
}

// Extension returns the file extension for the sniffed type.
func (p Picture) Extension() string {
	return imageExtensions[p.ContentType]
}
