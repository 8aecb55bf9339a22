// Package blob stores uploaded images and hands back public URLs.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ErrForeignURL is returned when asked to delete a URL outside the store.
var ErrForeignURL = errors.New("url does not belong to this store")

// Store uploads bytes and deletes them again by public URL.
type Store interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
	Owns(url string) bool
}

// ObjectKey builds the object name for a new upload: events/<yyyymmdd>-<uuid><ext>.
func ObjectKey(contentType string, now time.Time) string {
	return fmt.Sprintf("events/%s-%s%s", now.Format("20060102"), uuid.New().String(), extension(contentType))
}

func extension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}

// CompressImage decodes an image, fits it inside maxSide x maxSide and
// re-encodes it as JPEG at the given quality.
func CompressImage(r io.Reader, maxSide, quality int) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if maxSide > 0 {
		img = fit(img, maxSide)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}
