package services

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/eventmaster-api/internal/blob"
	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/logger"
)

// MediaService compresses uploaded images and stores them.
type MediaService struct {
	store   blob.Store
	maxSide int
	quality int
	log     *log.Logger
}

// NewMediaService creates a media service writing JPEGs that fit inside
// maxSide x maxSide at the given quality.
func NewMediaService(store blob.Store, maxSide, quality int) *MediaService {
	return &MediaService{
		store:   store,
		maxSide: maxSide,
		quality: quality,
		log:     logger.Service("media"),
	}
}

// UploadImage stores a compressed copy of the image and returns its URL.
func (s *MediaService) UploadImage(ctx context.Context, r io.Reader) (string, error) {
	data, err := blob.CompressImage(r, s.maxSide, s.quality)
	if err != nil {
		return "", common.NewValidationError("file", "must be a PNG, JPEG or GIF image")
	}

	url, err := s.store.Upload(ctx, data, "image/jpeg")
	if err != nil {
		s.log.Error("Failed to upload image", "error", err)
		return "", err
	}
	s.log.Info("Image uploaded", "url", url, "size", len(data))
	return url, nil
}

// DeleteImage removes an image previously returned by UploadImage.
func (s *MediaService) DeleteImage(ctx context.Context, url string) error {
	err := s.store.Delete(ctx, url)
	if errors.Is(err, blob.ErrForeignURL) {
		return common.NewValidationError("url", "is not managed by this service")
	}
	return err
}
