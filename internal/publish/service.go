// Package publish uploads annotated images to a hosted image store.
//
// The Service encodes the image to a temporary JPEG, hands the file to an
// Uploader and removes the file afterwards, whether the upload succeeded
// or not.
//
// Supported stores:
//   - Cloudinary (CLOUDINARY_URL, or CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY
//     and CLOUDINARY_API_SECRET)
//   - Google Cloud Storage (GCS_OUTPUT_BUCKET plus GOOGLE_APPLICATION_CREDENTIALS
//     or GOOGLE_CREDENTIALS)
package publish

import (
	"context"
	"image"
	"image/jpeg"
	"os"

	"billboard-vision/internal/logger"
	"github.com/google/uuid"
)

// Uploader defines the interface for hosted stores.
type Uploader interface {
	// Upload stores the JPEG at path under name and returns its public URL.
	Upload(ctx context.Context, path, name string) (string, error)
}

// Service publishes images through an Uploader.
type Service struct {
	uploader Uploader
	tempDir  string
	quality  int
}

// NewService creates a publishing service. An empty tempDir selects the OS default.
func NewService(uploader Uploader, tempDir string) *Service {
	return &Service{
		uploader: uploader,
		tempDir:  tempDir,
		quality:  90,
	}
}

// Publish uploads img and returns the hosted URL.
func (s *Service) Publish(ctx context.Context, img image.Image) (string, error) {
	const op = "Publish"
	log := logger.FromContext(ctx, "publish")

	tmp, err := os.CreateTemp(s.tempDir, "annotated-*.jpg")
	if err != nil {
		return "", wrap(op, err, "failed to create temp file")
	}
	path := tmp.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove temp file")
		}
	}()

	encErr := jpeg.Encode(tmp, img, &jpeg.Options{Quality: s.quality})
	closeErr := tmp.Close()
	if encErr != nil {
		return "", wrap(op, ErrEncodeFailed, encErr.Error())
	}
	if closeErr != nil {
		return "", wrap(op, closeErr, "failed to close temp file")
	}

	name := uuid.NewString()
	url, err := s.uploader.Upload(ctx, path, name)
	if err != nil {
		return "", wrap(op, err, "upload "+name)
	}

	log.Info().
		Str("name", name).
		Str("url", url).
		Msg("Annotated image published")
	return url, nil
}
