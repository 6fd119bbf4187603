// Package pipeline runs one prediction request end to end: download,
// decode, detect, annotate, read text and publish.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"billboard-vision/internal/detect"
	"billboard-vision/internal/fetch"
	"billboard-vision/internal/imaging"
	"billboard-vision/internal/logger"
	"billboard-vision/pkg/models"
	"billboard-vision/pkg/services"
)

// Pipeline errors not owned by a collaborator package.
var (
	// ErrEmptyURL is returned when no image URL is supplied.
	ErrEmptyURL = errors.New("image URL is required")

	// ErrInvalidImage is returned when the downloaded payload is not a decodable image.
	ErrInvalidImage = errors.New("downloaded image is invalid")
)

// Fetcher downloads an image into a temporary file the caller removes.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Annotator draws detections and OCR tokens.
type Annotator interface {
	DrawDetections(img image.Image, detections []models.Detection) (*image.RGBA, error)
	DrawTokens(dst *image.RGBA, tokens []models.OCRToken) error
}

// TextExtractor reads text inside detections.
type TextExtractor interface {
	Extract(ctx context.Context, img image.Image, detections []models.Detection) ([]models.OCRToken, error)
}

// Publisher uploads the annotated image and returns its URL.
type Publisher interface {
	Publish(ctx context.Context, img image.Image) (string, error)
}

// Pipeline implements services.PredictionService.
type Pipeline struct {
	fetcher   Fetcher
	detector  detect.Detector
	annotator Annotator
	extractor TextExtractor
	publisher Publisher
}

var _ services.PredictionService = (*Pipeline)(nil)

// New assembles a pipeline. A nil extractor disables OCR.
func New(fetcher Fetcher, detector detect.Detector, annotator Annotator, extractor TextExtractor, publisher Publisher) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		detector:  detector,
		annotator: annotator,
		extractor: extractor,
		publisher: publisher,
	}
}

// Predict runs the full pipeline for imageURL.
func (p *Pipeline) Predict(ctx context.Context, imageURL string) (*models.Prediction, error) {
	log := logger.FromContext(ctx, "pipeline")
	start := time.Now()

	if imageURL == "" {
		return nil, ErrEmptyURL
	}

	img, err := p.load(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	detections, err := p.detector.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect objects: %w", err)
	}
	log.Info().Int("detections", len(detections)).Msg("Detection completed")

	annotated, err := p.annotator.DrawDetections(img, detections)
	if err != nil {
		return nil, fmt.Errorf("annotate detections: %w", err)
	}

	var tokens []models.OCRToken
	if p.extractor != nil {
		tokens, err = p.extractor.Extract(ctx, img, detections)
		if err != nil {
			return nil, fmt.Errorf("extract text: %w", err)
		}
		if tokens == nil {
			tokens = []models.OCRToken{}
		}
		if err := p.annotator.DrawTokens(annotated, tokens); err != nil {
			return nil, fmt.Errorf("annotate tokens: %w", err)
		}
		log.Info().Int("tokens", len(tokens)).Msg("Text extraction completed")
	}

	url, err := p.publisher.Publish(ctx, annotated)
	if err != nil {
		return nil, fmt.Errorf("publish annotated image: %w", err)
	}

	log.Info().
		Str("annotated_image_url", url).
		Dur("duration", time.Since(start)).
		Msg("Prediction completed")

	if detections == nil {
		detections = []models.Detection{}
	}
	return &models.Prediction{
		Detections:        detections,
		OCR:               tokens,
		AnnotatedImageURL: url,
	}, nil
}

// load downloads and decodes the image. The downloaded file is removed
// before returning.
func (p *Pipeline) load(ctx context.Context, imageURL string) (image.Image, error) {
	log := logger.FromContext(ctx, "pipeline")

	path, err := p.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove downloaded file")
		}
	}()

	img, format, err := imaging.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	log.Debug().
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Image decoded")
	return img, nil
}

// IsClientError reports whether err was caused by the request rather than
// by the service or its collaborators.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyURL) || fetch.IsClientError(err)
}
