// Package ocr reads text inside detected regions.
//
// Text is recognized by an Engine, either a local Tesseract install
// (gosseract) or Google Cloud Vision. The Extractor crops every detection,
// prepares two preprocessed variants of the crop, runs the engine on both
// and keeps the filtered tokens of whichever variant produced more
// confident words.
//
// Tesseract backend:
//   - Requires the tesseract shared libraries and language data at runtime
//   - Runs in page segmentation mode 6 (single uniform block of text)
//
// Cloud Vision backend environment variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Confidences are reported on a 0..100 scale for both engines.
package ocr

import (
	"context"
	"image"
)

// Engine defines the interface for OCR backends.
type Engine interface {
	// Name identifies the backend in logs.
	Name() string

	// Recognize returns the words found in img with boxes relative to
	// img.Bounds().Min.
	Recognize(ctx context.Context, img image.Image) ([]Word, error)
}

// Word is one recognized word.
type Word struct {
	// Text is the recognized text as returned by the engine.
	Text string `json:"text"`

	// Confidence is the recognition confidence on a 0..100 scale.
	Confidence float64 `json:"confidence"`

	// Box is the word's bounding box in the recognized image.
	Box image.Rectangle `json:"box"`
}
