package services

import (
	"context"

	"billboard-vision/pkg/models"
)

// PredictionService defines the interface for running the detection pipeline
type PredictionService interface {
	// Predict downloads the image at imageURL, detects objects, optionally
	// reads text inside them and returns the results with the URL of the
	// published annotated image.
	Predict(ctx context.Context, imageURL string) (*models.Prediction, error)
}
