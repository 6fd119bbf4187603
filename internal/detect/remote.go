package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/url"

	"billboard-vision/internal/logger"
	"billboard-vision/pkg/models"
)

// RemoteDetector implements Detector by posting the image to an external
// inference service that answers {"detections": [...]}.
type RemoteDetector struct {
	inferenceURL string
	minScore     float64
	classes      ClassMap
	client       *http.Client
}

// NewRemoteDetector creates a detector for the service at inferenceURL.
func NewRemoteDetector(inferenceURL string, minScore float64, classes ClassMap, client *http.Client) *RemoteDetector {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteDetector{
		inferenceURL: inferenceURL,
		minScore:     minScore,
		classes:      classes,
		client:       client,
	}
}

// Detect sends img as a JPEG multipart upload and parses the detections.
func (r *RemoteDetector) Detect(ctx context.Context, img image.Image) ([]models.Detection, error) {
	const op = "Detect"

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, wrap(op, err, "create form file")
	}
	if err := jpeg.Encode(part, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, wrap(op, err, "encode image")
	}
	if err := writer.Close(); err != nil {
		return nil, wrap(op, err, "close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.inferenceURL, body)
	if err != nil {
		return nil, wrap(op, err, "create request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, wrap(op, ErrInferenceFailed, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wrap(op, ErrInferenceFailed, fmt.Sprintf("status %d", resp.StatusCode))
	}

	var result struct {
		Detections []models.Detection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, wrap(op, ErrInferenceFailed, fmt.Sprintf("decode response: %v", err))
	}

	filtered := make([]models.Detection, 0, len(result.Detections))
	for _, det := range result.Detections {
		if det.Confidence < r.minScore || det.Confidence > 1 {
			continue
		}
		if det.ClassName == "" {
			det.ClassName = r.classes.Name(det.Class)
		}
		filtered = append(filtered, det)
	}

	log := logger.FromContext(ctx, "detect-remote")
	log.Debug().
		Int("received", len(result.Detections)).
		Int("kept", len(filtered)).
		Msg("Remote inference completed")
	return filtered, nil
}

// CheckHealth probes the /health endpoint on the inference host.
func (r *RemoteDetector) CheckHealth(ctx context.Context) error {
	const op = "CheckHealth"

	u, err := url.Parse(r.inferenceURL)
	if err != nil {
		return wrap(op, err, "parse inference URL")
	}
	healthURL := u.ResolveReference(&url.URL{Path: "/health"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL.String(), nil)
	if err != nil {
		return wrap(op, err, "create request")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return wrap(op, ErrServiceUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wrap(op, ErrServiceUnavailable, fmt.Sprintf("status %d", resp.StatusCode))
	}
	return nil
}

// Close is a no-op; the HTTP client is shared.
func (r *RemoteDetector) Close() error {
	return nil
}
