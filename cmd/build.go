package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"billboard-vision/internal/annotate"
	"billboard-vision/internal/config"
	"billboard-vision/internal/detect"
	"billboard-vision/internal/fetch"
	"billboard-vision/internal/logger"
	"billboard-vision/internal/ocr"
	"billboard-vision/internal/pipeline"
	"billboard-vision/internal/publish"
)

// components holds everything a pipeline needs plus the resources that
// must be released when the command ends.
type components struct {
	pipeline *pipeline.Pipeline
	closers  []io.Closer
}

// Close releases every resource in reverse creation order.
func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// buildComponents wires the pipeline described by cfg.
func buildComponents(ctx context.Context, cfg *config.Config, withOCR bool) (*components, error) {
	log := logger.WithComponent("build")
	c := &components{}

	classes, err := detect.LoadClasses(cfg.ClassesFile)
	if err != nil {
		return nil, err
	}

	detector, err := buildDetector(cfg, classes)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, detector)

	annotator, err := annotate.New(classes)
	if err != nil {
		c.Close()
		return nil, err
	}

	var extractor pipeline.TextExtractor
	if withOCR {
		engine, err := buildEngine(ctx, cfg)
		if err != nil {
			c.Close()
			return nil, err
		}
		if closer, ok := engine.(io.Closer); ok {
			c.closers = append(c.closers, closer)
		}
		extractor = ocr.NewExtractor(engine, ocr.WithMinConfidence(cfg.OCRMinConfidence))
	}

	uploader, err := buildUploader(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	if closer, ok := uploader.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	c.pipeline = pipeline.New(
		fetch.NewFetcher(cfg.FetchTimeout, cfg.FetchMaxBytes, cfg.TempDir),
		detector,
		annotator,
		extractor,
		publish.NewService(uploader, cfg.TempDir),
	)

	log.Info().
		Str("detector", cfg.DetectorBackend).
		Bool("ocr", withOCR).
		Str("ocr_backend", cfg.OCRBackend).
		Str("publisher", cfg.PublishBackend).
		Str("classes_file", cfg.ClassesFile).
		Msg("Pipeline ready")
	return c, nil
}

func buildDetector(cfg *config.Config, classes detect.ClassMap) (detect.Detector, error) {
	switch cfg.DetectorBackend {
	case config.DetectorRemote:
		d := detect.NewRemoteDetector(cfg.InferenceURL, cfg.DetectConfidence, classes, &http.Client{Timeout: cfg.RequestTimeout})
		if err := d.CheckHealth(context.Background()); err != nil {
			log := logger.WithComponent("build")
			log.Warn().Err(err).Msg("Inference service not available")
		}
		return d, nil
	default:
		return detect.NewONNXDetector(detect.ONNXConfig{
			ModelPath:   cfg.ModelPath,
			LibraryPath: cfg.ONNXRuntimeLib,
			ImageSize:   cfg.DetectImageSize,
			Confidence:  cfg.DetectConfidence,
			IoU:         cfg.DetectIoU,
		}, classes)
	}
}

func buildEngine(ctx context.Context, cfg *config.Config) (ocr.Engine, error) {
	switch cfg.OCRBackend {
	case config.OCRVision:
		return ocr.NewGoogleVisionEngine(ctx, cfg.OCRLanguages...)
	case config.OCRTesseract:
		return ocr.NewTesseractEngine(cfg.OCRLanguages...), nil
	default:
		return nil, fmt.Errorf("unknown OCR_BACKEND %q", cfg.OCRBackend)
	}
}

func buildUploader(ctx context.Context, cfg *config.Config) (publish.Uploader, error) {
	switch cfg.PublishBackend {
	case config.PublishGCS:
		return publish.NewGCSUploader(ctx, cfg.GCSOutputBucket, cfg.GCSOutputFolder)
	default:
		return publish.NewCloudinaryUploader(publish.CloudinaryConfig{
			URL:       cfg.CloudinaryURL,
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		})
	}
}
