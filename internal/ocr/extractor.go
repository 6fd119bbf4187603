package ocr

import (
	"context"
	"image"
	"math"
	"strconv"
	"strings"

	"billboard-vision/internal/imaging"
	"billboard-vision/internal/logger"
	"billboard-vision/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Crop policy defaults.
const (
	DefaultPadding     = 5
	DefaultMinCropSize = 50
	DefaultUpscale     = 2.0
)

// Extractor reads text inside detections with an Engine.
type Extractor struct {
	engine        Engine
	minConfidence float64
	padding       int
	minCropSize   int
	upscale       float64
	cropGeometry  bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMinConfidence sets the confidence a word must exceed (0..100).
func WithMinConfidence(v float64) Option {
	return func(e *Extractor) { e.minConfidence = v }
}

// WithPadding sets the pixels added around each detection before cropping.
func WithPadding(px int) Option {
	return func(e *Extractor) { e.padding = px }
}

// WithUpscale enlarges crops narrower or shorter than minSize by factor.
func WithUpscale(minSize int, factor float64) Option {
	return func(e *Extractor) {
		e.minCropSize = minSize
		e.upscale = factor
	}
}

// WithCropGeometry maps token boxes through the padded crop origin and
// undoes any upscaling. By default a crop-local box is offset by the
// detection's top-left corner only.
func WithCropGeometry() Option {
	return func(e *Extractor) { e.cropGeometry = true }
}

// NewExtractor creates an Extractor around engine.
func NewExtractor(engine Engine, opts ...Option) *Extractor {
	e := &Extractor{
		engine:        engine,
		minConfidence: DefaultMinConfidence,
		padding:       DefaultPadding,
		minCropSize:   DefaultMinCropSize,
		upscale:       DefaultUpscale,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs OCR inside every detection of img and returns the kept
// tokens in img coordinates. Detections whose crop is empty are skipped.
func (e *Extractor) Extract(ctx context.Context, img image.Image, detections []models.Detection) ([]models.OCRToken, error) {
	const op = "Extract"
	log := logger.FromContext(ctx, "ocr")

	tokens := make([]models.OCRToken, 0)
	for i, det := range detections {
		box := image.Rect(int(det.XYXY[0]), int(det.XYXY[1]), int(det.XYXY[2]), int(det.XYXY[3]))
		crop, region := imaging.Crop(img, box, e.padding)
		if crop == nil {
			log.Debug().Int("detection", i).Msg("Empty crop, skipping")
			continue
		}

		factor := 1.0
		var src image.Image = crop
		if e.upscale > 1 && (region.Dx() < e.minCropSize || region.Dy() < e.minCropSize) {
			src = imaging.Scale(crop, e.upscale)
			factor = e.upscale
		}

		gray, thresh := PrepareVariants(src)

		var threshWords, grayWords []Word
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			threshWords, err = e.engine.Recognize(gctx, thresh)
			return err
		})
		g.Go(func() error {
			var err error
			grayWords, err = e.engine.Recognize(gctx, gray)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, WrapOCRError(e.engine.Name(), op, err, "detection "+strconv.Itoa(i))
		}

		origin, scale := image.Pt(int(det.XYXY[0]), int(det.XYXY[1])), 1.0
		if e.cropGeometry {
			origin, scale = region.Min, factor
		}

		words, variant := SelectVariant(threshWords, grayWords, e.minConfidence)
		parent := parentLabel(det)
		kept := 0
		for _, w := range words {
			if !KeepToken(w.Text, w.Confidence, e.minConfidence) {
				continue
			}
			tokens = append(tokens, models.OCRToken{
				Text:        strings.TrimSpace(w.Text),
				Confidence:  w.Confidence,
				BBox:        toImageBox(w.Box, origin, scale),
				ParentClass: parent,
			})
			kept++
		}

		log.Debug().
			Int("detection", i).
			Str("variant", string(variant)).
			Int("threshold_words", len(threshWords)).
			Int("gray_words", len(grayWords)).
			Int("kept", kept).
			Msg("OCR completed for detection")
	}
	return tokens, nil
}

// toImageBox divides a crop-local box by factor and offsets it by origin.
func toImageBox(r image.Rectangle, origin image.Point, factor float64) [4]int {
	scale := func(v int) int { return int(math.Round(float64(v) / factor)) }
	return [4]int{
		origin.X + scale(r.Min.X),
		origin.Y + scale(r.Min.Y),
		origin.X + scale(r.Max.X),
		origin.Y + scale(r.Max.Y),
	}
}

func parentLabel(det models.Detection) string {
	if det.ClassName != "" {
		return det.ClassName
	}
	return strconv.Itoa(det.Class)
}
