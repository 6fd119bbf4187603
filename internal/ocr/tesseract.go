package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"
)

const tesseractName = "tesseract"

// TesseractEngine implements Engine with the gosseract client. A client is
// created per call so the engine is safe for concurrent use.
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed engine for the given
// languages (e.g. "eng").
func NewTesseractEngine(languages ...string) *TesseractEngine {
	return &TesseractEngine{languages: languages, clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return tesseractName }

// Recognize runs Tesseract over img and returns word-level boxes.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) ([]Word, error) {
	const op = "Recognize"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := encodePNG(img)
	if err != nil {
		return nil, WrapOCRError(tesseractName, op, ErrInvalidImage, err.Error())
	}

	c := e.clientFactory()
	defer c.Close()

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return nil, WrapOCRError(tesseractName, op, err, "set languages")
		}
	}
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return nil, WrapOCRError(tesseractName, op, err, "set page segmentation mode")
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return nil, WrapOCRError(tesseractName, op, err, "set image")
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, WrapOCRError(tesseractName, op, ErrOCRFailed, fmt.Sprintf("bounding boxes: %v", err))
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text:       b.Word,
			Confidence: b.Confidence,
			Box:        b.Box,
		})
	}
	return words, nil
}
