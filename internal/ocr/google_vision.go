package ocr

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

const visionName = "vision"

// GoogleVisionEngine implements Engine using Google Cloud Vision API
// document text detection.
type GoogleVisionEngine struct {
	client    *vision.ImageAnnotatorClient
	languages []string
}

// NewGoogleVisionEngine creates a new OCR engine with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionEngine(ctx context.Context, languages ...string) (*GoogleVisionEngine, error) {
	const op = "NewGoogleVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(visionName, op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(visionName, op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(visionName, op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return NewGoogleVisionEngineWithClient(client, languages...), nil
}

// NewGoogleVisionEngineWithClient creates a new OCR engine with an explicit client (for testing).
func NewGoogleVisionEngineWithClient(client *vision.ImageAnnotatorClient, languages ...string) *GoogleVisionEngine {
	return &GoogleVisionEngine{
		client:    client,
		languages: visionLanguageHints(languages),
	}
}

func (g *GoogleVisionEngine) Name() string { return visionName }

// Recognize sends img to the Vision API and flattens the returned words.
func (g *GoogleVisionEngine) Recognize(ctx context.Context, img image.Image) ([]Word, error) {
	const op = "Recognize"

	data, err := encodePNG(img)
	if err != nil {
		return nil, WrapOCRError(visionName, op, ErrInvalidImage, err.Error())
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: data},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{LanguageHints: g.languages},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapOCRError(visionName, op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapOCRError(visionName, op, ErrOCRFailed, "no response from Vision API")
	}
	imgResp := resp.Responses[0]
	if imgResp.Error != nil {
		return nil, WrapOCRError(visionName, op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", imgResp.Error.Message))
	}

	return wordsFromAnnotation(imgResp.FullTextAnnotation), nil
}

// wordsFromAnnotation walks pages, blocks and paragraphs and returns every
// word with its confidence scaled to 0..100.
func wordsFromAnnotation(annotation *visionpb.TextAnnotation) []Word {
	if annotation == nil {
		return nil
	}
	var words []Word
	for _, page := range annotation.Pages {
		for _, block := range page.Blocks {
			for _, paragraph := range block.Paragraphs {
				for _, word := range paragraph.Words {
					var text strings.Builder
					for _, symbol := range word.Symbols {
						text.WriteString(symbol.Text)
					}
					words = append(words, Word{
						Text:       text.String(),
						Confidence: float64(word.Confidence) * 100,
						Box:        polyBounds(word.BoundingBox),
					})
				}
			}
		}
	}
	return words
}

// polyBounds returns the axis-aligned rectangle enclosing a bounding polygon.
func polyBounds(poly *visionpb.BoundingPoly) image.Rectangle {
	if poly == nil || len(poly.Vertices) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{}
	for i, v := range poly.Vertices {
		p := image.Pt(int(v.X), int(v.Y))
		if i == 0 {
			r = image.Rectangle{Min: p, Max: p}
			continue
		}
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	return r
}

// visionLanguageHints converts Tesseract language codes ("eng") to the
// BCP-47 hints Vision expects ("en"). Unknown codes are passed through.
func visionLanguageHints(languages []string) []string {
	known := map[string]string{
		"eng": "en", "deu": "de", "fra": "fr", "spa": "es", "ita": "it",
		"por": "pt", "rus": "ru", "hin": "hi", "urd": "ur", "ara": "ar",
	}
	hints := make([]string, 0, len(languages))
	for _, l := range languages {
		if h, ok := known[l]; ok {
			hints = append(hints, h)
			continue
		}
		hints = append(hints, l)
	}
	return hints
}

// Close closes the underlying Vision client.
func (g *GoogleVisionEngine) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
