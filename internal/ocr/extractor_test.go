package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"billboard-vision/pkg/models"
)

// fakeEngine answers with threshWords for binary images and grayWords
// for everything else.
type fakeEngine struct {
	threshWords []Word
	grayWords   []Word
	err         error

	mu    sync.Mutex
	sizes []image.Point
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image) ([]Word, error) {
	f.mu.Lock()
	f.sizes = append(f.sizes, img.Bounds().Size())
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if isBinary(img.(*image.Gray)) {
		return f.threshWords, nil
	}
	return f.grayWords, nil
}

func isBinary(g *image.Gray) bool {
	for _, v := range g.Pix {
		if v != 0 && v != 255 {
			return false
		}
	}
	return true
}

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / w)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestExtractPicksVariantAndMapsBoxes(t *testing.T) {
	engine := &fakeEngine{
		threshWords: []Word{{Text: "AB", Confidence: 90, Box: image.Rect(0, 0, 5, 5)}},
		grayWords: []Word{
			{Text: "SALE", Confidence: 88, Box: image.Rect(10, 10, 30, 20)},
			{Text: "50%", Confidence: 70, Box: image.Rect(40, 10, 60, 20)},
			{Text: "!", Confidence: 99, Box: image.Rect(0, 0, 2, 2)},
		},
	}
	det := models.Detection{Class: 0, ClassName: "Billboard", Confidence: 0.9, XYXY: [4]float64{20, 10, 100, 70}}

	tokens, err := NewExtractor(engine).Extract(context.Background(), gradientImage(140, 100), []models.Detection{det})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens from the gray variant, got %+v", tokens)
	}
	want := models.OCRToken{Text: "SALE", Confidence: 88, BBox: [4]int{30, 20, 50, 30}, ParentClass: "Billboard"}
	if tokens[0] != want {
		t.Fatalf("token = %+v, want %+v", tokens[0], want)
	}
}

func TestExtractTiePrefersThreshold(t *testing.T) {
	engine := &fakeEngine{
		threshWords: []Word{{Text: "OPEN", Confidence: 50, Box: image.Rect(0, 0, 10, 10)}},
		grayWords:   []Word{{Text: "OPFN", Confidence: 50, Box: image.Rect(0, 0, 10, 10)}},
	}
	det := models.Detection{Class: 1, XYXY: [4]float64{10, 10, 90, 90}}

	tokens, err := NewExtractor(engine).Extract(context.Background(), gradientImage(100, 100), []models.Detection{det})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(tokens) != 1 || tokens[0].Text != "OPEN" {
		t.Fatalf("expected threshold token, got %+v", tokens)
	}
	if tokens[0].ParentClass != "1" {
		t.Fatalf("parent class = %q, want numeric fallback", tokens[0].ParentClass)
	}
}

func TestExtractUpscalesSmallCrops(t *testing.T) {
	engine := &fakeEngine{
		grayWords: []Word{{Text: "HI", Confidence: 60, Box: image.Rect(20, 20, 40, 30)}},
	}
	det := models.Detection{Class: 0, ClassName: "Stand", XYXY: [4]float64{10, 10, 30, 30}}

	tokens, err := NewExtractor(engine).Extract(context.Background(), gradientImage(100, 100), []models.Detection{det})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	for _, s := range engine.sizes {
		if s != image.Pt(60, 60) {
			t.Fatalf("engine saw %v, want upscaled 60x60", s)
		}
	}
	if len(tokens) != 1 || tokens[0].BBox != [4]int{30, 30, 50, 40} {
		t.Fatalf("unexpected tokens %+v", tokens)
	}
}

func TestExtractCropGeometry(t *testing.T) {
	tests := []struct {
		name string
		det  [4]float64
		word image.Rectangle
		want [4]int
	}{
		{"padded origin", [4]float64{20, 10, 100, 70}, image.Rect(10, 10, 30, 20), [4]int{25, 15, 45, 25}},
		{"upscaled crop", [4]float64{10, 10, 30, 30}, image.Rect(20, 20, 40, 30), [4]int{15, 15, 25, 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{grayWords: []Word{{Text: "HI", Confidence: 60, Box: tt.word}}}
			det := models.Detection{ClassName: "Billboard", XYXY: tt.det}

			tokens, err := NewExtractor(engine, WithCropGeometry()).Extract(context.Background(), gradientImage(140, 100), []models.Detection{det})
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if len(tokens) != 1 || tokens[0].BBox != tt.want {
				t.Fatalf("tokens = %+v, want box %v", tokens, tt.want)
			}
		})
	}
}

func TestExtractSkipsEmptyCrops(t *testing.T) {
	engine := &fakeEngine{}
	det := models.Detection{XYXY: [4]float64{500, 500, 600, 600}}

	tokens, err := NewExtractor(engine).Extract(context.Background(), gradientImage(50, 50), []models.Detection{det})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(tokens) != 0 || len(engine.sizes) != 0 {
		t.Fatalf("expected no OCR calls, got %d calls and %d tokens", len(engine.sizes), len(tokens))
	}
}

func TestExtractPropagatesEngineErrors(t *testing.T) {
	engine := &fakeEngine{err: ErrOCRFailed}
	det := models.Detection{XYXY: [4]float64{0, 0, 60, 60}}

	_, err := NewExtractor(engine).Extract(context.Background(), gradientImage(80, 80), []models.Detection{det})
	if !errors.Is(err, ErrOCRFailed) {
		t.Fatalf("Extract() error = %v, want ErrOCRFailed", err)
	}
}
