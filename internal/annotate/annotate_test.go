package annotate

import (
	"image"
	"image/color"
	"testing"

	"billboard-vision/internal/detect"
	"billboard-vision/pkg/models"
)

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestDrawDetections(t *testing.T) {
	a, err := New(detect.DefaultClasses())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	src := blank(200, 200)
	dets := []models.Detection{
		{Class: 0, Confidence: 0.87, XYXY: [4]float64{40, 60, 160, 180}},
		{Class: 1, Confidence: 0.55, XYXY: [4]float64{10, 10, 30, 30}},
	}

	out, err := a.DrawDetections(src, dets)
	if err != nil {
		t.Fatalf("DrawDetections() error = %v", err)
	}
	if got := out.RGBAAt(100, 180); got != (color.RGBA{G: 255, A: 255}) {
		t.Fatalf("billboard bottom edge = %v, want green", got)
	}
	if got := out.RGBAAt(30, 20); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("stand right edge = %v, want red", got)
	}
	if got := out.RGBAAt(100, 120); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("box interior changed: %v", got)
	}
	if got := src.RGBAAt(100, 180); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("source image was modified")
	}
}

func TestDrawTokens(t *testing.T) {
	a, err := New(detect.DefaultClasses())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	dst := blank(100, 100)
	if err := a.DrawTokens(dst, []models.OCRToken{{Text: "SALE", BBox: [4]int{20, 40, 80, 60}}}); err != nil {
		t.Fatalf("DrawTokens() error = %v", err)
	}
	if got := dst.RGBAAt(50, 60); got != tokenColor {
		t.Fatalf("token edge = %v, want blue", got)
	}
}

func TestDrawOnOffsetImage(t *testing.T) {
	a, err := New(detect.DefaultClasses())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	src := image.NewRGBA(image.Rect(100, 100, 300, 300))
	for i := range src.Pix {
		src.Pix[i] = 255
	}

	out, err := a.DrawDetections(src, []models.Detection{
		{Class: 0, Confidence: 0.9, XYXY: [4]float64{140, 160, 260, 280}},
	})
	if err != nil {
		t.Fatalf("DrawDetections() error = %v", err)
	}
	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}
	if got := out.RGBAAt(200, 280); got != (color.RGBA{G: 255, A: 255}) {
		t.Fatalf("detection edge = %v, want green", got)
	}

	if err := a.DrawTokens(out, []models.OCRToken{{Text: "SALE", BBox: [4]int{150, 200, 250, 230}}}); err != nil {
		t.Fatalf("DrawTokens() error = %v", err)
	}
	if got := out.RGBAAt(200, 230); got != tokenColor {
		t.Fatalf("token edge = %v, want blue", got)
	}
}
