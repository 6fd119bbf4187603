package ocr_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"billboard-vision/internal/imaging"
	"billboard-vision/internal/ocr"
	"billboard-vision/pkg/models"
)

// Example demonstrates reading the text inside detected regions.
func Example() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Tesseract runs locally; use ocr.NewGoogleVisionEngine(ctx, "eng") for
	// Cloud Vision with credentials from the environment.
	engine := ocr.NewTesseractEngine("eng")
	extractor := ocr.NewExtractor(engine, ocr.WithMinConfidence(20))

	img, _, err := imaging.DecodeFile("billboard.jpg")
	if err != nil {
		log.Fatalf("Failed to decode image: %v", err)
	}

	detections := []models.Detection{
		{Class: 0, ClassName: "Billboard", Confidence: 0.91, XYXY: [4]float64{120, 40, 620, 310}},
	}

	tokens, err := extractor.Extract(ctx, img, detections)
	if err != nil {
		log.Fatalf("Failed to extract text: %v", err)
	}

	for _, t := range tokens {
		fmt.Printf("%s (%.0f%%) at %v inside %s\n", t.Text, t.Confidence, t.BBox, t.ParentClass)
	}
}

// ExampleKeepToken shows which recognized words survive filtering.
func ExampleKeepToken() {
	words := []struct {
		text       string
		confidence float64
	}{
		{"SALE", 91},
		{"42", 60},
		{"SALE", 12},
		{"a", 95},
		{"%%", 88},
		{"АБ", 90},
	}
	for _, w := range words {
		fmt.Printf("%q %v\n", w.text, ocr.KeepToken(w.text, w.confidence, ocr.DefaultMinConfidence))
	}
	// Output:
	// "SALE" true
	// "42" true
	// "SALE" false
	// "a" false
	// "%%" false
	// "АБ" false
}

// ExampleSelectVariant shows how the better preprocessing variant is chosen.
func ExampleSelectVariant() {
	thresh := []ocr.Word{{Text: "OPEN", Confidence: 80}}
	gray := []ocr.Word{{Text: "OPEN", Confidence: 75}, {Text: "24H", Confidence: 64}}

	_, variant := ocr.SelectVariant(thresh, gray, ocr.DefaultMinConfidence)
	fmt.Println(variant)

	_, variant = ocr.SelectVariant(gray[:1], thresh, ocr.DefaultMinConfidence)
	fmt.Println(variant)
	// Output:
	// gray
	// threshold
}
