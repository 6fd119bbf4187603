package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPredictionOCRField(t *testing.T) {
	tests := []struct {
		name    string
		ocr     []OCRToken
		wantKey bool
		want    string
	}{
		{"ocr disabled", nil, false, ""},
		{"ocr ran without tokens", []OCRToken{}, true, `"ocr":[]`},
		{"ocr with tokens", []OCRToken{{Text: "SALE", Confidence: 80, BBox: [4]int{1, 2, 3, 4}, ParentClass: "Billboard"}}, true, `"ocr":[{"text":"SALE"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Prediction{
				Detections:        []Detection{{Class: 0, Confidence: 0.9, XYXY: [4]float64{0, 0, 10, 10}}},
				OCR:               tt.ocr,
				AnnotatedImageURL: "https://images.example.com/a.jpg",
			}
			data, err := json.Marshal(p)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			got := string(data)
			if strings.Contains(got, `"ocr"`) != tt.wantKey {
				t.Fatalf("ocr key presence wrong in %s", got)
			}
			if tt.want != "" && !strings.Contains(got, tt.want) {
				t.Fatalf("expected %s in %s", tt.want, got)
			}
			if !strings.Contains(got, `"annotated_image_url":"https://images.example.com/a.jpg"`) {
				t.Fatalf("missing url in %s", got)
			}

			var back Prediction
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			if (back.OCR == nil) != (tt.ocr == nil) {
				t.Fatalf("ocr nil-ness not preserved: %#v", back.OCR)
			}
		})
	}
}
