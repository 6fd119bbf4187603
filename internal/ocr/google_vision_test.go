package ocr

import (
	"image"
	"reflect"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

func poly(pts ...[2]int32) *visionpb.BoundingPoly {
	p := &visionpb.BoundingPoly{}
	for _, v := range pts {
		p.Vertices = append(p.Vertices, &visionpb.Vertex{X: v[0], Y: v[1]})
	}
	return p
}

func TestWordsFromAnnotation(t *testing.T) {
	annotation := &visionpb.TextAnnotation{
		Pages: []*visionpb.Page{{
			Blocks: []*visionpb.Block{{
				Paragraphs: []*visionpb.Paragraph{{
					Words: []*visionpb.Word{
						{
							Symbols:     []*visionpb.Symbol{{Text: "S"}, {Text: "A"}, {Text: "L"}, {Text: "E"}},
							Confidence:  0.9,
							BoundingBox: poly([2]int32{10, 5}, [2]int32{50, 6}, [2]int32{50, 20}, [2]int32{9, 19}),
						},
					},
				}},
			}},
		}},
	}

	words := wordsFromAnnotation(annotation)
	if len(words) != 1 {
		t.Fatalf("expected one word, got %d", len(words))
	}
	w := words[0]
	if w.Text != "SALE" {
		t.Fatalf("text = %q", w.Text)
	}
	if w.Confidence < 89.9 || w.Confidence > 90.1 {
		t.Fatalf("confidence = %v, want ~90", w.Confidence)
	}
	if w.Box != image.Rect(9, 5, 50, 20) {
		t.Fatalf("box = %v", w.Box)
	}
}

func TestWordsFromAnnotationNil(t *testing.T) {
	if words := wordsFromAnnotation(nil); words != nil {
		t.Fatalf("expected nil, got %v", words)
	}
	if r := polyBounds(nil); !r.Empty() {
		t.Fatalf("expected empty rect, got %v", r)
	}
}

func TestVisionLanguageHints(t *testing.T) {
	got := visionLanguageHints([]string{"eng", "rus", "zh-Hant"})
	want := []string{"en", "ru", "zh-Hant"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("hints = %v, want %v", got, want)
	}
}
