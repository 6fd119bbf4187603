package detect

import (
	"math"
	"testing"
)

func TestDecodeYOLO(t *testing.T) {
	// 2 classes, 3 anchors; rows are cx, cy, w, h, score0, score1.
	out := []float32{
		100, 200, 300, // cx
		100, 200, 300, // cy
		20, 40, 60, // w
		10, 20, 30, // h
		0.9, 0.1, 0.2, // class 0
		0.05, 0.8, 0.1, // class 1
	}
	cands := decodeYOLO(out, 2, 3, 0.25)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].class != 0 || cands[0].box != [4]float64{90, 95, 110, 105} {
		t.Fatalf("unexpected first candidate %+v", cands[0])
	}
	if cands[1].class != 1 || math.Abs(cands[1].score-0.8) > 1e-6 {
		t.Fatalf("unexpected second candidate %+v", cands[1])
	}
}

func TestDecodeYOLOShortOutput(t *testing.T) {
	if cands := decodeYOLO(make([]float32, 5), 2, 3, 0); cands != nil {
		t.Fatalf("expected nil for truncated output, got %v", cands)
	}
}

func TestNonMaxSuppression(t *testing.T) {
	cands := []candidate{
		{box: [4]float64{0, 0, 100, 100}, score: 0.6, class: 0},
		{box: [4]float64{5, 5, 105, 105}, score: 0.9, class: 0},
		{box: [4]float64{5, 5, 105, 105}, score: 0.7, class: 1},
		{box: [4]float64{300, 300, 400, 400}, score: 0.3, class: 0},
	}
	kept := nonMaxSuppression(cands, 0.7)
	if len(kept) != 3 {
		t.Fatalf("expected 3 boxes, got %d: %+v", len(kept), kept)
	}
	if kept[0].score != 0.9 {
		t.Fatalf("highest score must come first, got %v", kept[0].score)
	}
	for _, k := range kept {
		if k.class == 0 && k.score == 0.6 {
			t.Fatalf("overlapping lower-score box was not suppressed")
		}
	}
}

func TestIoU(t *testing.T) {
	a := [4]float64{0, 0, 10, 10}
	if got := iou(a, a); got != 1 {
		t.Fatalf("iou(a, a) = %v", got)
	}
	if got := iou(a, [4]float64{20, 20, 30, 30}); got != 0 {
		t.Fatalf("disjoint iou = %v", got)
	}
	if got := iou(a, [4]float64{5, 0, 15, 10}); math.Abs(got-1.0/3.0) > 1e-9 {
		t.Fatalf("half overlap iou = %v", got)
	}
}

func TestUnletterbox(t *testing.T) {
	// 1280x640 source letterboxed to 640: scale 0.5, padY 160.
	got := unletterbox([4]float64{50, 210, 150, 260}, 0.5, 0, 160, 1280, 640)
	want := [4]float64{100, 100, 300, 200}
	if got != want {
		t.Fatalf("unletterbox() = %v, want %v", got, want)
	}

	clipped := unletterbox([4]float64{-10, 100, 700, 900}, 0.5, 0, 160, 1280, 640)
	if clipped[0] != 0 || clipped[3] != 640 {
		t.Fatalf("box not clipped: %v", clipped)
	}
}

func TestAnchorCount(t *testing.T) {
	if got := anchorCount(640); got != 8400 {
		t.Fatalf("anchorCount(640) = %d, want 8400", got)
	}
}
