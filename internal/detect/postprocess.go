package detect

import (
	"math"
	"sort"
)

// maxDetections caps the number of boxes kept after suppression.
const maxDetections = 300

// candidate is one decoded box in letterboxed model coordinates.
type candidate struct {
	box   [4]float64 // x1, y1, x2, y2
	score float64
	class int
}

// decodeYOLO reads a [4+numClasses, numAnchors] row-major output where the
// first four rows are cx, cy, w, h and the remaining rows are per-class
// scores. Only anchors whose best score reaches minScore are returned.
func decodeYOLO(out []float32, numClasses, numAnchors int, minScore float64) []candidate {
	if len(out) < (4+numClasses)*numAnchors {
		return nil
	}
	var cands []candidate
	for i := 0; i < numAnchors; i++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < numClasses; c++ {
			if s := out[(4+c)*numAnchors+i]; best < 0 || s > bestScore {
				best, bestScore = c, s
			}
		}
		if float64(bestScore) < minScore {
			continue
		}
		cx := float64(out[i])
		cy := float64(out[numAnchors+i])
		w := float64(out[2*numAnchors+i])
		h := float64(out[3*numAnchors+i])
		cands = append(cands, candidate{
			box:   [4]float64{cx - w/2, cy - h/2, cx + w/2, cy + h/2},
			score: float64(bestScore),
			class: best,
		})
	}
	return cands
}

// nonMaxSuppression keeps the highest scoring boxes, dropping any box that
// overlaps an already kept box of the same class by more than threshold.
func nonMaxSuppression(cands []candidate, threshold float64) []candidate {
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].score > sorted[j].score })

	var kept []candidate
	for _, c := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.class == c.class && iou(k.box, c.box) > threshold {
				suppressed = true
				break
			}
		}
		if suppressed {
			continue
		}
		kept = append(kept, c)
		if len(kept) == maxDetections {
			break
		}
	}
	return kept
}

func iou(a, b [4]float64) float64 {
	ix := math.Max(0, math.Min(a[2], b[2])-math.Max(a[0], b[0]))
	iy := math.Max(0, math.Min(a[3], b[3])-math.Max(a[1], b[1]))
	inter := ix * iy
	union := area(a) + area(b) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func area(b [4]float64) float64 {
	return math.Max(0, b[2]-b[0]) * math.Max(0, b[3]-b[1])
}

// unletterbox maps a box from letterboxed model space back to the source
// image and clips it to width x height.
func unletterbox(box [4]float64, scale float64, padX, padY int, width, height int) [4]float64 {
	x1 := (box[0] - float64(padX)) / scale
	y1 := (box[1] - float64(padY)) / scale
	x2 := (box[2] - float64(padX)) / scale
	y2 := (box[3] - float64(padY)) / scale
	return [4]float64{
		clamp(x1, 0, float64(width)),
		clamp(y1, 0, float64(height)),
		clamp(x2, 0, float64(width)),
		clamp(y2, 0, float64(height)),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
