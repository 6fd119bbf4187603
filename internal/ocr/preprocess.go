package ocr

import (
	"image"

	"billboard-vision/internal/imaging"
)

// Preprocessing parameters for OCR crops.
const (
	claheClipLimit = 3.0
	claheTiles     = 8
	denoiseRadius  = 1
	thresholdBlock = 11
	thresholdC     = 2
	morphKernel    = 2
)

// PrepareVariants builds the two images OCR is attempted on: a contrast
// equalized, denoised grayscale and a binarized copy of it cleaned up by a
// morphological close followed by an open.
func PrepareVariants(img image.Image) (gray, thresh *image.Gray) {
	gray = imaging.Grayscale(img)
	gray = imaging.CLAHE(gray, claheClipLimit, claheTiles, claheTiles)
	gray = imaging.MedianDenoise(gray, denoiseRadius)

	thresh = imaging.AdaptiveThreshold(gray, thresholdBlock, thresholdC)
	thresh = imaging.MorphClose(thresh, morphKernel)
	thresh = imaging.MorphOpen(thresh, morphKernel)
	return gray, thresh
}
