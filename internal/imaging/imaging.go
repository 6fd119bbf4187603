// Package imaging holds the pixel operations used to prepare images for
// detection and OCR: cropping, scaling, letterboxing, contrast
// equalization, denoising, thresholding and morphology.
//
// All operations return new images and never modify their input.
package imaging

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Crop returns a copy of the region r grown by padding on every side and
// clamped to the image bounds, along with the rectangle actually copied.
// The returned image has its origin at (0,0). An empty region yields a nil
// image.
func Crop(img image.Image, r image.Rectangle, padding int) (*image.RGBA, image.Rectangle) {
	padded := image.Rect(r.Min.X-padding, r.Min.Y-padding, r.Max.X+padding, r.Max.Y+padding).
		Intersect(img.Bounds())
	if padded.Empty() {
		return nil, padded
	}
	dst := image.NewRGBA(image.Rect(0, 0, padded.Dx(), padded.Dy()))
	draw.Draw(dst, dst.Bounds(), img, padded.Min, draw.Src)
	return dst, padded
}

// Scale enlarges or shrinks img by factor using Catmull-Rom interpolation.
func Scale(img image.Image, factor float64) *image.RGBA {
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * factor))
	h := int(math.Round(float64(b.Dy()) * factor))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Clone copies img into a new RGBA image with the same bounds.
func Clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

// Grayscale converts img using the ITU-R 601 luma weights.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Letterbox resizes img to fit a size x size square while keeping its
// aspect ratio and fills the borders with pad. It returns the resized
// image, the scale applied and the left/top padding, which together map
// letterboxed coordinates back with (v - pad) / scale.
func Letterbox(img image.Image, size int, pad color.Color) (*image.RGBA, float64, int, int) {
	b := img.Bounds()
	scale := math.Min(float64(size)/float64(b.Dx()), float64(size)/float64(b.Dy()))
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	padX := int(math.Round(float64(size-w)/2 - 0.1))
	padY := int(math.Round(float64(size-h)/2 - 0.1))

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(pad), image.Point{}, draw.Src)
	draw.BiLinear.Scale(dst, image.Rect(padX, padY, padX+w, padY+h), img, b, draw.Src, nil)
	return dst, scale, padX, padY
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
