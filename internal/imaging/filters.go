package imaging

import (
	"image"
	"math"
	"sort"
)

// CLAHE applies contrast limited adaptive histogram equalization with the
// given clip limit over a tilesX x tilesY grid. Per-tile lookup tables are
// blended bilinearly between tile centers.
func CLAHE(src *image.Gray, clipLimit float64, tilesX, tilesY int) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	nx := clampInt(tilesX, 1, w)
	ny := clampInt(tilesY, 1, h)

	luts := make([][256]uint8, nx*ny)
	for ty := 0; ty < ny; ty++ {
		y0, y1 := ty*h/ny, (ty+1)*h/ny
		for tx := 0; tx < nx; tx++ {
			x0, x1 := tx*w/nx, (tx+1)*w/nx
			luts[ty*nx+tx] = tileLUT(src, x0, y0, x1, y1, clipLimit)
		}
	}

	tileW := float64(w) / float64(nx)
	tileH := float64(h) / float64(ny)
	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)/tileH - 0.5
		ty1 := int(math.Floor(fy))
		ay := fy - float64(ty1)
		ty2 := clampInt(ty1+1, 0, ny-1)
		ty1 = clampInt(ty1, 0, ny-1)

		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/tileW - 0.5
			tx1 := int(math.Floor(fx))
			ax := fx - float64(tx1)
			tx2 := clampInt(tx1+1, 0, nx-1)
			tx1 = clampInt(tx1, 0, nx-1)

			v := grayAt(src, x, y)
			top := (1-ax)*float64(luts[ty1*nx+tx1][v]) + ax*float64(luts[ty1*nx+tx2][v])
			bottom := (1-ax)*float64(luts[ty2*nx+tx1][v]) + ax*float64(luts[ty2*nx+tx2][v])
			dst.Pix[y*dst.Stride+x] = uint8(clampInt(int(math.Round((1-ay)*top+ay*bottom)), 0, 255))
		}
	}
	return dst
}

// tileLUT builds the equalization table of one tile with its histogram
// clipped at clipLimit times the mean bin height.
func tileLUT(src *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[grayAt(src, x, y)]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	if clipLimit > 0 {
		limit := int(clipLimit * float64(area) / 256)
		if limit < 1 {
			limit = 1
		}
		excess := 0
		for i := range hist {
			if hist[i] > limit {
				excess += hist[i] - limit
				hist[i] = limit
			}
		}
		batch := excess / 256
		residual := excess % 256
		for i := range hist {
			hist[i] += batch
		}
		if residual > 0 {
			step := 256 / residual
			if step < 1 {
				step = 1
			}
			for i := 0; i < 256 && residual > 0; i += step {
				hist[i]++
				residual--
			}
		}
	}

	var lut [256]uint8
	if area == 0 {
		return lut
	}
	sum := 0
	for i := range hist {
		sum += hist[i]
		lut[i] = uint8(clampInt(int(math.Round(float64(sum*255)/float64(area))), 0, 255))
	}
	return lut
}

// MedianDenoise replaces every pixel by the median of its
// (2*radius+1)^2 neighbourhood, replicating edge pixels.
func MedianDenoise(src *image.Gray, radius int) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if radius <= 0 {
		copyGray(dst, src)
		return dst
	}
	window := make([]int, 0, (2*radius+1)*(2*radius+1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -radius; dy <= radius; dy++ {
				yy := clampInt(y+dy, 0, h-1)
				for dx := -radius; dx <= radius; dx++ {
					xx := clampInt(x+dx, 0, w-1)
					window = append(window, int(grayAt(src, xx, yy)))
				}
			}
			sort.Ints(window)
			dst.Pix[y*dst.Stride+x] = uint8(window[len(window)/2])
		}
	}
	return dst
}

// AdaptiveThreshold binarizes src against a Gaussian-weighted local mean
// over a blockSize x blockSize window: pixels brighter than mean - c
// become 255, the rest 0.
func AdaptiveThreshold(src *image.Gray, blockSize int, c float64) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	if blockSize < 3 {
		blockSize = 3
	}
	if blockSize%2 == 0 {
		blockSize++
	}
	kernel := gaussianKernel(blockSize)
	half := blockSize / 2

	// Separable blur with replicated borders: rows first, then columns.
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k, wt := range kernel {
				acc += wt * float64(grayAt(src, clampInt(x+k-half, 0, w-1), y))
			}
			tmp[y*w+x] = acc
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k, wt := range kernel {
				acc += wt * tmp[clampInt(y+k-half, 0, h-1)*w+x]
			}
			mean := math.Round(acc)
			if float64(grayAt(src, x, y)) > mean-c {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// gaussianKernel returns a normalized 1-D kernel whose sigma is derived
// from its size the same way common vision libraries do for sigma <= 0.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	half := size / 2
	kernel := make([]float64, size)
	var sum float64
	for i := range kernel {
		d := float64(i - half)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// Dilate takes the maximum over a size x size window anchored at its
// center. Pixels outside the image are ignored.
func Dilate(src *image.Gray, size int) *image.Gray {
	return morph(src, size, func(a, b uint8) bool { return b > a })
}

// Erode takes the minimum over a size x size window anchored at its
// center. Pixels outside the image are ignored.
func Erode(src *image.Gray, size int) *image.Gray {
	return morph(src, size, func(a, b uint8) bool { return b < a })
}

// MorphClose is a dilation followed by an erosion.
func MorphClose(src *image.Gray, size int) *image.Gray {
	return Erode(Dilate(src, size), size)
}

// MorphOpen is an erosion followed by a dilation.
func MorphOpen(src *image.Gray, size int) *image.Gray {
	return Dilate(Erode(src, size), size)
}

func morph(src *image.Gray, size int, better func(cur, cand uint8) bool) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if size <= 1 {
		copyGray(dst, src)
		return dst
	}
	anchor := size / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := grayAt(src, x, y)
			for ky := 0; ky < size; ky++ {
				yy := y + ky - anchor
				if yy < 0 || yy >= h {
					continue
				}
				for kx := 0; kx < size; kx++ {
					xx := x + kx - anchor
					if xx < 0 || xx >= w {
						continue
					}
					if c := grayAt(src, xx, yy); better(v, c) {
						v = c
					}
				}
			}
			dst.Pix[y*dst.Stride+x] = v
		}
	}
	return dst
}

// grayAt reads the pixel at (x, y) relative to the image origin.
func grayAt(g *image.Gray, x, y int) uint8 {
	return g.Pix[g.PixOffset(g.Rect.Min.X+x, g.Rect.Min.Y+y)]
}

func copyGray(dst, src *image.Gray) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y):])
	}
}
