// Package annotate draws detection boxes, labels and OCR tokens.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"billboard-vision/internal/detect"
	"billboard-vision/internal/imaging"
	"billboard-vision/pkg/models"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	boxThickness   = 3
	tokenThickness = 2
	labelPadding   = 10
	textOffset     = 5
	fontSize       = 16
)

var (
	labelText  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	tokenColor = color.RGBA{B: 255, A: 255}
)

// Annotator draws onto copies of source images. It is safe for concurrent
// use; a font face is created per call.
type Annotator struct {
	classes detect.ClassMap
	font    *opentype.Font
}

// New creates an Annotator that names and colours boxes through classes.
func New(classes detect.ClassMap) (*Annotator, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse label font: %w", err)
	}
	return &Annotator{classes: classes, font: f}, nil
}

func (a *Annotator) newFace() (font.Face, error) {
	return opentype.NewFace(a.font, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// DrawDetections returns a copy of img with a box and a "<label> <conf>"
// tag drawn for every detection. The copy keeps the bounds of img, so
// detection and token boxes are drawn in source image coordinates.
func (a *Annotator) DrawDetections(img image.Image, detections []models.Detection) (*image.RGBA, error) {
	dst := imaging.Clone(img)

	face, err := a.newFace()
	if err != nil {
		return nil, fmt.Errorf("create label face: %w", err)
	}
	defer face.Close()

	for _, det := range detections {
		r := image.Rect(int(det.XYXY[0]), int(det.XYXY[1]), int(det.XYXY[2]), int(det.XYXY[3]))
		c := a.classes.Color(det.Class)
		strokeRect(dst, r, boxThickness, c)

		label := fmt.Sprintf("%s %.2f", a.classes.Label(det.Class), det.Confidence)
		tw := font.MeasureString(face, label).Ceil()
		th := (face.Metrics().Ascent + face.Metrics().Descent).Ceil()
		bar := image.Rect(r.Min.X, r.Min.Y-th-labelPadding, r.Min.X+tw, r.Min.Y)
		draw.Draw(dst, bar, image.NewUniform(c), image.Point{}, draw.Src)
		drawText(dst, face, label, r.Min.X, r.Min.Y-textOffset, labelText)
	}
	return dst, nil
}

// DrawTokens draws every OCR token box and its text onto dst in place.
func (a *Annotator) DrawTokens(dst *image.RGBA, tokens []models.OCRToken) error {
	face, err := a.newFace()
	if err != nil {
		return fmt.Errorf("create token face: %w", err)
	}
	defer face.Close()

	for _, tok := range tokens {
		r := image.Rect(tok.BBox[0], tok.BBox[1], tok.BBox[2], tok.BBox[3])
		strokeRect(dst, r, tokenThickness, tokenColor)
		drawText(dst, face, tok.Text, r.Min.X, r.Min.Y-textOffset, tokenColor)
	}
	return nil
}

// strokeRect draws the outline of r with the given thickness, centered on
// the rectangle edges.
func strokeRect(dst draw.Image, r image.Rectangle, thickness int, c color.Color) {
	src := image.NewUniform(c)
	lo := thickness / 2
	hi := thickness - lo
	edges := []image.Rectangle{
		image.Rect(r.Min.X-lo, r.Min.Y-lo, r.Max.X+hi, r.Min.Y+hi), // top
		image.Rect(r.Min.X-lo, r.Max.Y-lo, r.Max.X+hi, r.Max.Y+hi), // bottom
		image.Rect(r.Min.X-lo, r.Min.Y-lo, r.Min.X+hi, r.Max.Y+hi), // left
		image.Rect(r.Max.X-lo, r.Min.Y-lo, r.Max.X+hi, r.Max.Y+hi), // right
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}

func drawText(dst draw.Image, face font.Face, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
