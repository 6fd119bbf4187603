package detect

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"billboard-vision/internal/imaging"
	"billboard-vision/internal/logger"
	"billboard-vision/pkg/models"
	ort "github.com/yalue/onnxruntime_go"
)

// letterboxPad is the grey the model was trained with for padded borders.
var letterboxPad = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// ONNXConfig holds configuration for the in-process detector.
type ONNXConfig struct {
	// ModelPath is the exported .onnx file.
	ModelPath string

	// LibraryPath points at the onnxruntime shared library. Empty uses the
	// runtime's default lookup.
	LibraryPath string

	// ImageSize is the square input resolution of the model.
	ImageSize int

	// Confidence is the minimum class score kept.
	Confidence float64

	// IoU is the overlap above which same-class boxes are suppressed.
	IoU float64
}

// ONNXDetector implements Detector with a YOLO model run by ONNX Runtime.
// A single session is shared; calls to Detect are serialized.
type ONNXDetector struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	input      *ort.Tensor[float32]
	output     *ort.Tensor[float32]
	cfg        ONNXConfig
	numClasses int
	numAnchors int
	classes    ClassMap
}

// NewONNXDetector loads the model described by cfg.
func NewONNXDetector(cfg ONNXConfig, classes ClassMap) (*ONNXDetector, error) {
	const op = "NewONNXDetector"
	log := logger.WithComponent("detect-onnx")

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, wrap(op, ErrModelLoad, fmt.Sprintf("initialize runtime: %v", err))
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, wrap(op, ErrModelLoad, fmt.Sprintf("read model %s: %v", cfg.ModelPath, err))
	}
	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, wrap(op, ErrUnsupportedModel, fmt.Sprintf("%d inputs, %d outputs", len(inputs), len(outputs)))
	}
	outDims := outputs[0].Dimensions
	if len(outDims) != 3 || outDims[1] < 5 {
		return nil, wrap(op, ErrUnsupportedModel, fmt.Sprintf("output shape %v", outDims))
	}
	numClasses := int(outDims[1]) - 4
	numAnchors := int(outDims[2])
	if numAnchors <= 0 {
		numAnchors = anchorCount(cfg.ImageSize)
	}

	size := int64(cfg.ImageSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, wrap(op, ErrModelLoad, fmt.Sprintf("allocate input: %v", err))
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numClasses+4), int64(numAnchors)))
	if err != nil {
		input.Destroy()
		return nil, wrap(op, ErrModelLoad, fmt.Sprintf("allocate output: %v", err))
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, wrap(op, ErrModelLoad, fmt.Sprintf("create session: %v", err))
	}

	log.Info().
		Str("model", cfg.ModelPath).
		Int("classes", numClasses).
		Int("anchors", numAnchors).
		Int("image_size", cfg.ImageSize).
		Msg("Detection model loaded")

	return &ONNXDetector{
		session:    session,
		input:      input,
		output:     output,
		cfg:        cfg,
		numClasses: numClasses,
		numAnchors: numAnchors,
		classes:    classes,
	}, nil
}

// anchorCount is the number of predictions a three-stride YOLO head emits
// for a square input of the given size.
func anchorCount(size int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		side := size / stride
		n += side * side
	}
	return n
}

// Detect runs the model over img.
func (d *ONNXDetector) Detect(ctx context.Context, img image.Image) ([]models.Detection, error) {
	const op = "Detect"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boxed, scale, padX, padY := imaging.Letterbox(img, d.cfg.ImageSize, letterboxPad)

	d.mu.Lock()
	fillCHW(d.input.GetData(), boxed)
	if err := d.session.Run(); err != nil {
		d.mu.Unlock()
		return nil, wrap(op, ErrInferenceFailed, err.Error())
	}
	raw := make([]float32, len(d.output.GetData()))
	copy(raw, d.output.GetData())
	d.mu.Unlock()

	cands := decodeYOLO(raw, d.numClasses, d.numAnchors, d.cfg.Confidence)
	kept := nonMaxSuppression(cands, d.cfg.IoU)

	b := img.Bounds()
	detections := make([]models.Detection, 0, len(kept))
	for _, c := range kept {
		box := unletterbox(c.box, scale, padX, padY, b.Dx(), b.Dy())
		for i := range box {
			if i%2 == 0 {
				box[i] += float64(b.Min.X)
			} else {
				box[i] += float64(b.Min.Y)
			}
		}
		detections = append(detections, models.Detection{
			Class:      c.class,
			ClassName:  d.classes.Name(c.class),
			Confidence: clamp(c.score, 0, 1),
			XYXY:       box,
		})
	}

	log := logger.FromContext(ctx, "detect-onnx")
	log.Debug().
		Int("candidates", len(cands)).
		Int("detections", len(detections)).
		Msg("Inference completed")
	return detections, nil
}

// fillCHW writes img into dst as planar RGB scaled to [0,1].
func fillCHW(dst []float32, img *image.RGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	plane := w * h
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			dst[i] = float32(row[x*4]) / 255
			dst[plane+i] = float32(row[x*4+1]) / 255
			dst[2*plane+i] = float32(row[x*4+2]) / 255
		}
	}
}

// Close releases the session and the ONNX Runtime environment.
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var firstErr error
	for _, destroy := range []func() error{d.session.Destroy, d.input.Destroy, d.output.Destroy, ort.DestroyEnvironment} {
		if err := destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
