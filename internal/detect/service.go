// Package detect runs object detection over decoded images.
//
// Two backends are provided:
//   - ONNXDetector loads a YOLO-family model exported to ONNX and runs it
//     in-process through ONNX Runtime.
//   - RemoteDetector forwards the image to an HTTP inference service.
//
// Both return detections in source-image pixel coordinates with class
// names resolved through a ClassMap.
package detect

import (
	"context"
	"image"

	"billboard-vision/pkg/models"
)

// Detector defines the interface for object detection backends.
type Detector interface {
	// Detect returns the objects found in img. Boxes are expressed in the
	// coordinate space of img.Bounds() and confidences lie in [0,1].
	Detect(ctx context.Context, img image.Image) ([]models.Detection, error)

	// Close releases the resources held by the backend.
	Close() error
}
