package models

import "encoding/json"

// Detection is one object instance predicted by the detector.
type Detection struct {
	Class      int        `json:"class"`                // Model class index
	ClassName  string     `json:"class_name,omitempty"` // Human-readable label, empty for unknown classes
	Confidence float64    `json:"confidence"`           // Score in [0,1]
	XYXY       [4]float64 `json:"xyxy"`                 // x1, y1, x2, y2 in source image pixels
}

// OCRToken is one recognized text fragment inside a detection.
type OCRToken struct {
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`   // Engine scale, 0..100
	BBox        [4]int  `json:"bbox"`         // x1, y1, x2, y2 in source image pixels
	ParentClass string  `json:"parent_class"` // Label of the detection the token was read from
}

// Prediction is the result of one pipeline run. A nil OCR means text
// extraction did not run and is left out of the JSON; an empty, non-nil
// OCR is encoded as "ocr": [].
type Prediction struct {
	Detections        []Detection `json:"detections"`
	OCR               []OCRToken  `json:"ocr"`
	AnnotatedImageURL string      `json:"annotated_image_url"`
}

// MarshalJSON implements json.Marshaler.
func (p Prediction) MarshalJSON() ([]byte, error) {
	type plain Prediction
	if p.OCR != nil {
		return json.Marshal(plain(p))
	}
	return json.Marshal(struct {
		plain
		OCR []OCRToken `json:"ocr,omitempty"`
	}{plain: plain(p)})
}
