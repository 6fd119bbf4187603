package cmd

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"billboard-vision/internal/config"
	"billboard-vision/internal/detect"
)

type recordingCloser struct {
	name  string
	order *[]string
	err   error
}

func (r recordingCloser) Close() error {
	*r.order = append(*r.order, r.name)
	return r.err
}

func TestBuildRemoteDetectorToleratesUnhealthyService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := &config.Config{
		DetectorBackend:  config.DetectorRemote,
		InferenceURL:     srv.URL + "/predict",
		DetectConfidence: 0.25,
		RequestTimeout:   time.Second,
	}
	d, err := buildDetector(cfg, detect.DefaultClasses())
	if err != nil {
		t.Fatalf("buildDetector() error = %v", err)
	}
	if _, ok := d.(*detect.RemoteDetector); !ok {
		t.Fatalf("expected a remote detector, got %T", d)
	}
}

func TestBuildEngineRejectsUnknownBackend(t *testing.T) {
	if _, err := buildEngine(t.Context(), &config.Config{OCRBackend: "easyocr"}); err == nil {
		t.Fatalf("expected error for unknown OCR backend")
	}
}

func TestComponentsCloseInReverseOrder(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	c := &components{}
	c.closers = append(c.closers,
		recordingCloser{name: "detector", order: &order},
		recordingCloser{name: "engine", order: &order, err: boom},
		recordingCloser{name: "uploader", order: &order},
	)

	err := c.Close()
	if !errors.Is(err, boom) {
		t.Fatalf("Close() error = %v, want boom", err)
	}
	want := []string{"uploader", "engine", "detector"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("close order = %v, want %v", order, want)
		}
	}
}
