package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"billboard-vision/internal/logger"
)

// Detector, OCR and publisher backends understood by the service.
const (
	DetectorONNX   = "onnx"
	DetectorRemote = "remote"

	OCRTesseract = "tesseract"
	OCRVision    = "vision"

	PublishCloudinary = "cloudinary"
	PublishGCS        = "gcs"
)

type Config struct {
	// HTTP server
	Addr           string
	RequestTimeout time.Duration

	// Image download
	FetchTimeout  time.Duration
	FetchMaxBytes int64
	TempDir       string

	// Detection
	DetectorBackend  string
	ModelPath        string
	ONNXRuntimeLib   string
	InferenceURL     string
	DetectConfidence float64
	DetectIoU        float64
	DetectImageSize  int
	ClassesFile      string

	// OCR
	OCREnabled       bool
	OCRBackend       string
	OCRLanguages     []string
	OCRMinConfidence float64

	// Publishing
	PublishBackend      string
	CloudinaryURL       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	GCSOutputBucket     string
	GCSOutputFolder     string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string

	// malformed numeric/bool/duration variables, reported by validate
	invalid []string
}

// Load reads the full service configuration from the environment.
func Load() (*Config, error) {
	config := load()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// LoadOCR reads the configuration but only validates the settings used by
// the text extractor, so local OCR runs need no detector or image store.
func LoadOCR() (*Config, error) {
	config := load()
	if err := config.validateOCR(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

func load() *Config {
	config := &Config{
		Addr:                getEnv("ADDR", ":8000"),
		TempDir:             getEnv("TEMP_DIR", ""),
		DetectorBackend:     strings.ToLower(getEnv("DETECTOR_BACKEND", DetectorONNX)),
		ModelPath:           getEnv("MODEL_PATH", "models/best.onnx"),
		ONNXRuntimeLib:      getEnv("ONNXRUNTIME_LIB", ""),
		InferenceURL:        getEnv("INFERENCE_URL", "http://localhost:5000/predict"),
		ClassesFile:         getEnv("CLASSES_FILE", ""),
		OCRBackend:          strings.ToLower(getEnv("OCR_BACKEND", OCRTesseract)),
		OCRLanguages:        splitList(getEnv("OCR_LANGUAGES", "eng")),
		PublishBackend:      strings.ToLower(getEnv("PUBLISH_BACKEND", PublishCloudinary)),
		CloudinaryURL:       getEnv("CLOUDINARY_URL", ""),
		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "annotated"),
		GCSOutputBucket:     getEnv("GCS_OUTPUT_BUCKET", ""),
		GCSOutputFolder:     getEnv("GCS_OUTPUT_FOLDER", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:       getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:           getEnv("LOG_OUTPUT", "stdout"),
	}

	config.RequestTimeout = config.duration("REQUEST_TIMEOUT", 60*time.Second)
	config.FetchTimeout = config.duration("FETCH_TIMEOUT", 30*time.Second)
	config.FetchMaxBytes = int64(config.integer("FETCH_MAX_BYTES", 20*1024*1024))
	config.DetectConfidence = config.float("DETECT_CONFIDENCE", 0.25)
	config.DetectIoU = config.float("DETECT_IOU", 0.7)
	config.DetectImageSize = config.integer("DETECT_IMAGE_SIZE", 640)
	config.OCREnabled = config.boolean("OCR_ENABLED", true)
	config.OCRMinConfidence = config.float("OCR_MIN_CONFIDENCE", 20)

	return config
}

func (c *Config) validate() error {
	if err := c.validateOCR(); err != nil {
		return err
	}
	switch c.DetectorBackend {
	case DetectorONNX:
		if c.ModelPath == "" {
			return fmt.Errorf("MODEL_PATH is required for the onnx detector")
		}
	case DetectorRemote:
		if c.InferenceURL == "" {
			return fmt.Errorf("INFERENCE_URL is required for the remote detector")
		}
	default:
		return fmt.Errorf("unknown DETECTOR_BACKEND %q", c.DetectorBackend)
	}
	if c.DetectConfidence < 0 || c.DetectConfidence > 1 {
		return fmt.Errorf("DETECT_CONFIDENCE must be within [0,1]")
	}
	if c.DetectIoU <= 0 || c.DetectIoU > 1 {
		return fmt.Errorf("DETECT_IOU must be within (0,1]")
	}
	if c.DetectImageSize <= 0 || c.DetectImageSize%32 != 0 {
		return fmt.Errorf("DETECT_IMAGE_SIZE must be a positive multiple of 32")
	}
	if c.FetchMaxBytes <= 0 {
		return fmt.Errorf("FETCH_MAX_BYTES must be positive")
	}
	switch c.PublishBackend {
	case PublishCloudinary:
		if c.CloudinaryURL == "" && (c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "") {
			return fmt.Errorf("CLOUDINARY_URL or CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required")
		}
	case PublishGCS:
		if c.GCSOutputBucket == "" {
			return fmt.Errorf("GCS_OUTPUT_BUCKET is required for the gcs publisher")
		}
	default:
		return fmt.Errorf("unknown PUBLISH_BACKEND %q", c.PublishBackend)
	}
	return nil
}

func (c *Config) validateOCR() error {
	if len(c.invalid) > 0 {
		return fmt.Errorf("malformed value for %s", strings.Join(c.invalid, ", "))
	}
	if c.OCRBackend != OCRTesseract && c.OCRBackend != OCRVision {
		return fmt.Errorf("unknown OCR_BACKEND %q", c.OCRBackend)
	}
	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES must name at least one language")
	}
	if c.OCRMinConfidence < 0 || c.OCRMinConfidence > 100 {
		return fmt.Errorf("OCR_MIN_CONFIDENCE must be within [0,100]")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// LoggerConfigFromEnv reads only the logging variables. It never fails so
// the logger can be set up before the rest of the configuration is checked.
func LoggerConfigFromEnv() logger.LogConfig {
	return load().GetLoggerConfig()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) duration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		c.invalid = append(c.invalid, key)
		return defaultValue
	}
	return d
}

func (c *Config) integer(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.invalid = append(c.invalid, key)
		return defaultValue
	}
	return n
}

func (c *Config) float(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.invalid = append(c.invalid, key)
		return defaultValue
	}
	return f
}

func (c *Config) boolean(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		c.invalid = append(c.invalid, key)
		return defaultValue
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '+' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
