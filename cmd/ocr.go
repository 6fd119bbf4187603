package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"billboard-vision/internal/config"
	"billboard-vision/internal/imaging"
	"billboard-vision/internal/logger"
	"billboard-vision/internal/ocr"
	"billboard-vision/pkg/models"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [image-file]",
	Short: "Extract text from a local image",
	Long: `Run the text extractor on a local image file, treating the whole image
as a single region.

The image is preprocessed twice (contrast-equalized grayscale and an
adaptive threshold); the variant yielding more confident words is kept and
noise tokens are dropped.

Environment variables:
  OCR_BACKEND         - tesseract (default) or vision
  OCR_LANGUAGES       - Tesseract language codes, e.g. eng or eng+rus
  OCR_MIN_CONFIDENCE  - minimum word confidence, 0..100 (default 20)

The vision backend additionally needs GOOGLE_APPLICATION_CREDENTIALS or
GOOGLE_CREDENTIALS.`,
	Example: `  # Print the text found on billboard.jpg
  billboard-vision ocr billboard.jpg

  # Save words with boxes and confidences as JSON
  billboard-vision ocr billboard.jpg --json -o words.json

  # Process with custom timeout
  billboard-vision ocr poster.png --timeout 120`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput represents the JSON output structure when --json flag is used
type OCROutput struct {
	Text               string            `json:"text"`
	Tokens             []models.OCRToken `json:"tokens"`
	Engine             string            `json:"engine"`
	ProcessedAt        time.Time         `json:"processed_at,omitempty"`
	ProcessingDuration string            `json:"processing_duration,omitempty"`
	FileName           string            `json:"file_name"`
	FileSize           int64             `json:"file_size"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	log.Info().
		Str("file", imagePath).
		Str("output", outputPath).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting OCR processing")

	fileInfo, err := validateImageFile(imagePath, log)
	if err != nil {
		return err
	}

	cfg, err := loadOCRConfig()
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	engine, err := buildEngine(ctx, cfg)
	if err != nil {
		return handleOCRError(err, log)
	}
	if closer, ok := engine.(interface{ Close() error }); ok {
		defer func() {
			if closeErr := closer.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close OCR engine")
			}
		}()
	}

	img, format, err := imaging.DecodeFile(imagePath)
	if err != nil {
		log.Error().
			Err(err).
			Str("file", imagePath).
			Msg("Failed to decode image")
		return fmt.Errorf("failed to decode image: %w", err)
	}

	log.Info().
		Str("file", imagePath).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Processing image")

	b := img.Bounds()
	region := models.Detection{
		Class:      -1,
		ClassName:  "image",
		Confidence: 1,
		XYXY:       [4]float64{float64(b.Min.X), float64(b.Min.Y), float64(b.Max.X), float64(b.Max.Y)},
	}

	startTime := time.Now()
	extractor := ocr.NewExtractor(engine, ocr.WithMinConfidence(cfg.OCRMinConfidence), ocr.WithPadding(0))
	tokens, err := extractor.Extract(logger.NewContext(ctx, log), img, []models.Detection{region})
	if err != nil {
		return handleOCRError(err, log)
	}

	processingDuration := time.Since(startTime)
	log.Info().
		Int("tokens", len(tokens)).
		Dur("duration", processingDuration).
		Msg("OCR processing completed successfully")

	return outputResults(tokens, engine.Name(), fileInfo, processingDuration, outputPath, jsonOutput, log)
}

func loadOCRConfig() (*config.Config, error) {
	cfg, err := config.LoadOCR()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// validateImageFile checks if the file exists, is readable and is not empty
func validateImageFile(imagePath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Image file not found")
			return nil, fmt.Errorf("image file not found: %s", imagePath)
		}
		if os.IsPermission(err) {
			log.Error().
				Str("file", imagePath).
				Msg("Permission denied accessing image file")
			return nil, fmt.Errorf("permission denied accessing image file: %s", imagePath)
		}
		return nil, fmt.Errorf("error accessing image file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().
			Str("file", imagePath).
			Msg("Path is not a regular file")
		return nil, fmt.Errorf("path is not a regular file: %s", imagePath)
	}

	if fileInfo.Size() == 0 {
		log.Error().
			Str("file", imagePath).
			Msg("Image file is empty")
		return nil, fmt.Errorf("image file is empty: %s", imagePath)
	}

	return fileInfo, nil
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling OCR processing")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}

// handleOCRError provides user-friendly error messages for OCR failures
func handleOCRError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("OCR processing failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout or processing a smaller image")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
			"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
			"2. Export GOOGLE_CREDENTIALS with inline JSON:\n" +
			"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",\"project_id\":\"your-project\",...}'\n\n" +
			"3. Use Application Default Credentials (if gcloud is configured):\n" +
			"   gcloud auth application-default login\n\n" +
			"Or switch to the local engine with OCR_BACKEND=tesseract")
	case errors.Is(err, ocr.ErrInvalidImage):
		return fmt.Errorf("the image could not be prepared for OCR. Please check the file integrity")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "transport: per-RPC creds failed"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials and that the "+
			"service account has the 'Cloud Vision API User' role.\n\nOriginal error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("permission denied. Please ensure your Google Cloud service account has the 'Cloud Vision API User' role")
	case strings.Contains(errStr, "QUOTA_EXCEEDED") ||
		strings.Contains(errStr, "quota"):
		return fmt.Errorf("Google Cloud Vision API quota exceeded. Check your project quotas in the Google Cloud Console")
	case strings.Contains(errStr, "tessdata") ||
		strings.Contains(errStr, "Failed loading language"):
		return fmt.Errorf("Tesseract language data missing. Install the traineddata files for OCR_LANGUAGES: %w", err)
	case errors.Is(err, ocr.ErrOCRFailed):
		return fmt.Errorf("OCR processing failed. This may be due to network issues, API quota limits, or service unavailability: %w", err)
	default:
		return fmt.Errorf("OCR processing failed: %w", err)
	}
}

// outputResults formats and outputs the OCR results
func outputResults(tokens []models.OCRToken, engine string, fileInfo os.FileInfo, duration time.Duration, outputPath string, jsonOutput bool, log zerolog.Logger) error {
	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		words = append(words, t.Text)
	}
	text := strings.Join(words, " ")

	if !jsonOutput {
		return writeOutput([]byte(text), outputPath, log)
	}

	out := OCROutput{
		Text:               text,
		Tokens:             tokens,
		Engine:             engine,
		ProcessedAt:        time.Now(),
		ProcessingDuration: duration.String(),
		FileName:           filepath.Base(fileInfo.Name()),
		FileSize:           fileInfo.Size(),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON output")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(data, outputPath, log)
}
