package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billboard-vision/internal/logger"
	"billboard-vision/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict [image-url]",
	Short: "Run the prediction pipeline once for an image URL",
	Long: `Download the image at the given URL, detect billboards and stands,
read the text inside them, publish the annotated image and print the
result as JSON.

The same environment variables as "serve" select the detector, OCR engine
and image store.`,
	Example: `  # Print the prediction to stdout
  billboard-vision predict https://example.com/street.jpg

  # Skip text extraction and save the result
  billboard-vision predict https://example.com/street.jpg --no-ocr -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	predictCmd.Flags().Bool("no-ocr", false, "Skip text extraction")
}

func runPredict(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("predict")

	outputPath, _ := cmd.Flags().GetString("output")
	noOCR, _ := cmd.Flags().GetBool("no-ocr")
	imageURL := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	c, err := buildComponents(ctx, cfg, cfg.OCREnabled && !noOCR)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := c.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to release resources")
		}
	}()

	log.Info().
		Str("url", imageURL).
		Bool("ocr", cfg.OCREnabled && !noOCR).
		Msg("Starting prediction")

	start := time.Now()
	result, err := c.pipeline.Predict(logger.NewContext(ctx, log), imageURL)
	if err != nil {
		return handlePredictError(err, log)
	}
	log.Info().
		Int("detections", len(result.Detections)).
		Int("tokens", len(result.OCR)).
		Dur("duration", time.Since(start)).
		Msg("Prediction completed successfully")

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return writeOutput(data, outputPath, log)
}

// handlePredictError provides user-friendly error messages for pipeline failures
func handlePredictError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Prediction failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("prediction timed out. Try increasing REQUEST_TIMEOUT")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("prediction was canceled")
	case pipeline.IsClientError(err):
		return fmt.Errorf("could not download the image. Check that the URL is reachable: %w", err)
	case errors.Is(err, pipeline.ErrInvalidImage):
		return fmt.Errorf("the URL did not return a readable image: %w", err)
	default:
		return fmt.Errorf("prediction failed: %w", err)
	}
}

// writeOutput writes data to outputPath, or to stdout when it is empty.
func writeOutput(data []byte, outputPath string, log zerolog.Logger) error {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(data)).
			Msg("Results written to file")
		return nil
	}

	if _, err := os.Stdout.Write(data); err != nil {
		log.Error().Err(err).Msg("Failed to write to stdout")
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}
