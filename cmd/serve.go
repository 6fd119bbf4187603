package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"billboard-vision/internal/logger"
	"billboard-vision/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prediction HTTP server",
	Long: `Start the HTTP server exposing the prediction pipeline.

Endpoints:
  POST /predict_from_url/  body {"url": "..."}; alias POST /predict
  GET  /health

The detector, OCR engine and image store are selected through environment
variables (DETECTOR_BACKEND, OCR_BACKEND, PUBLISH_BACKEND). See .env.example.`,
	Example: `  # Listen on the address from ADDR (default :8000)
  billboard-vision serve

  # Listen on a custom address
  billboard-vision serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: $ADDR or :8000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := buildComponents(ctx, cfg, cfg.OCREnabled)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := c.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to release resources")
		}
	}()

	handler := server.NewHandler(c.pipeline, cfg.RequestTimeout)

	log.Info().
		Str("addr", cfg.Addr).
		Dur("request_timeout", cfg.RequestTimeout).
		Msg("Serving predictions")

	return server.Run(ctx, cfg.Addr, handler.Routes())
}
