package cmd

import (
	"fmt"
	"os"

	"billboard-vision/internal/logger"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "billboard-vision",
	Short: "Billboard Vision - detect billboards and read their text",
	Long: `Billboard Vision detects billboards and their stands in images,
reads the text printed on them and publishes an annotated copy of the
image to a hosted image store.

Run "billboard-vision serve" to expose the pipeline over HTTP, or use
"predict" and "ocr" for one-off runs from the command line.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Billboard Vision executed")

		fmt.Println("Welcome to Billboard Vision!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
