package main

import (
	"log"
	"os"

	"billboard-vision/cmd"
	"billboard-vision/internal/config"
	"billboard-vision/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Initialize logger; the remaining configuration is validated per command
	if err := logger.Setup(config.LoggerConfigFromEnv()); err != nil {
		log.Printf("Warning: Invalid logger configuration: %v", err)
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	// Log application startup
	log := logger.WithComponent("main")
	log.Info().Msg("Starting Billboard Vision")

	// Execute CLI commands
	cmd.Execute()

	// Log application shutdown
	log.Info().Msg("Billboard Vision shutdown")
	os.Exit(0)
}
