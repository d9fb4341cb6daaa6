package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"inkasso/cmd"
	"inkasso/internal/config"
	"inkasso/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		cfg = nil
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting Inkasso CLI")

	cmd.Execute(cfg)

	log.Debug().Msg("Inkasso CLI shutdown")
	os.Exit(0)
}
