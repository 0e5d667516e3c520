package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pricesheet/adapters/api"
	"pricesheet/internal"
	"pricesheet/internal/config"
	"pricesheet/internal/container"

	"github.com/joho/godotenv"
)

// Serves only the JSON API, for deployments that do not need the upload page
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	internal.DefaultLogger = internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if err := appContainer.Connect(ctx); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	log.Printf("Starting JSON API on port %s", appConfig.Server.APIPort)
	if err := api.NewAPI(appContainer.Service, appConfig.Upload.MaxBytes).Start(ctx, ":"+appConfig.Server.APIPort); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
