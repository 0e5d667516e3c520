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
	"pricesheet/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	internal.DefaultLogger = internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	gin.SetMode(appConfig.Server.GinMode)

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

	server, err := ui.NewServer(appContainer.Service, appConfig.Upload.MaxBytes)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}
	jsonAPI := api.NewAPI(appContainer.Service, appConfig.Upload.MaxBytes)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting price comparison UI on port %s", appConfig.Server.Port)
		return server.Start(gctx, ":"+appConfig.Server.Port)
	})
	g.Go(func() error {
		log.Printf("Starting JSON API on port %s", appConfig.Server.APIPort)
		return jsonAPI.Start(gctx, ":"+appConfig.Server.APIPort)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
