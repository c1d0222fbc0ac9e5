package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storefront-widgets/review-service/internal/config"
	"github.com/storefront-widgets/review-service/internal/delivery/events"
	httpDelivery "github.com/storefront-widgets/review-service/internal/delivery/http"
	"github.com/storefront-widgets/review-service/internal/delivery/http/handler"
	"github.com/storefront-widgets/review-service/internal/pkg/database"
	"github.com/storefront-widgets/review-service/internal/pkg/logger"
	"github.com/storefront-widgets/review-service/internal/pkg/storage"
	"github.com/storefront-widgets/review-service/internal/repository/postgres"
	imageUsecase "github.com/storefront-widgets/review-service/internal/usecase/image"
	reviewUsecase "github.com/storefront-widgets/review-service/internal/usecase/review"
	widgetUsecase "github.com/storefront-widgets/review-service/internal/usecase/widget"

	_ "github.com/storefront-widgets/review-service/docs"
)

// @title Storefront Review Widget API
// @version 1.0
// @description Review management backend with a public widget endpoint serving filtered, sorted review pages and aggregate statistics.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @tag.name Reviews
// @tag.description Staff review management endpoints

// @tag.name Images
// @tag.description Review image endpoints

// @tag.name Widget
// @tag.description Public storefront widget endpoints

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	logger.SetGlobalLogger(appLogger)
	appLogger.Info("Starting review widget API...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL successfully")

	if err := database.RunMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", err)
	}

	store, err := storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.MaxImageSize)
	if err != nil {
		appLogger.Fatal("Failed to initialize upload storage", err)
	}

	appLogger.Info("Connecting to NATS...")
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS publisher", err)
	}
	defer publisher.Close()

	reviewRepo := postgres.NewReviewRepository(db)
	imageRepo := postgres.NewImageRepository(db)
	widgetRepo := postgres.NewWidgetRepository(db)

	reviewService := reviewUsecase.NewService(reviewRepo, imageRepo, store, publisher, appLogger)
	imageService := imageUsecase.NewService(imageRepo, reviewRepo, store, cfg.Upload.MaxImagesPerReview, appLogger)
	widgetService := widgetUsecase.NewService(widgetRepo, imageRepo, cfg.Widget.GalleryLimit, appLogger)

	reviewHandler := handler.NewReviewHandler(reviewService, appLogger)
	imageHandler := handler.NewImageHandler(imageService, appLogger)
	widgetHandler := handler.NewWidgetHandler(widgetService, cfg.Widget, appLogger)

	router := httpDelivery.NewRouter(reviewHandler, imageHandler, widgetHandler, store.Root(), cfg, appLogger)
	httpHandler := router.Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}
