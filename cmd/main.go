package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"sitegen_server/config"
	"sitegen_server/internal/ai"
	"sitegen_server/internal/api"
	"sitegen_server/internal/logger"
	"sitegen_server/internal/project"
	"sitegen_server/internal/retention"
)

func main() {
	// Load .env before viper reads the environment. Missing .env is normal
	// in production, so only a real read error is worth mentioning.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	appLogger, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Cannot initialize logger: %v", err)
	}
	defer appLogger.Sync()

	// --- Dependency Initialization ---

	generator := ai.NewGenerator(cfg.OpenAIKey, cfg.ModelID, appLogger)

	store, err := project.NewStore(cfg.ProjectsRoot, appLogger)
	if err != nil {
		appLogger.Fatal("cannot initialize project store", "error", err)
	}

	index, err := project.OpenIndex(cfg.IndexDBPath)
	if err != nil {
		appLogger.Fatal("cannot open project index", "error", err)
	}
	defer index.Close()

	var sweeper *retention.Sweeper
	if cfg.RetentionTTLHours > 0 {
		ttl := time.Duration(cfg.RetentionTTLHours) * time.Hour
		sweeper = retention.NewSweeper(store, index, ttl, appLogger)
		if err := sweeper.Start(cfg.RetentionSweepSpec); err != nil {
			appLogger.Fatal("cannot start retention sweeper", "error", err)
		}
		appLogger.Info("retention sweeper started", "ttl", ttl, "schedule", cfg.RetentionSweepSpec)
	} else {
		appLogger.Info("retention sweep disabled, projects are kept indefinitely")
	}

	apiHandler := api.NewAPIHandler(generator, store, index, appLogger)

	// --- HTTP Server ---

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(api.CORS())

	api.RegisterRoutes(router, apiHandler)

	server := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
		// Timeouts guard the listener; the model call itself runs within the
		// write window.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("starting API server", "address", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("API server listen error", "error", err)
		}
	}()

	// --- Graceful Shutdown ---

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("shutting down", "signal", sig.String())

	if sweeper != nil {
		sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("API server forced shutdown", "error", err)
	} else {
		appLogger.Info("API server gracefully stopped")
	}
}
