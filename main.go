package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"learnzy-server/config"
	"learnzy-server/db"
	"learnzy-server/handlers"
	"learnzy-server/ingestion"
	"learnzy-server/middleware"
	"learnzy-server/session"
)

// sweepInterval is how often live sessions are polled for countdown
// expiry. The state machine itself has no timer; this keeps forced
// completion prompt even for idle clients.
const sweepInterval = time.Second

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connection pool
	pool, err := db.InitDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("unable to connect to database", zap.Error(err))
	}
	defer pool.Close()
	if err := db.CreateSchema(pool); err != nil {
		logger.Fatal("error creating database schema", zap.Error(err))
	}
	store := db.NewPGStore(pool)

	// Load the question banks
	catalog := ingestion.NewCatalog(cfg.Banks.Path, ingestion.Options{
		DefaultIdealSeconds:    cfg.Banks.DefaultIdealSeconds,
		DefaultDurationMinutes: cfg.Banks.DefaultDurationMinutes,
	}, logger)
	if err := catalog.Reload(); err != nil {
		logger.Fatal("error loading test banks", zap.Error(err))
	}

	// Session registry with the persistence subscriber
	registry := session.NewRegistry(time.Now, db.NewCompletionListener(store, logger))

	// Set Gin mode and build the router
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(logger), gin.Recovery())

	authMiddleware := middleware.AuthMiddleware(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, logger)
	adminMiddleware := middleware.RoleCheckMiddleware([]string{"admin", "instructor"})

	api := handlers.NewAPI(registry, catalog, store, logger)
	api.Routes(router, authMiddleware, adminMiddleware)

	// Background sweeper polling session expiry
	sweeperDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweeperDone:
				return
			case now := <-ticker.C:
				registry.Sweep(now)
			}
		}
	}()

	// Start the server
	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}

	// Goroutine to gracefully shut down the server
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down server")
		close(sweeperDone)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Fatal("server forced to shutdown", zap.Error(err))
		}
	}()

	logger.Info("Learnzy server starting", zap.String("addr", cfg.ServerPort))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server startup error", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}
