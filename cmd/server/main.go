package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/agroflow/agroflow-backend/internal/config"
	"github.com/agroflow/agroflow-backend/internal/db"
	httpHandlers "github.com/agroflow/agroflow-backend/internal/http/handlers"
	httpRouter "github.com/agroflow/agroflow-backend/internal/http/router"
	"github.com/agroflow/agroflow-backend/internal/logger"
	"github.com/agroflow/agroflow-backend/internal/repository"
	"github.com/agroflow/agroflow-backend/internal/service"
	"github.com/agroflow/agroflow-backend/internal/storage"
	"github.com/agroflow/agroflow-backend/internal/ws"
)

func main() {
	// Context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: failed to load configuration: %v", err)
	}

	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: failed to connect to the database: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: migrations failed: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	evidenceStorage, err := storage.NewEvidenceStorage(cfg.EvidenceStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: failed to prepare evidence storage: %v", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn)
	productRepo := repository.NewProductRepository(dbConn)
	deliveryRepo := repository.NewDeliveryRepository(dbConn)
	reportRepo := repository.NewReportRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Services.
	authService := service.NewAuthService(userRepo, tokenManager)
	notificationService := service.NewNotificationService(notificationRepo)
	productService := service.NewProductService(productRepo, userRepo)
	requestService := service.NewRequestService(requestRepo, productRepo, userRepo, deliveryRepo)
	reportService := service.NewReportService(reportRepo, userRepo)

	// WebSockets: push level decisions to the farmers who filed the requests.
	hub := ws.NewHub(ctx)
	hub.SetNotificationSaver(notificationService)
	go hub.Run()

	requestService.SetHub(hub)

	// HTTP handlers.
	authHandler := httpHandlers.NewAuthHandler(authService)
	requestHandler := httpHandlers.NewRequestHandler(requestService)
	productHandler := httpHandlers.NewProductHandler(productService)
	reportHandler := httpHandlers.NewReportHandler(reportService, evidenceStorage)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(
		cfg,
		authHandler,
		requestHandler,
		productHandler,
		reportHandler,
		notificationHandler,
		wsHandler,
		healthHandler,
		tokenManager,
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: http server shutdown error: %v", err)
		}
	}()

	log.Printf("main: HTTP server listening on port %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: server exited with error: %v", err)
	}
}

// safeClose closes the database connection.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: error closing database: %v", err)
	}
}
