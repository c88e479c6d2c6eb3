package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"investoriq_backend/internal/auth"
	"investoriq_backend/internal/config"
	"investoriq_backend/internal/database"
	"investoriq_backend/internal/email"
	"investoriq_backend/internal/handlers"
	"investoriq_backend/internal/llm"
	"investoriq_backend/internal/logger"
	"investoriq_backend/internal/metrics"
	"investoriq_backend/internal/middleware"
	"investoriq_backend/internal/payments"
	"investoriq_backend/internal/report"
	"investoriq_backend/internal/repositories"
	"investoriq_backend/internal/routes"
	"investoriq_backend/internal/services"
	"investoriq_backend/internal/storage"
	"investoriq_backend/internal/validator"
	"investoriq_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// interruptedAnalysisFactor: анализ дольше стольких StepTimeout уже не идёт ни в одном процессе
const interruptedAnalysisFactor = 5

// Collaborators - внешние зависимости. Незаданные собираются из конфига.
type Collaborators struct {
	LLM      llm.Completer
	Payments payments.Provider
	Email    email.Provider
	Storage  storage.Storage
	Renderer report.Renderer
	Metrics  *metrics.Collector
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected")

	ginRouter, container, err := build(cfg, db, Collaborators{})
	if err != nil {
		logger.Fatal("Failed to set up router", "error", err)
	}

	// отчёты, оборванные прошлой остановкой процесса, иначе останутся в generating навсегда
	staleAfter := interruptedAnalysisFactor * cfg.Analysis.StepTimeout
	if n, err := container.AnalysisService.FailInterrupted(context.Background(), db, staleAfter); err != nil {
		logger.Error("Failed to recover interrupted analyses", "error", err)
	} else if n > 0 {
		logger.Warn("Interrupted analyses marked failed", "count", n)
	}

	// Фоновая сверка зависших платежей
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	if cfg.Payments.SweepInterval > 0 {
		workers.NewPaymentSweeper(db, repositories.NewPaymentRepository(), container.PaymentService, cfg.Payments.SweepInterval).Start(sweepCtx)
		logger.Info("Payment sweeper started", "interval", cfg.Payments.SweepInterval.String())
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         address,
		Handler:      ginRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down server...", "signal", sig.String())
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Server stopped")
}

// SetupRouter собирает сервисы, хэндлеры и маршруты
func SetupRouter(cfg *config.Config, db *gorm.DB, collab Collaborators) (*gin.Engine, error) {
	router, _, err := build(cfg, db, collab)
	return router, err
}

func build(cfg *config.Config, db *gorm.DB, collab Collaborators) (*gin.Engine, *services.ServiceContainer, error) {
	if err := collab.fillDefaults(cfg); err != nil {
		return nil, nil, err
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)

	// 1. Сервисы
	container := services.NewServiceContainer(services.Dependencies{
		Tokens:   tokens,
		LLM:      collab.LLM,
		Payments: collab.Payments,
		Email:    collab.Email,
		Storage:  collab.Storage,
		Renderer: collab.Renderer,
		Metrics:  collab.Metrics,
		UploadLimits: services.UploadLimits{
			MaxSize:           cfg.Upload.MaxSize,
			AllowedExtensions: cfg.Upload.AllowedTypes,
		},
		StepTimeout:  cfg.Analysis.StepTimeout,
		SupportEmail: cfg.Email.FromEmail,
	})

	// 2. Хэндлеры
	appHandlers := handlers.NewAppHandlers(container, validator.New())

	// 3. Gin
	ginRouter := initializeGinRouter(cfg, db, collab.Metrics)

	// 4. Маршруты
	authMiddleware := middleware.AuthMiddleware(tokens, db, repositories.NewUserRepository())
	routes.RegisterRoutes(ginRouter, appHandlers, authMiddleware, collab.Metrics.Handler())

	return ginRouter, container, nil
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB, collector *metrics.Collector) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxSize
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(collector))
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(middleware.DBMiddleware(db))
	return router
}

func (c *Collaborators) fillDefaults(cfg *config.Config) error {
	if c.Metrics == nil {
		c.Metrics = metrics.NewCollector()
	}

	if c.Storage == nil {
		store, err := storage.NewStorage(storage.Config{
			Type:      cfg.Storage.Type,
			BasePath:  cfg.Storage.BasePath,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Endpoint:  cfg.Storage.Endpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
		logger.Info("Storage initialized", "type", cfg.Storage.Type)
	}

	if c.Payments == nil {
		provider, err := payments.NewProvider(payments.Config{
			Provider: cfg.Payments.Provider,
			Stripe: payments.StripeConfig{
				APIKey:        cfg.Payments.Stripe.APIKey,
				WebhookSecret: cfg.Payments.Stripe.WebhookSecret,
			},
			Robokassa: payments.RobokassaConfig{
				MerchantLogin: cfg.Payments.Robokassa.MerchantLogin,
				Password1:     cfg.Payments.Robokassa.Password1,
				Password2:     cfg.Payments.Robokassa.Password2,
				BaseURL:       cfg.Payments.Robokassa.BaseURL,
				StatusURL:     cfg.Payments.Robokassa.StatusURL,
				TestMode:      cfg.Payments.Robokassa.TestMode,
			},
			FakeSecret: cfg.Payments.FakeSecret,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize payment provider: %w", err)
		}
		c.Payments = provider
		logger.Info("Payment provider initialized", "provider", provider.Name())
	}

	if c.Email == nil {
		c.Email = newEmailProvider(cfg)
	}
	if c.LLM == nil {
		c.LLM = newCompleter(cfg)
	}
	return nil
}
