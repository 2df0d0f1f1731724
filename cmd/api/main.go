package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quiz-doc/internal/adapter/llm"
	"quiz-doc/internal/config"
	"quiz-doc/internal/handler"
	"quiz-doc/internal/logger"
	"quiz-doc/internal/metrics"
	"quiz-doc/internal/middleware"
	"quiz-doc/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	m := metrics.New()

	generator, closeCache, err := llm.NewFromConfig(context.Background(), cfg)
	if err != nil {
		appLogger.Fatal("Failed to create LLM generator", zap.Error(err))
	}
	defer closeCache()

	// Initialize services
	quizService := service.NewQuizService(generator, cfg, m)
	documentService := service.NewDocumentService(quizService, m)

	// Initialize handlers
	quizHandler := handler.NewQuizHandler(documentService, quizService)
	if pinger, ok := generator.(handler.Pinger); ok {
		quizHandler.WithCacheCheck(pinger)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(m))
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))

	handler.RegisterRoutes(app, quizHandler, m)

	go func() {
		appLogger.Info("Starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", generator.Model()))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
