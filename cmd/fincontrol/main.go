package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fincontrol/internal/advice"
	"fincontrol/internal/app"
	"fincontrol/internal/auth"
	"fincontrol/internal/backend"
	"fincontrol/internal/config"
	"fincontrol/internal/events"
	apphttp "fincontrol/internal/http"
	applog "fincontrol/internal/log"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	logger := applog.New(applog.ComponentApp, slog.LevelInfo)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.Create(cfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend",
			applog.FieldError, err.Error(),
			applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", applog.FieldError, err.Error())
			}
		}()
	}

	var publisher app.Publisher
	if cfg.AMQPURL != "" {
		pub, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Mutation events are best-effort; the service runs without them.
			logger.Warn("AMQP publisher unavailable, mutation events disabled",
				applog.FieldError, err.Error())
		} else {
			defer pub.Close()
			publisher = pub
			logger.Info("Mutation events enabled",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var advisor *advice.Advisor
	if cfg.GeminiAPIKey != "" {
		gen, err := advice.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Gemini client unavailable, advice disabled",
				applog.FieldError, err.Error())
		} else {
			advisor = advice.New(gen, cfg.AdviceTimeout, logger.WithComponent(applog.ComponentAdvice))
			logger.Info("Advice enabled", "model", cfg.GeminiModel)
		}
	}

	authProvider := auth.NewLocal(result.Store, result.Store, cfg.TokenSecret, cfg.TokenTTL)
	svc := app.NewService(result.Store, publisher, logger.WithComponent(applog.ComponentApp))

	srv := apphttp.NewServer(":"+cfg.Port, authProvider, svc, result.Store, advisor,
		cfg.DefaultLanguage, logger.WithComponent(applog.ComponentHTTP))

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("Starting fincontrol server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
