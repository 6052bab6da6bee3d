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
	"go.uber.org/zap"

	"github.com/haowjy/tableau-toolbox-go"
	"github.com/haowjy/tableau-toolbox-go/explore"
	"github.com/haowjy/tableau-toolbox-go/internal/config"
	"github.com/haowjy/tableau-toolbox-go/internal/server"
	"github.com/haowjy/tableau-toolbox-go/internal/toolbox"
	"github.com/haowjy/tableau-toolbox-go/providers"
)

func main() {
	envPath, envErr := config.LoadEnv()

	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Warn("failed to load .env", zap.Error(envErr))
	} else if envPath != "" {
		logger.Info("loaded .env", zap.String("path", envPath))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("tableau toolbox starting",
		zap.String("environment", cfg.Environment),
		zap.Duration("llm_timeout", cfg.LLMTimeout),
	)

	registry, err := llmprovider.NewCapabilityRegistry()
	if err != nil {
		logger.Fatal("failed to load model catalog", zap.Error(err))
	}
	if cfg.ModelsFile != "" {
		if err := registry.LoadCapabilitiesFromFile(cfg.ModelsFile); err != nil {
			logger.Fatal("failed to load models file", zap.String("path", cfg.ModelsFile), zap.Error(err))
		}
		logger.Info("loaded models file", zap.String("path", cfg.ModelsFile))
	}

	gen := llmprovider.NewGenerator(cfg.Credentials, registry,
		llmprovider.WithTimeout(cfg.LLMTimeout),
		llmprovider.WithLogger(logger.Named("generator")),
	)
	providers.Register(gen, providers.Options{
		OpenAIBaseURL:    cfg.OpenAIBaseURL,
		AnthropicBaseURL: cfg.AnthropicBaseURL,
		EnableLorem:      cfg.EnableLorem,
	})

	available := gen.Available()
	if len(available) == 0 {
		logger.Warn("no provider API key is set; generation requests will fail until one is configured")
	}
	for _, id := range available {
		logger.Info("provider available", zap.String("provider", id.String()), zap.String("default_model", registry.DefaultModel(id)))
	}

	svcOpts := []toolbox.Option{toolbox.WithLogger(logger.Named("toolbox"))}
	if cfg.DatabaseURL != "" {
		explorer, err := openExplorer(cfg)
		if err != nil {
			logger.Error("database exploration disabled", zap.Error(err))
		} else {
			defer explorer.Close()
			svcOpts = append(svcOpts, toolbox.WithExplorer(explorer))
			logger.Info("database exploration enabled", zap.String("dialect", string(explorer.Dialect())))
		}
	}
	svc := toolbox.NewService(gen, svcOpts...)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.New(svc, logger, server.NewMetrics()).Router()
	srv := server.NewHTTPServer(":"+cfg.Port, router, cfg.LLMTimeout)

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server exited gracefully")
}

func openExplorer(cfg *config.Config) (*explore.Explorer, error) {
	dialect, err := explore.ParseDialect(cfg.DatabaseDialect)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return explore.Open(ctx, cfg.DatabaseURL, dialect)
}
