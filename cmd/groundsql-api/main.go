package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/groundsql/groundsql/internal/api"
	"github.com/groundsql/groundsql/internal/archive"
	"github.com/groundsql/groundsql/internal/auth"
	"github.com/groundsql/groundsql/internal/config"
	"github.com/groundsql/groundsql/internal/datastore/sqldb"
	"github.com/groundsql/groundsql/internal/nl2sql"
	"github.com/groundsql/groundsql/internal/observability"
	s3store "github.com/groundsql/groundsql/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("groundsql-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	store, err := sqldb.Open(context.Background(), sqldb.Config{
		Dialect:         cfg.Datastore.Dialect,
		DSN:             cfg.Datastore.DSN,
		MaxOpenConns:    cfg.Datastore.MaxOpenConns,
		MaxIdleConns:    cfg.Datastore.MaxIdleConns,
		ConnMaxIdleTime: cfg.Datastore.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Datastore.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open datastore", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	completer, err := nl2sql.NewOpenAICompleter(nl2sql.OpenAIConfig{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize completion client", slog.Any("error", err))
		os.Exit(1)
	}

	collector := nl2sql.NewCollector(logger)
	loop := nl2sql.NewLoop(
		collector,
		nl2sql.NewComposer(nil, nil),
		nl2sql.NewGenerator(completer, cfg.AI.Temperature),
		nl2sql.NewValidator(nl2sql.ValidatorConfig{AllowWrites: cfg.Generation.AllowWrites}),
		nl2sql.LoopConfig{
			MaxAttempts:     cfg.Generation.MaxAttempts,
			FeedbackOnRetry: cfg.Generation.FeedbackOnRetry,
		},
		logger,
	)
	strategies := []nl2sql.Strategy{
		nl2sql.NewToolStrategy(loop, store),
		nl2sql.NewCoTStrategy(completer, cfg.AI.CoTTemperature, logger),
		nl2sql.NewDirectStrategy(completer, cfg.AI.Temperature, logger),
	}

	deps := api.Dependencies{
		Logger:     logger,
		Store:      store,
		Collector:  collector,
		Strategies: strategies,
		Readiness: api.CombineReadinessChecks(
			api.CheckDatastore(store),
			api.CheckObjectStoreConfig(cfg),
		),
		DependencyTimeout: time.Second,
	}
	if cfg.Archive.Enabled {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Archiver = &archive.Archiver{Store: objectStore}
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      api.NewHandler(cfg, deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("dialect", store.Dialect().Name()),
			slog.String("model", completer.Model()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
