// Package main is the entry point for the Canonico BFF server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pitabwire/canonico/internal/canonico"
	"github.com/pitabwire/canonico/internal/command"
	"github.com/pitabwire/canonico/internal/config"
	"github.com/pitabwire/canonico/internal/invoker"
	"github.com/pitabwire/canonico/internal/metadata"
	"github.com/pitabwire/canonico/internal/observability"
	"github.com/pitabwire/canonico/internal/schema"
	"github.com/pitabwire/canonico/internal/transport"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (defaults and CANONICO_* env when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	// Telemetry.
	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "canonico-bff", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Backend client.
	tokens, err := invoker.NewTokenSource(ctx, cfg.Backend.Auth)
	if err != nil {
		logger.Error("backend auth initialization failed", zap.Error(err))
		return 1
	}
	clientOpts := []invoker.Option{invoker.WithMetrics(metrics)}
	if tokens != nil {
		clientOpts = append(clientOpts, invoker.WithTokenSource(tokens))
	}
	client := invoker.NewClient(cfg.Backend, logger, clientOpts...)

	// Payload schema.
	validator, err := schema.Load(ctx)
	if err != nil {
		logger.Error("schema load failed", zap.Error(err))
		return 1
	}
	var svcOpts []canonico.ServiceOption
	if cfg.Backend.ValidatePayloads {
		svcOpts = append(svcOpts, canonico.WithValidator(validator))
	}
	svc := canonico.NewService(client, cfg.Backend.BaseURL, svcOpts...)

	// Idempotency store (optional).
	store, storeCloser, err := buildIdempotencyStore(cfg.Idempotency, logger)
	if err != nil {
		logger.Error("idempotency store initialization failed", zap.Error(err))
		return 1
	}
	creator := command.NewIdempotentCreator(svc, store, cfg.Idempotency.Store.DefaultTTL, logger)

	readiness := observability.ReadinessChecks{
		Backend: client,
		Schema:  validator,
	}
	if hc, ok := store.(observability.HealthChecker); ok {
		readiness.IdempotencyStore = hc
	}

	// Inbound authentication (optional).
	var authenticate func(http.Handler) http.Handler
	if cfg.Identity.Enabled() {
		secret := os.Getenv(cfg.Identity.SecretEnv)
		if secret == "" {
			logger.Error("identity secret not set", zap.String("env", cfg.Identity.SecretEnv))
			return 1
		}
		authenticate = transport.JWTAuthenticator(cfg.Identity, []byte(secret))
	} else {
		logger.Warn("authentication disabled; UI routes are open")
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:       cfg,
		Logger:       logger,
		Authenticate: authenticate,
		Canonicos:    svc,
		Creator:      creator,
		Pages:        metadata.NewPageProvider(svc),
		Metrics:      metrics,
		Readiness:    readiness,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("backend", svc.BaseURL()),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.Strings("operations", validator.OperationIDs()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if storeCloser != nil {
		storeCloser()
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// buildIdempotencyStore creates the idempotency store based on config.
// Returns a nil store when idempotency is disabled.
func buildIdempotencyStore(cfg config.IdempotencyConfig, logger *zap.Logger) (command.IdempotencyStore, func(), error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	switch cfg.Store.Driver {
	case "memory", "":
		logger.Info("using in-memory idempotency store")
		return command.NewMemoryIdempotencyStore(), nil, nil
	case "redis":
		addr := os.Getenv(cfg.Store.AddrEnv)
		if addr == "" {
			return nil, nil, fmt.Errorf("idempotency store: %s environment variable not set", cfg.Store.AddrEnv)
		}
		client := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.Store.DB})
		logger.Info("using redis idempotency store", zap.String("addr", addr), zap.Int("db", cfg.Store.DB))
		return command.NewRedisIdempotencyStore(client), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported idempotency store driver: %q", cfg.Store.Driver)
	}
}
