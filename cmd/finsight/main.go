package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finsight/internal/auth"
	"finsight/internal/backend"
	"finsight/internal/cache"
	"finsight/internal/cli"
	apphttp "finsight/internal/http"
	"finsight/internal/log"
	"finsight/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	cli.MustValidate(logger, cfg.Validate)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}

	loc := cfg.Location()
	tokens := auth.NewJWTProvider(auth.JWTConfig{
		Secret:       cfg.SessionSecret,
		CookieName:   cfg.SessionCookie,
		TTL:          cfg.SessionTTL,
		SecureCookie: cfg.SecureCookie,
	})

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	}, apphttp.Deps{
		Records:   services.NewRecordService(res.Store, res.Publisher, logger, loc),
		Dashboard: services.NewDashboardService(res.Store, logger, loc),
		Auth:      tokens,
		Tokens:    tokens,
		Ready:     res.Ready,
		Caches:    []cache.Cleaner{tokens.Revoked()},
		Logger:    logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting finsight server",
		"port", cfg.Port,
		"backend", bcfg.Type,
		"timezone", loc.String(),
		"events", res.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
