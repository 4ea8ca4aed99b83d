package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"apptracker/docs"
	"apptracker/internal/auth"
	"apptracker/internal/cache"
	"apptracker/internal/config"
	"apptracker/internal/db"
	"apptracker/internal/handler"
	"apptracker/internal/logger"
	"apptracker/internal/metrics"
	"apptracker/internal/repository"
	"apptracker/internal/router"
	"apptracker/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Internship Application Tracker API
// @version 1.0
// @description Track internship applications through their pipeline with JWT authentication.
// @host localhost:4000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	zerolog.DefaultContextLogger = &log

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database init")
	}
	if cfg.ResetDB {
		log.Warn().Msg("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, credential cache disabled until it recovers")
	}
	cancelPing()
	defer cacheClient.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	applicationRepo := repository.NewApplicationRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, cacheClient)
	applicationService := service.NewApplicationService(applicationRepo)
	statsService := service.NewStatsService(applicationRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, appMetrics)
	applicationHandler := handler.NewApplicationHandler(applicationService, appMetrics)
	statsHandler := handler.NewStatsHandler(statsService)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	router.Register(
		e,
		cfg,
		log,
		registry,
		appMetrics,
		jwtService,
		authHandler,
		applicationHandler,
		statsHandler,
	)

	addr := ":" + cfg.ServerPort
	go func() {
		log.Info().Str("addr", addr).Str("driver", cfg.DBDriver).
			Str("swagger", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html").
			Msg("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
