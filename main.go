package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/notes-be/internal/api"
	"github.com/isdelr/notes-be/internal/auth"
	"github.com/isdelr/notes-be/internal/config"
	"github.com/isdelr/notes-be/internal/database"
	"github.com/isdelr/notes-be/internal/logger"
	"github.com/isdelr/notes-be/internal/maintenance"
	"github.com/isdelr/notes-be/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", false)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())

	// Set up database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to initialize database")
	}
	if err := db.Migrate(ctx); err != nil {
		cancel()
		db.Close()
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}
	cancel()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	if err != nil {
		db.Close()
		log.Fatal().Err(err).Msg("Failed to initialize token manager")
	}
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost, 0)

	// Set up services
	userService := services.NewUserService(db, hasher)
	noteService := services.NewNoteService(db)

	// Set up and run the background maintenance scheduler
	var scheduler *maintenance.Scheduler
	if cfg.MaintenanceSchedule != "" {
		scheduler, err = maintenance.NewScheduler(db, cfg.MaintenanceSchedule)
		if err != nil {
			db.Close()
			log.Fatal().Err(err).Msg("Failed to configure maintenance scheduler")
		}
		go scheduler.Run()
	}

	var limiter *api.IPRateLimiter
	if cfg.Auth.RateLimitRPS > 0 {
		limiter = api.NewIPRateLimiter(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst)
	}

	// Set up router
	router := api.NewRouter(api.RouterConfig{
		Users:              userService,
		Notes:              noteService,
		Tokens:             tokens,
		DB:                 db,
		AuthLimiter:        limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("driver", cfg.Database.Driver).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}
	if limiter != nil {
		limiter.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
	}

	log.Info().Msg("Server exiting")
}
