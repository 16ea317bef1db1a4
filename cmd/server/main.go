package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trailhead/tours-server-go/internal/config"
	"github.com/trailhead/tours-server-go/internal/database"
	"github.com/trailhead/tours-server-go/internal/handler"
	"github.com/trailhead/tours-server-go/internal/httputil"
	"github.com/trailhead/tours-server-go/internal/jobs"
	"github.com/trailhead/tours-server-go/internal/mail"
	"github.com/trailhead/tours-server-go/internal/middleware"
	"github.com/trailhead/tours-server-go/internal/redis"
	"github.com/trailhead/tours-server-go/internal/repository"
	"github.com/trailhead/tours-server-go/internal/service"
	"github.com/trailhead/tours-server-go/internal/token"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	tourRepo := repository.NewTourRepository(db.DB)
	reviewRepo := repository.NewReviewRepository(db.DB)

	tokenService := token.NewService(cfg.JWTSecret, cfg.JWTTTL())

	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	} else {
		mailer = &mail.LogMailer{}
		log.Warn().Msg("EMAIL_HOST not set: emails will be logged, not sent")
	}

	authService := service.NewAuthService(userRepo, tokenService, mailer, cfg.BcryptCost)
	userService := service.NewUserService(userRepo)
	tourService := service.NewTourService(tourRepo)

	norm := &httputil.Normalizer{Development: !cfg.IsProduction()}

	authMiddleware := middleware.NewAuthMiddleware(tokenService, userRepo, cfg.TokenCarrier, norm)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.RateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(cfg.IsProduction())

	authHandler := handler.NewAuthHandler(
		authService, authMiddleware, norm, cfg.TokenCarrier, cfg.CookieTTL(), cfg.IsProduction(),
	)
	reviewHandler := handler.NewReviewHandler(reviewRepo, tourRepo, authMiddleware, norm)
	tourHandler := handler.NewTourHandler(
		tourRepo, reviewRepo, tourService, authMiddleware, norm, cfg.PublicReads,
	)
	userHandler := handler.NewUserHandler(userRepo, userService, authMiddleware, norm)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)

		r.Mount("/auth", authHandler.Routes())
		r.Mount("/tours", tourHandler.Routes(reviewHandler.Routes()))
		r.Mount("/reviews", reviewHandler.Routes())
		r.Mount("/users", userHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(userRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
