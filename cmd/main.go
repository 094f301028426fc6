package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/config"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/db"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/handlers"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/live"
	appMiddleware "github.com/WhisperedLullaby/tournament-tracker-sub000/middleware"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/repositories"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/routes"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/services"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize banner storage", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("banner storage initialized")
	} else {
		logger.Warn("banner storage not configured, uploads disabled")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	roleRepo := repositories.NewPostgresRoleRepository(dbConn)
	podRepo := repositories.NewPostgresPodRepository(dbConn)
	poolMatchRepo := repositories.NewPostgresPoolMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	bracketTeamRepo := repositories.NewPostgresBracketTeamRepository(dbConn)
	bracketMatchRepo := repositories.NewPostgresBracketMatchRepository(dbConn)

	var captcha services.CaptchaVerifier
	if cfg.TurnstileSecretKey != "" {
		captcha = services.NewTurnstileVerifier(cfg.TurnstileSecretKey)
	} else {
		logger.Warn("captcha secret not configured, verification disabled")
		captcha = services.NoopCaptchaVerifier{}
	}

	var mailer *services.EmailService
	if cfg.SMTPHost != "" {
		mailer = services.NewEmailService(cfg)
	} else {
		logger.Warn("SMTP not configured, outgoing mail disabled")
	}

	txRunner := services.NewTxRunner(dbConn)
	standingsService := services.NewStandingsService(podRepo, standingRepo)
	tournamentService := services.NewTournamentService(txRunner, tournamentRepo, roleRepo, uploader, logger)
	gameService := services.NewGameService(
		txRunner, poolMatchRepo, podRepo, tournamentRepo, standingsService, wsHub, logger,
	)

	var registrationMailer services.RegistrationMailer
	var bracketMailer services.BracketMailer
	if mailer != nil {
		registrationMailer = mailer
		bracketMailer = mailer
	}
	registrationService := services.NewRegistrationService(
		txRunner, podRepo, tournamentRepo, captcha, registrationMailer, logger,
	)
	bracketService := services.NewBracketService(
		txRunner, bracketTeamRepo, bracketMatchRepo, poolMatchRepo, podRepo,
		tournamentRepo, standingsService, wsHub, bracketMailer, logger,
	)
	logger.Info("services initialized")

	auth := appMiddleware.NewAuthenticator(cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, registrationService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	gameHandler := handlers.NewGameHandler(gameService, standingsService, tournamentService)
	bracketHandler := handlers.NewBracketHandler(bracketService, tournamentService)
	websocketHandler := handlers.NewWebsocketHandler(wsHub, logger)

	router := chi.NewRouter()
	routes.SetupRoutes(
		router,
		auth,
		tournamentHandler,
		registrationHandler,
		gameHandler,
		bracketHandler,
		websocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
