package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okrainets/contactbook/internal/config"
	"github.com/okrainets/contactbook/internal/domain"
	"github.com/okrainets/contactbook/internal/handler"
	"github.com/okrainets/contactbook/internal/mailer"
	"github.com/okrainets/contactbook/internal/repository/sqlite"
	"github.com/okrainets/contactbook/internal/service"
	"github.com/okrainets/contactbook/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	var mail domain.Mailer
	if cfg.MailEnabled() {
		mail, err = mailer.NewSMTP(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			FromAddr: cfg.MailFrom,
			FromName: cfg.MailFromName,
			BaseURL:  cfg.BaseURL,
		})
		if err != nil {
			slog.Error("failed to set up mailer", "error", err)
			os.Exit(1)
		}
	} else {
		mail = mailer.NewDisabled()
		slog.Info("SMTP not configured, outbound mail disabled")
	}

	var avatarService *service.AvatarService
	if cfg.AvatarStorageEnabled() {
		store, err := storage.NewS3AvatarStore(context.Background(), storage.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			BaseEndpoint:  cfg.S3BaseEndpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			slog.Error("failed to set up avatar storage", "error", err)
			os.Exit(1)
		}
		avatarService = service.NewAvatarService(db.Users(), store)
	} else {
		slog.Info("S3 not configured, avatar upload disabled")
	}

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := service.NewAuthService(db.Users(), hasher, tokens, mail)
	contactService := service.NewContactService(db.Contacts())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, contactService, avatarService)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
