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

	"property-marketplace-api/internal/config"
	"property-marketplace-api/internal/handler"
	"property-marketplace-api/internal/lifecycle"
	"property-marketplace-api/internal/media"
	"property-marketplace-api/internal/middleware"
	"property-marketplace-api/internal/store"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(env("CONFIG_FILE", "config.yaml"))
	if err != nil {
		log.Error("config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Error("store", slog.Any("err", err))
		os.Exit(1)
	}

	signer, err := openSigner(ctx, cfg.Media)
	if err != nil {
		log.Error("media", slog.Any("err", err))
		os.Exit(1)
	}
	resolver := media.NewResolver(signer, cfg.Media.URLTTL, log)

	listings := lifecycle.NewListingManager(st, cfg.Store.Tables.Properties, resolver, log)
	appts := lifecycle.NewAppointmentManager(st, cfg.Store.Tables.Appointments, cfg.Store.Tables.Properties, log)

	h := handler.New(listings, appts, st, cfg.Store.Tables, cfg.Auth, log)
	rl := middleware.NewRateLimiter(cfg.Rate.RPS, cfg.Rate.Burst)
	defer rl.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.Routes(rl),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		log.Info("http listening", slog.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http", slog.Any("err", err))
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		m := store.NewMemory()
		m.CreateTable(cfg.Tables.Users, "UserID")
		m.CreateTable(cfg.Tables.Emails, "Email")
		m.CreateTable(cfg.Tables.Properties, "PropertyID")
		m.CreateTable(cfg.Tables.Appointments, "AppointmentID")
		m.CreateTable(cfg.Tables.RefreshTokens, "TokenHash")
		return m, nil
	default:
		return store.NewDynamo(ctx, store.DynamoConfig{
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
	}
}

func openSigner(ctx context.Context, cfg config.Media) (media.Signer, error) {
	switch cfg.Driver {
	case "static":
		return media.NewStaticSigner(cfg.BaseURL)
	default:
		return media.NewS3Signer(ctx, media.S3Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			PathStyle:       cfg.PathStyle,
		})
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
