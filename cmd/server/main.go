package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/framelight/framelight/internal/config"
	"github.com/framelight/framelight/internal/domain/admin"
	"github.com/framelight/framelight/internal/domain/client"
	"github.com/framelight/framelight/internal/domain/events"
	"github.com/framelight/framelight/internal/domain/photo"
	"github.com/framelight/framelight/internal/domain/release"
	"github.com/framelight/framelight/internal/domain/settings"
	syncsvc "github.com/framelight/framelight/internal/domain/sync"
	"github.com/framelight/framelight/internal/middleware"
	"github.com/framelight/framelight/internal/pkg/database"
	"github.com/framelight/framelight/internal/pkg/logger"
	"github.com/framelight/framelight/internal/pkg/storage"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})
	log.Info().Str("env", cfg.Env).Msg("starting framelight server")

	db, err := database.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("open catalog database")
	}
	defer database.Close(db)

	if err := database.MigrateCatalog(db); err != nil {
		log.Fatal().Err(err).Msg("migrate catalog")
	}

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to redis")
	}
	defer database.CloseRedis(rdb)

	var store storage.Storage
	switch cfg.StorageBackend {
	case "s3":
		store, err = storage.NewS3Storage(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
		})
	default:
		store, err = storage.NewLocalStorage(cfg.PhotosDir)
	}
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("init photo storage")
	}

	osFs := afero.NewOsFs()
	settingsStore, err := settings.NewStore(osFs, cfg.SettingsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("init settings store")
	}

	hub := events.NewHub()
	go hub.Run()

	photoRepo := photo.NewRepository(db)
	clientRepo := client.NewRepository(db)
	presence := client.NewPresence(rdb, 10*time.Minute)

	photoService := photo.NewService(photoRepo, store, settingsStore, hub)
	syncService := syncsvc.NewService(photoRepo, clientRepo, presence, settingsStore, hub)
	releaseService := release.NewService(osFs, cfg.ReleasesDir)
	jwtService := admin.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)

	// Register photos already on disk before serving syncs.
	scanCtx, cancelScan := context.WithTimeout(context.Background(), 5*time.Minute)
	if err := photoService.ScanStorage(scanCtx); err != nil {
		log.Error().Err(err).Msg("storage scan failed")
	}
	cancelScan()

	photoHandler := photo.NewHandler(photoService, cfg.MaxUploadMB)
	syncHandler := syncsvc.NewHandler(syncService)
	settingsHandler := settings.NewHandler(settingsStore)
	clientHandler := client.NewHandler(clientRepo, presence, cfg.ClientPowerPort)
	releaseHandler := release.NewHandler(releaseService)
	adminHandler := admin.NewHandler(jwtService, cfg.AdminPasswordHash)
	eventsHandler := events.NewHandler(hub)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Display client protocol, unauthenticated.
	r.Get("/api/config", settingsHandler.GetConfig)
	r.Post("/api/sync", syncHandler.Sync)
	r.Mount("/api/photos", photoHandler.PublicRoutes())
	r.Get("/api/client/version", releaseHandler.Versions)
	r.Get("/api/client/code/{component}", releaseHandler.Artifact)

	// Admin API.
	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.Login)
		r.Mount("/photos", photoHandler.AdminRoutes(jwtService.RequireAuth))
		r.Mount("/settings", settingsHandler.AdminRoutes(jwtService.RequireAuth))
		r.Mount("/clients", clientHandler.AdminRoutes(jwtService.RequireAuth))
		r.With(jwtService.RequireAuth).Get("/stats", photoHandler.Stats)
		r.With(jwtService.RequireAuth).Get("/events", eventsHandler.Subscribe)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
