package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/framelight/framelight/internal/agent"
	"github.com/framelight/framelight/internal/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	serverURL := getEnv("SERVER_URL", "http://localhost:8080")
	dataDir := getEnv("DATA_DIR", "data")
	powerListen := getEnv("POWER_LISTEN", ":5050")
	markerPath := getEnv("DISPLAY_MARKER", "")

	logger.Init(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENV", "production"),
	})
	log.Info().Str("server", serverURL).Str("data_dir", dataDir).Msg("starting framelight agent")

	fs := afero.NewOsFs()
	if err := fs.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", dataDir).Msg("create data dir")
	}

	inv, err := agent.OpenInventory(filepath.Join(dataDir, "inventory.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open inventory")
	}
	defer inv.Close()

	var guard agent.DisplayGuard = agent.NopGuard{}
	if markerPath != "" {
		guard = agent.NewMarkerGuard(fs, markerPath)
	}

	a := agent.New(agent.Config{
		ServerURL:     serverURL,
		DataDir:       dataDir,
		FallbackDelay: time.Minute,
	}, agent.NewClient(serverURL), inv, fs, clockwork.NewRealClock(), guard)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := agent.ServePower(ctx, powerListen, agent.NopController{}); err != nil {
			log.Error().Err(err).Msg("power listener failed")
		}
	}()

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("agent stopped")
	}
	log.Info().Msg("agent stopped")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
