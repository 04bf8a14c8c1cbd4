package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"vaultview/internal/api"
	"vaultview/internal/catalog"
	"vaultview/internal/config"
	"vaultview/internal/metrics"
	"vaultview/internal/navigation"
	"vaultview/internal/player"
	"vaultview/internal/server"
	"vaultview/internal/session"
	"vaultview/internal/storage"
	"vaultview/internal/subtitle"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("version", api.Version).
		Msg("starting vaultview server")

	// Initialize storage
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()

	cat, err := buildCatalog(cfg.Catalog, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build catalog")
	}
	logger.Info().Int("items", cat.Len()).Msg("catalog ready")

	if counts, err := store.CountByCategory(); err == nil {
		for _, c := range catalog.Categories() {
			logger.Debug().Str("category", string(c)).Int("items", counts[c]).Msg("catalog category")
		}
	}

	fetcher := subtitle.NewFetcher(&http.Client{}, subtitle.FetcherConfig{
		Timeout:       cfg.Subtitles.Timeout,
		MaxBytes:      cfg.Subtitles.MaxBytes,
		CacheCapacity: cfg.Subtitles.CacheCapacity,
		CacheMaxSize:  cfg.Subtitles.CacheMaxSize,
	}, logger.With().Str("component", "subtitles").Logger())

	playerCfg := player.Config{
		HideDelay: cfg.Player.ErrorHideDelay,
		Subtitles: fetcher,
	}

	var (
		m   *metrics.Metrics
		reg *prometheus.Registry
	)
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(reg)
		fetcher.SetObserver(m)
		playerCfg.Observer = m
	}

	sessions := session.NewStore(session.Config{
		IdleTimeout: cfg.Sessions.IdleTimeout,
		Player:      playerCfg,
	}, logger.With().Str("component", "sessions").Logger())

	if reg != nil {
		metrics.RegisterGauges(reg, cat.Len, sessions.Len)
		metrics.RegisterSubtitleCache(reg, fetcher)
	}

	rail := navigation.NewRail(navigation.Links{
		FormURL:      cfg.Links.FormURL,
		ContactEmail: cfg.Links.ContactEmail,
	})

	handler := api.NewHandler(cat, rail, sessions, fetcher, logger)

	// Create server
	var gatherer prometheus.Gatherer
	if reg != nil {
		gatherer = reg
	}
	srv := server.New(cfg, logger, handler, m, gatherer)

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions.StartSweeper(ctx, cfg.Sessions.SweepInterval)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info().Msg("received shutdown signal")
		cancel()

		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Error().Err(err).Msg("server error")
	}

	logger.Info().Msg("server stopped")
}

// buildCatalog loads the seed, pads it to the target count and round-trips it
// through storage so the served order is the stored order.
func buildCatalog(cfg config.CatalogConfig, store *storage.SQLiteStorage) (*catalog.Catalog, error) {
	seed, err := loadSeed(cfg.SeedPath)
	if err != nil {
		return nil, err
	}

	expanded := catalog.Expand(seed, cfg.TargetCount)
	if err := store.SaveCatalog(expanded); err != nil {
		return nil, err
	}

	stored, err := store.CountItems()
	if err != nil {
		return nil, err
	}
	if stored != len(expanded) {
		return nil, fmt.Errorf("catalog store holds %d items, expected %d", stored, len(expanded))
	}

	items, err := store.LoadCatalog()
	if err != nil {
		return nil, err
	}

	return catalog.New(items), nil
}

func loadSeed(path string) ([]catalog.MediaItem, error) {
	if path == "" {
		return catalog.DefaultSeed()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return catalog.LoadSeed(f)
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger()
}
