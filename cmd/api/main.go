package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"genstudio/internal/adapter/repo"
	"genstudio/internal/generation"
	"genstudio/internal/history"
	"genstudio/internal/http/handlers"
	httpapi "genstudio/internal/http/httpapi"
	"genstudio/internal/infra"
	"genstudio/internal/infra/credentials"
	"genstudio/internal/infra/geoip"
	"genstudio/internal/infra/lock"
	"genstudio/internal/media"
	"genstudio/internal/middleware"
	"genstudio/internal/providers/gemini"
	"genstudio/internal/providers/video"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	backend, err := repo.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.HistoryDriver).Msg("failed to open history store")
	}
	defer backend.Close()

	keys := credentials.NewStore(backend.Tokens, cfg.GeminiAPIKey)
	var selector generation.CredentialSelector = credentials.StaticSelector{}
	if cfg.CredentialMode == infra.CredentialModeManaged {
		selector = credentials.StoreSelector{Store: keys}
	}

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.RedisURL != "" {
		rdb, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, logger)
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	hist := history.NewSynchronizer(backend.History, logger)
	if _, err := hist.List(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial history load failed")
	}

	gatewayOpts := gemini.Options{
		BaseURL:    cfg.GeminiBaseURL,
		ImageModel: cfg.GeminiImageModel,
		TextModel:  cfg.GeminiTextModel,
		TTSModel:   cfg.GeminiTTSModel,
		VideoModel: cfg.GeminiVideoModel,
		Voice:      cfg.TTSVoice,
		Timeout:    cfg.ProviderTimeout,
		Logger:     logger,
	}
	gateways := func(ctx context.Context, apiKey string) (generation.Gateway, error) {
		opts := gatewayOpts
		opts.APIKey = apiKey
		client, err := gemini.NewClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	svc := generation.NewService(generation.Deps{
		Gateways:     gateways,
		Keys:         keys,
		Selector:     selector,
		Poller:       video.NewPoller(cfg.VideoPollInterval, cfg.VideoPollTimeout, logger),
		Materializer: media.NewMaterializer(cfg.MaxAssetBytes),
		History:      hist,
		Locker:       locker,
		LockTTL:      cfg.GenerationLockTTL(),
		Logger:       logger,
	})

	app := handlers.NewApp(svc, hist, keys, cfg.MaxAssetBytes*2, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("driver", cfg.HistoryDriver).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
