package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stylestudio/internal/adapter/repo"
	"stylestudio/internal/http/handlers"
	httpapi "stylestudio/internal/http/httpapi"
	"stylestudio/internal/infra"
	"stylestudio/internal/infra/geoip"
	"stylestudio/internal/intake"
	"stylestudio/internal/jobs"
	"stylestudio/internal/storage"
	"stylestudio/internal/transform"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	uploads, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare uploads directory")
	}
	outputs, err := storage.NewFileStore(cfg.OutputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare outputs directory")
	}

	engine, closeEngine, err := transform.NewEngine(transform.EngineConfig{
		Backend:      cfg.TransformBackend,
		JPEGQuality:  cfg.JPEGQuality,
		VipsCache:    cfg.VipsCacheSize,
		VipsWorkers:  cfg.TransformWorkers,
		ScriptConfig: cfg.TransformScripts,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.TransformBackend).Msg("failed to start transform engine")
	}
	defer closeEngine()
	executor := transform.NewExecutor(engine, transform.Options{
		Timeout:     cfg.TransformTimeout,
		Concurrency: cfg.TransformWorkers,
		MaxPixels:   cfg.MaxPixels,
	}, logger)

	ledger, closeLedger, err := repo.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.LedgerDriver).Msg("failed to open history ledger")
	}
	defer closeLedger()

	deps := jobs.Deps{
		Intake:  intake.New(uploads, cfg.MaxUploadBytes),
		Exec:    executor,
		Ledger:  ledger,
		Uploads: uploads,
		Outputs: outputs,
		Logger:  logger,
	}
	if cfg.MirrorEnabled() {
		mirror, err := storage.NewMirror(ctx, storage.MirrorConfig{
			Endpoint:  cfg.MirrorEndpoint,
			Bucket:    cfg.MirrorBucket,
			AccessKey: cfg.MirrorAccessKey,
			SecretKey: cfg.MirrorSecretKey,
			Region:    cfg.MirrorRegion,
			UseSSL:    cfg.MirrorUseSSL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect artifact mirror")
		}
		deps.Mirror = mirror
	}

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()

	app := handlers.NewApp(jobs.New(deps), logger, cfg.MaxUploadBytes, executor.Engine())
	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		ClientURLs:      cfg.ClientURLs,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   resolver.CountryCode,
		RateLimitPerMin: cfg.RateLimitPerMin,
		UploadDir:       uploads.BasePath(),
		OutputDir:       outputs.BasePath(),
		Logger:          logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("engine", executor.Engine()).
			Str("ledger", cfg.LedgerDriver).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.TransformTimeout+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
