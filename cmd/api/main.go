package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ootdapi/config"
	"ootdapi/controllers"
	"ootdapi/logging"
	"ootdapi/services"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	logger := logging.New(cfg.Env)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	err = sentry.Init(sentry.ClientOptions{
		// Empty DSN disables sending.
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Env,
		Release:          "ootdapi@1.0.0",
		Debug:            false,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("sentry.Init")
	}
	defer sentry.Recover()
	defer sentry.Flush(2 * time.Second)

	var urlCache services.URLCacheServiceProvider
	if cfg.R2Enabled() {
		awsService := &services.AWSService{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
		}
		if err := awsService.InitPresignClient(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize R2 presign client")
		}
		cache, err := services.NewURLCacheService(awsService, cfg.R2BucketName, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize URL cache service")
		}
		urlCache = cache
	}

	generator := &services.Generator{
		Runner: &services.ExecRunner{
			Python:      cfg.Python,
			Script:      cfg.Script,
			WorkDir:     cfg.WorkDir,
			CUDADevices: cfg.CUDADevices,
		},
		Inputs: &services.InputResolver{
			HTTPClient:       &http.Client{Timeout: cfg.DownloadTimeout},
			MaxDownloadBytes: cfg.MaxDownloadBytes,
			URLCache:         urlCache,
		},
		Options: services.GeneratorOptions{
			OutputRoot:    cfg.OutputRoot,
			ToolWorkDir:   cfg.WorkDir,
			ExtendedArgs:  cfg.ExtendedArgs,
			GPUID:         cfg.GPUID,
			StrictResults: cfg.StrictResults,
			Timeout:       cfg.GenerationTimeout,
		},
		Logger: logger,
	}

	e := controllers.SetupServer(generator, controllers.ServerOptions{
		DefaultSample: cfg.DefaultSample,
		DefaultStep:   cfg.DefaultStep,
		DefaultSeed:   cfg.DefaultSeed,
		BodyLimit:     "1M",
	})
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(sentryecho.New(sentryecho.Options{Repanic: true}))

	logger.Info().
		Str("port", cfg.Port).
		Str("output_root", cfg.OutputRoot).
		Str("script", cfg.Script).
		Bool("r2", urlCache != nil).
		Msg("starting ootd api")

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	logger.Info().Msg("shutting down")
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
