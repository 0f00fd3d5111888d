package main

import (
	"os"

	"github.com/aleister1102/pagewatch/internal/bus"
	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/datastore"
	"github.com/aleister1102/pagewatch/internal/diagnostics"
	"github.com/aleister1102/pagewatch/internal/httpclient"
	"github.com/aleister1102/pagewatch/internal/logger"
	"github.com/aleister1102/pagewatch/internal/monitor"
	"github.com/aleister1102/pagewatch/internal/normalizer"
	"github.com/aleister1102/pagewatch/internal/notifier"
	"github.com/rs/zerolog"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg         *config.GlobalConfig
	logger      zerolog.Logger
	store       *datastore.Store
	registry    *bus.Registry
	diagnostics *diagnostics.Recorder
	monitor     *monitor.Service
}

func newApp(configPath string) (*app, error) {
	bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.LoadGlobalConfig(configPath, bootLogger)
	if err != nil {
		return nil, common.WrapErrorf(err, "could not load config using path '%s'", configPath)
	}

	zLogger, err := logger.New(cfg.LogConfig)
	if err != nil {
		return nil, common.WrapError(err, "could not initialize logger")
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	zLogger.Debug().Msg("Configuration validated successfully")

	store, err := datastore.Open(cfg.StorageConfig.DatabasePath, zLogger)
	if err != nil {
		return nil, err
	}

	fetcher, err := httpclient.NewHTTPClient(cfg.HTTPClientConfig, zLogger)
	if err != nil {
		_ = store.Close()
		return nil, common.WrapError(err, "could not create HTTP client")
	}

	registry := bus.NewRegistry(zLogger)
	recorder := diagnostics.NewRecorder(cfg.DiagnosticsConfig, zLogger)
	service, err := monitor.NewService(cfg.MonitorConfig, monitor.Dependencies{
		Store:       store,
		Normalizer:  normalizer.NewNormalizer(fetcher, normalizer.NewRules(cfg.NormalizerConfig), zLogger),
		Notifier:    notifier.New(cfg.NotificationConfig, zLogger),
		Broadcaster: registry,
		Diagnostics: recorder,
	}, zLogger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:         cfg,
		logger:      zLogger,
		store:       store,
		registry:    registry,
		diagnostics: recorder,
		monitor:     service,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close database")
	}
}
