// Package app wires configuration, storage, the API client, and the services
// into a single shared core used by cmd/credsync.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/credsync/internal/clients/creditapi"
	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/events"
	"github.com/bobmcallan/credsync/internal/interfaces"
	"github.com/bobmcallan/credsync/internal/services/metrics"
	"github.com/bobmcallan/credsync/internal/services/report"
	"github.com/bobmcallan/credsync/internal/services/sync"
	"github.com/bobmcallan/credsync/internal/storage"
)

// App holds all initialized services, clients, and storage.
type App struct {
	Config         *common.Config
	Logger         *common.Logger
	Storage        interfaces.StorageManager
	Bus            *events.Bus
	Client         interfaces.CreditAPIClient
	SyncService    interfaces.SyncService
	ReportService  interfaces.ReportService
	MetricsService interfaces.MetricsService
	StartupTime    time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, the API client, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Config resolution: explicit path, CREDSYNC_CONFIG, binary dir, dev fallback
	if configPath == "" {
		configPath = os.Getenv("CREDSYNC_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "credsync.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/credsync.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	bus := events.NewBus()

	// Session tokens live in the durable cache so restarts keep the session.
	tokens := newStoredTokenSource(storageManager.CacheStore())

	client := creditapi.NewClient(tokens,
		creditapi.WithBaseURL(config.API.BaseURL),
		creditapi.WithLogger(logger),
		creditapi.WithRateLimit(config.API.RateLimit),
		creditapi.WithTimeout(config.API.GetTimeout()),
	)

	syncService := sync.NewService(storageManager, client, bus, config.Sync, logger)
	reportService := report.NewService(storageManager, client, bus, config.Sync, logger)
	metricsService := metrics.NewService(storageManager, client, bus, logger)

	a := &App{
		Config:         config,
		Logger:         logger,
		Storage:        storageManager,
		Bus:            bus,
		Client:         client,
		SyncService:    syncService,
		ReportService:  reportService,
		MetricsService: metricsService,
		StartupTime:    startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// storedTokenSource reads the session token from the durable cache.
type storedTokenSource struct {
	cache interfaces.CacheStore
}

func newStoredTokenSource(cache interfaces.CacheStore) *storedTokenSource {
	return &storedTokenSource{cache: cache}
}

// Token returns the stored session token, or empty when logged out.
func (t *storedTokenSource) Token(ctx context.Context) (string, error) {
	token, err := t.cache.Get(ctx, interfaces.CacheKeyToken)
	if err != nil {
		return "", nil
	}
	return token, nil
}

var _ creditapi.TokenSource = (*storedTokenSource)(nil)
