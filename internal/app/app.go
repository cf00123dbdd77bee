// Package app wires configuration, storage, clients, and services into a
// runnable core shared by the server binary and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rferrell/papertrade/internal/clients/binance"
	"github.com/rferrell/papertrade/internal/clients/deepseek"
	"github.com/rferrell/papertrade/internal/clients/gemini"
	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/interfaces"
	"github.com/rferrell/papertrade/internal/services/advisor"
	"github.com/rferrell/papertrade/internal/services/history"
	"github.com/rferrell/papertrade/internal/services/ledger"
	"github.com/rferrell/papertrade/internal/services/market"
	"github.com/rferrell/papertrade/internal/services/valuation"
	"github.com/rferrell/papertrade/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	BinanceClient    interfaces.BinanceClient
	DeepSeekClient   *deepseek.Client
	MarketService    interfaces.MarketService
	LedgerService    interfaces.LedgerService
	ValuationService interfaces.ValuationService
	AdvisorService   interfaces.AdvisorService
	HistoryService   interfaces.HistoryService
	StartupTime      time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services from configuration.
// configPath may be empty, in which case the default resolution is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Config resolution: explicit path, PAPERTRADE_CONFIG, binary dir,
	// then the development fallback.
	if configPath == "" {
		configPath = os.Getenv("PAPERTRADE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "papertrade.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/papertrade.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to the binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	binanceClient := binance.NewClient(
		binance.WithBaseURL(config.Clients.Binance.BaseURL),
		binance.WithLogger(logger),
		binance.WithRateLimit(config.Clients.Binance.RateLimit),
		binance.WithTimeout(config.Clients.Binance.GetTimeout()),
	)

	// Completion providers, in preference order
	var providers []interfaces.CompletionClient
	var deepseekClient *deepseek.Client

	if config.Clients.DeepSeek.APIKey != "" {
		deepseekClient = deepseek.NewClient(config.Clients.DeepSeek.APIKey,
			deepseek.WithBaseURL(config.Clients.DeepSeek.BaseURL),
			deepseek.WithModel(config.Clients.DeepSeek.Model),
			deepseek.WithLogger(logger),
			deepseek.WithTimeout(config.Clients.DeepSeek.GetTimeout()),
		)
		providers = append(providers, deepseekClient)
	} else {
		logger.Warn().Msg("DeepSeek API key not configured - provider disabled")
	}

	if config.Clients.Gemini.APIKey != "" {
		geminiClient, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			providers = append(providers, geminiClient)
		}
	}

	if len(providers) == 0 {
		logger.Warn().Msg("No completion provider configured - advice falls back to the heuristic")
	}

	marketService, err := market.NewService(logger, binanceClient, storageManager, config.Ledger.Symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize market service: %w", err)
	}
	ledgerService := ledger.NewService(logger, storageManager, marketService)
	valuationService := valuation.NewService(logger, storageManager, marketService, config.Ledger.GetRetentionWindow())
	advisorService := advisor.NewService(logger, storageManager, providers)
	historyService := history.NewService(logger, storageManager)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		BinanceClient:    binanceClient,
		DeepSeekClient:   deepseekClient,
		MarketService:    marketService,
		LedgerService:    ledgerService,
		ValuationService: valuationService,
		AdvisorService:   advisorService,
		HistoryService:   historyService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// StartScheduler launches the background collection, valuation, and
// retention goroutines.
func (a *App) StartScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	go runScheduler(ctx, a.MarketService, a.ValuationService, a.Logger,
		a.Config.Ledger.GetValuationInterval(), a.Config.Ledger.GetRetentionInterval())
}

// Close releases all resources. Shutdown order: cancel scheduler, close
// storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
