package app

import (
	"context"
	"time"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/interfaces"
)

// runScheduler drives the periodic quote collection, account valuation,
// and history retention sweeps until ctx is cancelled.
func runScheduler(ctx context.Context, market interfaces.MarketService, valuation interfaces.ValuationService, logger *common.Logger, valuationInterval, retentionInterval time.Duration) {
	logger.Info().
		Dur("valuation_interval", valuationInterval).
		Dur("retention_interval", retentionInterval).
		Msg("Scheduler started")

	// Prime quotes and valuations at startup so the first API calls have
	// data to serve.
	runValuationCycle(ctx, market, valuation, logger)

	valuationTicker := time.NewTicker(valuationInterval)
	defer valuationTicker.Stop()

	retentionTicker := time.NewTicker(retentionInterval)
	defer retentionTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Scheduler stopped")
			return
		case <-valuationTicker.C:
			runValuationCycle(ctx, market, valuation, logger)
		case <-retentionTicker.C:
			runRetentionSweep(ctx, valuation, logger)
		}
	}
}

func runValuationCycle(ctx context.Context, market interfaces.MarketService, valuation interfaces.ValuationService, logger *common.Logger) {
	start := time.Now()

	if err := market.CollectQuotes(ctx); err != nil {
		logger.Warn().Err(err).Msg("Quote collection failed")
	}

	if err := valuation.RunCycle(ctx); err != nil {
		logger.Warn().Err(err).Msg("Valuation cycle failed")
		return
	}

	logger.Debug().Dur("elapsed", time.Since(start)).Msg("Valuation cycle complete")
}

func runRetentionSweep(ctx context.Context, valuation interfaces.ValuationService, logger *common.Logger) {
	pruned, err := valuation.PruneHistory(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Retention sweep failed")
		return
	}

	logger.Info().Int("pruned", pruned).Msg("Retention sweep complete")
}
