// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/KingdomTeck/multiply/internal/clients/coingecko"
	"github.com/KingdomTeck/multiply/internal/config"
	"github.com/KingdomTeck/multiply/internal/events"
	"github.com/KingdomTeck/multiply/internal/modules/calculator"
	"github.com/KingdomTeck/multiply/internal/modules/markets"
	"github.com/KingdomTeck/multiply/internal/modules/prices"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Event bus and remote clients
// 2. Services
//
// The price ticker is created but not started.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{
		EventBus: events.NewBus(log),
	}

	// Step 1: Clients
	container.CoinGeckoClient = coingecko.NewClient(cfg.CoinGeckoBaseURL, cfg.PriceFetchTimeout, log)

	// Step 2: Services
	calc, err := calculator.NewService(cfg.CalcCacheMaxItems, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize calculator service: %w", err)
	}
	container.Calculator = calc

	container.Provider = markets.NewProvider(container.CoinGeckoClient, cfg.PriceFetchTimeout, log)
	container.Ticker = prices.NewTicker(
		container.CoinGeckoClient,
		container.EventBus,
		cfg.TickerInterval,
		cfg.PriceFetchTimeout,
		log,
	)

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}
