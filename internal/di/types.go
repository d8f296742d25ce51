/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived service instance and is passed to the
 * HTTP server for access to them.
 */
package di

import (
	"github.com/KingdomTeck/multiply/internal/clients/coingecko"
	"github.com/KingdomTeck/multiply/internal/events"
	"github.com/KingdomTeck/multiply/internal/modules/calculator"
	"github.com/KingdomTeck/multiply/internal/modules/markets"
	"github.com/KingdomTeck/multiply/internal/modules/prices"
)

// Container holds all application dependencies
type Container struct {
	EventBus *events.Bus

	// Clients
	CoinGeckoClient *coingecko.Client

	// Services
	Provider   *markets.Provider
	Calculator *calculator.Service
	Ticker     *prices.Ticker
}

// Close stops background work and releases caches. Safe to call more than once.
func (c *Container) Close() {
	if c.Ticker != nil {
		c.Ticker.Stop()
	}
	if c.Calculator != nil {
		c.Calculator.Close()
	}
}
