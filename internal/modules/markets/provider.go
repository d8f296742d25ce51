package markets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PriceSource fetches USD prices by external id.
type PriceSource interface {
	GetUSDPrices(ctx context.Context, ids ...string) (map[string]float64, error)
}

// Quote is a resolved collateral/debt price ratio.
type Quote struct {
	Ratio float64 `json:"ratio" msgpack:"ratio"`
	// Estimated is set when the ratio came from the fallback table.
	Estimated bool `json:"estimated" msgpack:"estimated"`
}

var errMissingPrice = errors.New("missing price data in response")

// Provider resolves price ratios, preferring a live quote over the fallback table.
type Provider struct {
	source  PriceSource
	timeout time.Duration
	log     zerolog.Logger
}

// NewProvider creates a provider that waits at most timeout for the remote source.
// source may be nil, in which case only fallback prices are used.
func NewProvider(source PriceSource, timeout time.Duration, log zerolog.Logger) *Provider {
	return &Provider{
		source:  source,
		timeout: timeout,
		log:     log.With().Str("service", "market_data").Logger(),
	}
}

// ResolvePriceRatio returns the price of one collateral unit in debt units.
// Remote failures are never returned: they fall back to the static table.
// ok is false when neither source can price both legs.
func (p *Provider) ResolvePriceRatio(ctx context.Context, collateralID, debtID string) (Quote, bool) {
	ratio, err := p.fetchLiveRatio(ctx, collateralID, debtID)
	if err == nil {
		p.log.Debug().
			Str("collateral", collateralID).
			Str("debt", debtID).
			Float64("ratio", ratio).
			Msg("Resolved live price ratio")
		return Quote{Ratio: ratio}, true
	}

	colPrice, colOK := FallbackPrice(collateralID)
	debtPrice, debtOK := FallbackPrice(debtID)
	if !colOK || !debtOK || colPrice <= 0 || debtPrice <= 0 {
		p.log.Warn().
			Err(err).
			Str("collateral", collateralID).
			Str("debt", debtID).
			Msg("Price ratio unavailable, no fallback prices for pair")
		return Quote{}, false
	}

	ratio = colPrice / debtPrice
	p.log.Warn().
		Err(err).
		Str("collateral", collateralID).
		Str("debt", debtID).
		Float64("ratio", ratio).
		Msg("Live prices unavailable, using fallback ratio")

	return Quote{Ratio: ratio, Estimated: true}, true
}

func (p *Provider) fetchLiveRatio(ctx context.Context, collateralID, debtID string) (float64, error) {
	if p.source == nil {
		return 0, errors.New("no live price source configured")
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	prices, err := p.source.GetUSDPrices(ctx, collateralID, debtID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch prices: %w", err)
	}

	colPrice := prices[collateralID]
	debtPrice := prices[debtID]
	if colPrice <= 0 || debtPrice <= 0 {
		return 0, errMissingPrice
	}

	return colPrice / debtPrice, nil
}
