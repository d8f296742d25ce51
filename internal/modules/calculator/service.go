package calculator

import (
	"fmt"

	"github.com/KingdomTeck/multiply/internal/domain"
	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"
)

// Result bundles everything derived from one PositionConfig.
type Result struct {
	Metrics domain.PositionMetrics `json:"metrics" msgpack:"metrics"`
	Risk    Risk                   `json:"risk" msgpack:"risk"`
	Display Display                `json:"display" msgpack:"display"`
}

// Evaluate computes the full Result for cfg.
func Evaluate(cfg domain.PositionConfig) Result {
	m := Calculate(cfg)
	return Result{
		Metrics: m,
		Risk:    AssessRisk(m.LTV),
		Display: Format(cfg, m),
	}
}

// Service memoizes Evaluate on the structural value of the config.
// Safe for concurrent use.
type Service struct {
	cache *ristretto.Cache
	log   zerolog.Logger
}

// NewService creates a calculator service holding at most maxItems results.
// A maxItems of 0 disables memoization.
func NewService(maxItems int64, log zerolog.Logger) (*Service, error) {
	s := &Service{log: log.With().Str("service", "calculator").Logger()}
	if maxItems <= 0 {
		return s, nil
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create calculator cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// Evaluate returns the cached Result for cfg, computing it on a miss.
func (s *Service) Evaluate(cfg domain.PositionConfig) Result {
	if s.cache == nil {
		return Evaluate(cfg)
	}

	key := cacheKey(cfg)
	if v, ok := s.cache.Get(key); ok {
		if res, ok := v.(Result); ok {
			return res
		}
	}

	res := Evaluate(cfg)
	s.cache.Set(key, res, 1)
	return res
}

// Close releases the cache.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// cacheKey uses %v, which prints floats in their shortest round-trip form.
func cacheKey(cfg domain.PositionConfig) string {
	return fmt.Sprintf("%v", cfg)
}
