// Package prices runs the periodic USD price ticker for the supported tokens.
package prices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KingdomTeck/multiply/internal/events"
	"github.com/KingdomTeck/multiply/internal/modules/markets"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var errEmptyResponse = errors.New("empty price data received")

// Snapshot is the ticker state after the most recent tick.
type Snapshot struct {
	Prices        map[string]float64 `json:"prices" msgpack:"prices"`
	UsingFallback bool               `json:"using_fallback" msgpack:"using_fallback"`
	UpdatedAt     time.Time          `json:"updated_at" msgpack:"updated_at"`
}

// Ticker polls the price source on a fixed interval and keeps the latest snapshot.
type Ticker struct {
	source   markets.PriceSource
	bus      *events.Bus
	interval time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	entryID  cron.EntryID
	log      zerolog.Logger

	mu       sync.RWMutex
	snapshot Snapshot
	running  bool
}

// NewTicker creates a ticker. bus may be nil.
func NewTicker(source markets.PriceSource, bus *events.Bus, interval, timeout time.Duration, log zerolog.Logger) *Ticker {
	log = log.With().Str("component", "price_ticker").Logger()
	return &Ticker{
		source:   source,
		bus:      bus,
		interval: interval,
		timeout:  timeout,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{log}),
			cron.SkipIfStillRunning(cronLogger{log}),
		)),
		log: log,
	}
}

// Start runs one tick immediately and schedules the rest every interval.
func (t *Ticker) Start() error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = true
	t.mu.Unlock()

	if t.entryID == 0 {
		id, err := t.cron.AddFunc(fmt.Sprintf("@every %s", t.interval), func() {
			t.Refresh(context.Background())
		})
		if err != nil {
			t.mu.Lock()
			t.running = false
			t.mu.Unlock()
			return fmt.Errorf("failed to schedule price ticker: %w", err)
		}
		t.entryID = id
	}

	t.Refresh(context.Background())
	t.cron.Start()

	t.log.Info().Dur("interval", t.interval).Msg("Price ticker started")
	return nil
}

// Stop cancels the schedule and waits for a running tick to finish.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.mu.Unlock()

	<-t.cron.Stop().Done()
	t.log.Info().Msg("Price ticker stopped")
}

// Refresh fetches prices now. Any failure yields a fallback snapshot.
func (t *Ticker) Refresh(ctx context.Context) Snapshot {
	snap, err := t.fetch(ctx)
	if err != nil {
		t.log.Warn().Err(err).Msg("Live prices unavailable, showing estimated values")
		snap = fallbackSnapshot()
	}
	snap.UpdatedAt = time.Now()

	t.mu.Lock()
	t.snapshot = snap
	t.mu.Unlock()

	if t.bus != nil {
		t.bus.Publish("prices", &events.PricesUpdatedData{
			Prices:        copyPrices(snap.Prices),
			UsingFallback: snap.UsingFallback,
			UpdatedAt:     snap.UpdatedAt,
		})
	}

	return copySnapshot(snap)
}

// Snapshot returns a copy of the latest snapshot. UpdatedAt is zero before the first tick.
func (t *Ticker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copySnapshot(t.snapshot)
}

// Running reports whether the schedule is active.
func (t *Ticker) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

func (t *Ticker) fetch(ctx context.Context) (Snapshot, error) {
	if t.source == nil {
		return Snapshot{}, errors.New("no live price source configured")
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	prices, err := t.source.GetUSDPrices(ctx, markets.TokenIDs()...)
	if err != nil {
		return Snapshot{}, err
	}
	if len(prices) == 0 {
		return Snapshot{}, errEmptyResponse
	}

	return Snapshot{Prices: prices}, nil
}

func fallbackSnapshot() Snapshot {
	ids := markets.TokenIDs()
	prices := make(map[string]float64, len(ids))
	for _, id := range ids {
		p, _ := markets.FallbackPrice(id)
		prices[id] = p
	}
	return Snapshot{Prices: prices, UsingFallback: true}
}

func copySnapshot(s Snapshot) Snapshot {
	s.Prices = copyPrices(s.Prices)
	return s
}

func copyPrices(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
