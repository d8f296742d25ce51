// Package session models one interactive calculator form: its configuration,
// input mode and the asynchronous price lookups triggered by strategy changes.
//
// A Session is not safe for concurrent use. One goroutine owns it and feeds it
// both user edits and the results read from Results().
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/KingdomTeck/multiply/internal/domain"
	"github.com/KingdomTeck/multiply/internal/modules/calculator"
	"github.com/KingdomTeck/multiply/internal/modules/markets"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrUnknownField    = errors.New("unknown field")
	ErrTokenLocked     = errors.New("token symbols can only be edited on the custom strategy")
	ErrUnknownMode     = errors.New("unknown input mode")
)

// Editable form fields.
const (
	FieldInitialDeposit       = "initial_deposit"
	FieldPriceRatio           = "price_ratio"
	FieldSupplyAPY            = "supply_apy"
	FieldBorrowAPY            = "borrow_apy"
	FieldLiquidationThreshold = "liquidation_threshold"
	FieldCollateralToken      = "collateral_token"
	FieldDebtToken            = "debt_token"
)

// resultBuffer bounds pending resolutions. Superseded fetches are cancelled,
// so a handful of slots is enough.
const resultBuffer = 8

// PriceResolver resolves a collateral/debt price ratio.
type PriceResolver interface {
	ResolvePriceRatio(ctx context.Context, collateralID, debtID string) (markets.Quote, bool)
}

// Evaluator derives results from a configuration.
type Evaluator interface {
	Evaluate(cfg domain.PositionConfig) calculator.Result
}

// PriceResult is the outcome of one background price resolution.
type PriceResult struct {
	RequestID uuid.UUID
	Strategy  string
	Quote     markets.Quote
	OK        bool
}

// State is the user-visible form state.
type State struct {
	Config        domain.PositionConfig `json:"config" msgpack:"config"`
	Strategy      string                `json:"strategy" msgpack:"strategy"`
	Mode          domain.InputMode      `json:"mode" msgpack:"mode"`
	TargetLTV     string                `json:"target_ltv" msgpack:"target_ltv"`
	LoadingPrices bool                  `json:"loading_prices" msgpack:"loading_prices"`
	Estimated     bool                  `json:"estimated" msgpack:"estimated"`
}

// View is the state together with everything derived from it.
type View struct {
	SessionID       string            `json:"session_id" msgpack:"session_id"`
	State           State             `json:"state" msgpack:"state"`
	Result          calculator.Result `json:"result" msgpack:"result"`
	ActiveQuickPick *float64          `json:"active_quick_pick,omitempty" msgpack:"active_quick_pick,omitempty"`
}

type inflight struct {
	id       uuid.UUID
	strategy string
	cancel   context.CancelFunc
}

// Session is a single calculator form.
type Session struct {
	id        uuid.UUID
	state     State
	resolver  PriceResolver
	evaluator Evaluator
	results   chan PriceResult
	pending   *inflight
	log       zerolog.Logger
}

// New creates a session holding the default configuration. No strategy is
// applied until SelectStrategy is called.
func New(resolver PriceResolver, evaluator Evaluator, log zerolog.Logger) *Session {
	id := uuid.New()
	cfg := domain.DefaultPositionConfig()
	return &Session{
		id: id,
		state: State{
			Config:    cfg,
			Strategy:  markets.DefaultStrategy,
			Mode:      domain.ModeLeverage,
			TargetLTV: calculator.FormatTargetLTV(calculator.LeverageToLTV(cfg.Leverage)),
		},
		resolver:  resolver,
		evaluator: evaluator,
		results:   make(chan PriceResult, resultBuffer),
		log:       log.With().Str("component", "session").Str("session_id", id.String()).Logger(),
	}
}

// ID returns the session identity.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current form state.
func (s *Session) State() State {
	return s.state
}

// Results delivers background price resolutions. Each must be passed to
// ApplyPriceResult by the owning goroutine.
func (s *Session) Results() <-chan PriceResult {
	return s.results
}

// SelectStrategy switches to the preset named key, overwriting its fields and
// starting one background price resolution. The custom strategy keeps the
// current fields and starts nothing.
func (s *Session) SelectStrategy(ctx context.Context, key string) error {
	if !markets.IsStrategy(key) {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, key)
	}

	s.cancelPending()
	s.state.Strategy = key
	s.state.LoadingPrices = false
	s.state.Estimated = false

	preset, ok := markets.Preset(key)
	if !ok {
		return nil
	}

	cfg := s.state.Config
	cfg.CollateralToken = preset.Collateral
	cfg.DebtToken = preset.Debt
	cfg.SupplyAPY = preset.SupplyAPY
	cfg.BorrowAPY = preset.BorrowAPY
	cfg.LiquidationThreshold = preset.LiquidationLTV
	s.state.Config = cfg

	if s.resolver == nil {
		return nil
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	req := &inflight{id: uuid.New(), strategy: key, cancel: cancel}
	s.pending = req
	s.state.LoadingPrices = true

	s.log.Debug().
		Str("request_id", req.id.String()).
		Str("strategy", key).
		Msg("Resolving price ratio")

	go s.resolve(fetchCtx, req, preset.PriceIDs)
	return nil
}

func (s *Session) resolve(ctx context.Context, req *inflight, ids markets.PriceIDs) {
	quote, ok := s.resolver.ResolvePriceRatio(ctx, ids.Collateral, ids.Debt)
	res := PriceResult{RequestID: req.id, Strategy: req.strategy, Quote: quote, OK: ok}

	select {
	case s.results <- res:
	case <-ctx.Done():
		// Superseded or closed; nobody waits for this result.
	}
}

// ApplyPriceResult commits res if it belongs to the request currently in
// flight for the selected strategy, and reports whether it did. Results of
// superseded requests are discarded.
func (s *Session) ApplyPriceResult(res PriceResult) bool {
	if s.pending == nil || s.pending.id != res.RequestID || s.state.Strategy != res.Strategy {
		s.log.Debug().
			Str("request_id", res.RequestID.String()).
			Str("strategy", res.Strategy).
			Msg("Discarding stale price result")
		return false
	}

	s.pending.cancel()
	s.pending = nil
	s.state.LoadingPrices = false

	if res.OK {
		cfg := s.state.Config
		cfg.PriceRatio = res.Quote.Ratio
		s.state.Config = cfg
		s.state.Estimated = res.Quote.Estimated
	}
	return true
}

// SetField applies raw text input to a form field. Numeric fields read
// unparseable input as 0.
func (s *Session) SetField(name, raw string) error {
	cfg := s.state.Config
	switch name {
	case FieldInitialDeposit:
		cfg.InitialDeposit = calculator.ParseNumericInput(raw)
	case FieldPriceRatio:
		cfg.PriceRatio = calculator.ParseNumericInput(raw)
		s.state.Estimated = false
	case FieldSupplyAPY:
		cfg.SupplyAPY = calculator.ParseNumericInput(raw)
	case FieldBorrowAPY:
		cfg.BorrowAPY = calculator.ParseNumericInput(raw)
	case FieldLiquidationThreshold:
		cfg.LiquidationThreshold = calculator.ParseNumericInput(raw)
	case FieldCollateralToken, FieldDebtToken:
		if s.state.Strategy != markets.CustomStrategy {
			return ErrTokenLocked
		}
		if name == FieldCollateralToken {
			cfg.CollateralToken = raw
		} else {
			cfg.DebtToken = raw
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	s.state.Config = cfg
	return nil
}

// SetLeverage clamps v into the supported range and stores it.
func (s *Session) SetLeverage(v float64) {
	cfg := s.state.Config
	cfg.Leverage = calculator.ClampLeverage(v)
	s.state.Config = cfg

	if s.state.Mode == domain.ModeLeverage {
		s.state.TargetLTV = calculator.FormatTargetLTV(calculator.LeverageToLTV(cfg.Leverage))
	}
}

// SetMode switches the input mode. Neither leverage nor the LTV text change.
func (s *Session) SetMode(mode domain.InputMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	s.state.Mode = mode
	return nil
}

// SetTargetLTV stores the raw LTV text and commits the implied leverage when
// the text is an acceptable LTV. It reports whether leverage changed.
func (s *Session) SetTargetLTV(text string) bool {
	s.state.TargetLTV = text

	leverage, ok := calculator.ParseTargetLTV(text)
	if !ok {
		return false
	}
	s.SetLeverage(leverage)
	return true
}

// View returns the current state with its derived metrics.
func (s *Session) View() View {
	var result calculator.Result
	if s.evaluator != nil {
		result = s.evaluator.Evaluate(s.state.Config)
	} else {
		result = calculator.Evaluate(s.state.Config)
	}

	v := View{
		SessionID: s.id.String(),
		State:     s.state,
		Result:    result,
	}
	if pick, ok := calculator.ActiveQuickPick(s.state.Config.Leverage); ok {
		v.ActiveQuickPick = &pick
	} else if s.state.Config.Leverage == domain.MaxLeverage {
		maxPick := domain.MaxLeverage
		v.ActiveQuickPick = &maxPick
	}
	return v
}

// Close cancels any price resolution still in flight.
func (s *Session) Close() {
	s.cancelPending()
}

func (s *Session) cancelPending() {
	if s.pending != nil {
		s.pending.cancel()
		s.pending = nil
	}
}
