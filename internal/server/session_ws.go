package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/KingdomTeck/multiply/internal/domain"
	"github.com/KingdomTeck/multiply/internal/events"
	"github.com/KingdomTeck/multiply/internal/modules/markets"
	"github.com/KingdomTeck/multiply/internal/modules/prices"
	priceshandlers "github.com/KingdomTeck/multiply/internal/modules/prices/handlers"
	"github.com/KingdomTeck/multiply/internal/modules/session"
)

// Client message types.
const (
	msgSelectStrategy = "select_strategy"
	msgSetField       = "set_field"
	msgSetLeverage    = "set_leverage"
	msgSetMode        = "set_mode"
	msgSetTargetLTV   = "set_target_ltv"
	msgView           = "view"
)

// Server message types.
const (
	msgTypeView   = "view"
	msgTypePrices = "prices"
	msgTypeError  = "error"
)

const (
	defaultPingInterval = 30 * time.Second
	wsWriteTimeout      = 10 * time.Second
)

var (
	errUnknownMessage = errors.New("unknown message type")
	errShuttingDown   = errors.New("server shutting down")
)

// SnapshotProvider exposes the latest ticker snapshot.
type SnapshotProvider interface {
	Snapshot() prices.Snapshot
}

type clientMessage struct {
	Type     string  `json:"type" msgpack:"type"`
	Key      string  `json:"key,omitempty" msgpack:"key,omitempty"`
	Field    string  `json:"field,omitempty" msgpack:"field,omitempty"`
	Value    string  `json:"value,omitempty" msgpack:"value,omitempty"` // raw text as typed
	Leverage float64 `json:"leverage,omitempty" msgpack:"leverage,omitempty"`
	Mode     string  `json:"mode,omitempty" msgpack:"mode,omitempty"`
	Text     string  `json:"text,omitempty" msgpack:"text,omitempty"`

	decodeErr error
}

type pricesPayload struct {
	Tokens        []priceshandlers.TickerEntry `json:"tokens" msgpack:"tokens"`
	UsingFallback bool                         `json:"using_fallback" msgpack:"using_fallback"`
	UpdatedAt     time.Time                    `json:"updated_at" msgpack:"updated_at"`
}

type serverMessage struct {
	Type   string         `json:"type" msgpack:"type"`
	View   *session.View  `json:"view,omitempty" msgpack:"view,omitempty"`
	Prices *pricesPayload `json:"prices,omitempty" msgpack:"prices,omitempty"`
	Error  string         `json:"error,omitempty" msgpack:"error,omitempty"`
}

func viewMessage(v session.View) serverMessage {
	return serverMessage{Type: msgTypeView, View: &v}
}

func pricesMessage(snap prices.Snapshot) serverMessage {
	return serverMessage{Type: msgTypePrices, Prices: &pricesPayload{
		Tokens:        priceshandlers.Entries(snap),
		UsingFallback: snap.UsingFallback,
		UpdatedAt:     snap.UpdatedAt,
	}}
}

// SessionHandler serves calculator sessions over WebSocket. Each connection
// owns one session.Session and is its only goroutine of control.
type SessionHandler struct {
	resolver     session.PriceResolver
	evaluator    session.Evaluator
	ticker       SnapshotProvider
	bus          *events.Bus
	pingInterval time.Duration
	log          zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]context.CancelFunc
	closing  bool
}

// NewSessionHandler creates a session handler. ticker and bus may be nil.
func NewSessionHandler(
	resolver session.PriceResolver,
	evaluator session.Evaluator,
	ticker SnapshotProvider,
	bus *events.Bus,
	log zerolog.Logger,
) *SessionHandler {
	return &SessionHandler{
		resolver:     resolver,
		evaluator:    evaluator,
		ticker:       ticker,
		bus:          bus,
		pingInterval: defaultPingInterval,
		log:          log.With().Str("handler", "session_ws").Logger(),
		sessions:     make(map[uuid.UUID]context.CancelFunc),
	}
}

// ActiveSessions returns the number of connected sessions.
func (h *SessionHandler) ActiveSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// CloseAll ends every connected session and refuses new ones.
func (h *SessionHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closing = true
	for _, cancel := range h.sessions {
		cancel()
	}
}

// ServeHTTP handles GET /api/session/ws
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closing := h.closing
	h.mu.Unlock()
	if closing {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{subprotocolJSON, subprotocolMsgpack},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		// Accept has already written the HTTP error.
		h.log.Warn().Err(err).Msg("Failed to accept websocket connection")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected session failure")

	ctx, cancel := context.WithCancelCause(r.Context())
	defer cancel(nil)

	sess := session.New(h.resolver, h.evaluator, h.log)
	defer sess.Close()

	if !h.track(sess.ID(), func() { cancel(errShuttingDown) }) {
		conn.Close(websocket.StatusGoingAway, errShuttingDown.Error())
		return
	}
	defer h.untrack(sess.ID())

	codec := codecFor(conn.Subprotocol())
	client := &wsClient{
		conn:  conn,
		codec: codec,
		log: h.log.With().
			Str("session_id", sess.ID().String()).
			Str("subprotocol", codec.Name()).
			Logger(),
	}
	client.log.Info().Msg("Calculator session opened")

	priceUpdates := make(chan prices.Snapshot, 1)
	if h.bus != nil {
		unsubscribe := h.bus.Subscribe(events.PricesUpdated, func(e *events.Event) {
			data, ok := e.Data.(*events.PricesUpdatedData)
			if !ok {
				return
			}
			snap := prices.Snapshot{Prices: data.Prices, UsingFallback: data.UsingFallback, UpdatedAt: data.UpdatedAt}
			select {
			case priceUpdates <- snap:
			default:
				// Slow client; it gets the next tick.
			}
		})
		defer unsubscribe()
	}

	err = h.run(ctx, client, sess, priceUpdates)

	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		client.log.Info().Msg("Calculator session closed by client")
	case errors.Is(context.Cause(ctx), errShuttingDown):
		client.log.Info().Msg("Calculator session closed on shutdown")
		conn.Close(websocket.StatusGoingAway, errShuttingDown.Error())
	case errors.Is(err, context.Canceled):
		client.log.Info().Msg("Calculator session cancelled")
	default:
		client.log.Warn().Err(err).Msg("Calculator session ended with error")
	}
}

func (h *SessionHandler) track(id uuid.UUID, cancel context.CancelFunc) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing {
		return false
	}
	h.sessions[id] = cancel
	return true
}

func (h *SessionHandler) untrack(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// run drives one session until the connection fails or ctx ends.
func (h *SessionHandler) run(ctx context.Context, c *wsClient, sess *session.Session, priceUpdates <-chan prices.Snapshot) error {
	incoming := make(chan clientMessage)
	errs := make(chan error, 2)

	go func() { errs <- c.readLoop(ctx, incoming) }()
	go func() { errs <- c.heartbeat(ctx, h.pingInterval) }()

	if err := sess.SelectStrategy(ctx, markets.DefaultStrategy); err != nil {
		return err
	}
	if err := c.send(ctx, viewMessage(sess.View())); err != nil {
		return err
	}
	if h.ticker != nil {
		if snap := h.ticker.Snapshot(); !snap.UpdatedAt.IsZero() {
			if err := c.send(ctx, pricesMessage(snap)); err != nil {
				return err
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errs:
			return err

		case msg := <-incoming:
			if err := h.handleMessage(ctx, sess, msg); err != nil {
				c.log.Debug().Err(err).Str("type", msg.Type).Msg("Rejected session message")
				if err := c.send(ctx, serverMessage{Type: msgTypeError, Error: err.Error()}); err != nil {
					return err
				}
			}
			if err := c.send(ctx, viewMessage(sess.View())); err != nil {
				return err
			}

		case res := <-sess.Results():
			if !sess.ApplyPriceResult(res) {
				continue
			}
			h.publishResolved(sess, res)
			if err := c.send(ctx, viewMessage(sess.View())); err != nil {
				return err
			}

		case snap := <-priceUpdates:
			if err := c.send(ctx, pricesMessage(snap)); err != nil {
				return err
			}
		}
	}
}

func (h *SessionHandler) handleMessage(ctx context.Context, sess *session.Session, msg clientMessage) error {
	if msg.decodeErr != nil {
		return fmt.Errorf("invalid message: %w", msg.decodeErr)
	}

	switch msg.Type {
	case msgSelectStrategy:
		return sess.SelectStrategy(ctx, msg.Key)
	case msgSetField:
		return sess.SetField(msg.Field, msg.Value)
	case msgSetLeverage:
		sess.SetLeverage(msg.Leverage)
	case msgSetMode:
		return sess.SetMode(domain.InputMode(msg.Mode))
	case msgSetTargetLTV:
		sess.SetTargetLTV(msg.Text)
	case msgView:
	default:
		return fmt.Errorf("%w: %q", errUnknownMessage, msg.Type)
	}
	return nil
}

func (h *SessionHandler) publishResolved(sess *session.Session, res session.PriceResult) {
	if h.bus == nil || !res.OK {
		return
	}
	h.bus.Publish("session", &events.PriceRatioResolvedData{
		SessionID: sess.ID().String(),
		RequestID: res.RequestID.String(),
		Strategy:  res.Strategy,
		Ratio:     res.Quote.Ratio,
		Estimated: res.Quote.Estimated,
	})
}

// wsClient is the write side and reader of one connection.
type wsClient struct {
	conn  *websocket.Conn
	codec wireCodec
	log   zerolog.Logger
}

func (c *wsClient) readLoop(ctx context.Context, out chan<- clientMessage) error {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return err
		}

		var msg clientMessage
		if err := c.codec.Unmarshal(data, &msg); err != nil {
			msg = clientMessage{decodeErr: err}
		}

		select {
		case out <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *wsClient) heartbeat(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return fmt.Errorf("heartbeat failed: %w", err)
			}
		}
	}
}

// send writes msg. A message that cannot be encoded is replaced by an error
// message so the session stays usable.
func (c *wsClient) send(ctx context.Context, msg serverMessage) error {
	data, err := c.codec.Marshal(msg)
	if err != nil {
		c.log.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode session message")
		data, err = c.codec.Marshal(serverMessage{Type: msgTypeError, Error: "failed to encode " + msg.Type})
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return c.conn.Write(ctx, c.codec.MessageType(), data)
}
