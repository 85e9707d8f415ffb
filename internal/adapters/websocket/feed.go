package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"flowradar/internal/adapters/config"
	"flowradar/internal/domain/flow"
	"flowradar/pkg/errors"
	"flowradar/pkg/logger"
	"flowradar/pkg/reconnect"
)

// TradeHandler receives each decoded trade from the feed
type TradeHandler func(ctx context.Context, trade *flow.Trade) error

// tradeMessage is the feed's wire format for one options print
type tradeMessage struct {
	Symbol       string  `json:"symbol"`
	Underlying   string  `json:"underlying"`
	Type         string  `json:"type"`
	Strike       float64 `json:"strike"`
	ExpirationMS int64   `json:"expiration_ms"`
	Price        float64 `json:"price"`
	Size         int     `json:"size"`
	TimestampMS  int64   `json:"timestamp_ms"`
	Exchange     string  `json:"exchange"`
	Side         string  `json:"side"`
	Aggressive   bool    `json:"aggressive"`
	Opening      bool    `json:"opening"`
	Sentiment    string  `json:"sentiment"`
	Spot         float64 `json:"spot"`
	OpenInterest float64 `json:"open_interest"`
	IV           float64 `json:"iv"`
}

// FeedClient maintains a websocket subscription to an options trade
// feed, decoding prints and handing them to the trade handler. The
// reconnect manager drives backoff when the connection drops.
type FeedClient struct {
	cfg       config.FeedConfig
	handler   TradeHandler
	reconnect *reconnect.Manager
	log       *logger.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewFeedClient creates a feed client
func NewFeedClient(cfg config.FeedConfig, handler TradeHandler) *FeedClient {
	log := logger.Get().With("component", "feed", "url", cfg.URL)
	return &FeedClient{
		cfg:       cfg,
		handler:   handler,
		reconnect: reconnect.NewManager(reconnect.Config{}, log),
		log:       log,
	}
}

// Run connects and consumes the feed until ctx is cancelled,
// reconnecting with backoff on every drop
func (f *FeedClient) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := f.connect(ctx); err != nil {
			f.log.Warnw("connect failed", "error", err)
			if rerr := f.reconnect.Reconnect(ctx, f.connect); rerr != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if !f.reconnect.ShouldRetry() {
					return errors.Wrap(errors.ErrFeedDisconnected, "retries exhausted")
				}
				continue
			}
		}

		if err := f.readLoop(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warnw("feed dropped", "error", err)
			f.reconnect.RecordFailure()
		}
	}
}

func (f *FeedClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: f.cfg.Timeout}
	conn, _, err := dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return errors.Wrap(err, "dial feed")
	}

	if len(f.cfg.Symbols) > 0 {
		sub := map[string]interface{}{"action": "subscribe", "symbols": f.cfg.Symbols}
		if err := conn.WriteJSON(sub); err != nil {
			conn.Close()
			return errors.Wrap(err, "subscribe")
		}
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	f.reconnect.RecordSuccess()
	f.log.Infow("feed connected", "symbols", len(f.cfg.Symbols))
	return nil
}

func (f *FeedClient) readLoop(ctx context.Context) error {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	if conn == nil {
		return errors.ErrFeedDisconnected
	}
	defer conn.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(errors.ErrFeedDisconnected, err.Error())
		}
		f.reconnect.RecordMessage()

		trade, err := decodeTrade(data)
		if err != nil {
			f.log.Warnw("undecodable message", "error", err)
			continue
		}

		if err := f.handler(ctx, trade); err != nil {
			f.log.Warnw("trade handler failed", "symbol", trade.Symbol, "error", err)
		}
	}
}

// Healthy reports feed liveness for the health endpoint
func (f *FeedClient) Healthy() bool {
	return f.reconnect.Healthy()
}

// Close tears down the current connection
func (f *FeedClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	return err
}

// decodeTrade maps one wire message onto a Trade
func decodeTrade(data []byte) (*flow.Trade, error) {
	var msg tradeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.Wrap(errors.ErrFeedDecode, err.Error())
	}

	var optType flow.OptionType
	switch msg.Type {
	case "call", "C":
		optType = flow.Call
	case "put", "P":
		optType = flow.Put
	default:
		return nil, errors.Wrapf(errors.ErrFeedDecode, "unknown option type %q", msg.Type)
	}

	var side flow.ExecutionSide
	switch msg.Side {
	case "bid":
		side = flow.SideBid
	case "ask":
		side = flow.SideAsk
	case "mid":
		side = flow.SideMid
	default:
		return nil, errors.Wrapf(errors.ErrFeedDecode, "unknown side %q", msg.Side)
	}

	return &flow.Trade{
		Symbol:       msg.Symbol,
		Underlying:   msg.Underlying,
		Type:         optType,
		Strike:       msg.Strike,
		Expiration:   time.UnixMilli(msg.ExpirationMS).UTC(),
		Price:        msg.Price,
		Premium:      msg.Price * flow.ContractMultiplier,
		Size:         msg.Size,
		Timestamp:    time.UnixMilli(msg.TimestampMS).UTC(),
		Exchange:     msg.Exchange,
		Side:         side,
		Aggressive:   msg.Aggressive,
		Opening:      msg.Opening,
		Sentiment:    flow.Sentiment(msg.Sentiment),
		Spot:         msg.Spot,
		OpenInterest: msg.OpenInterest,
		IV:           msg.IV,
	}, nil
}
