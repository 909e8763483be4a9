// Package stream connects to the Binance bookTicker WebSocket and pushes
// normalized ticks into a bounded queue. The socket reader never blocks on a
// slow consumer: a full queue drops the incoming tick. Disconnects trigger a
// fixed-delay reconnect loop that runs until the context is cancelled.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"sniperbot/internal/model"
)

const (
	defaultEndpoint = "wss://stream.binance.com:9443/ws"
	reconnectDelay  = 5 * time.Second
	readWait        = 70 * time.Second
	pingInterval    = 30 * time.Second
)

// Config holds the intake settings.
type Config struct {
	Symbol   string // e.g. "BTCUSDT"
	Endpoint string // base WS endpoint; defaults to Binance spot
}

// Intake streams bookTicker updates for one symbol.
type Intake struct {
	cfg Config
	log *slog.Logger

	// Optional metrics hooks.
	OnReconnect func()
	OnDrop      func()
	OnMalformed func()
	OnTick      func()
	OnConnState func(connected bool)
}

// NewIntake creates a tick intake for the configured symbol.
func NewIntake(cfg Config, log *slog.Logger) *Intake {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	return &Intake{cfg: cfg, log: log.With("component", "stream")}
}

// Run connects and streams ticks into tickCh until ctx is cancelled. Every
// connection failure waits a fixed delay and retries; the loop never gives
// up on its own.
func (in *Intake) Run(ctx context.Context, tickCh chan<- model.Tick) {
	url := fmt.Sprintf("%s/%s@bookTicker", in.cfg.Endpoint, strings.ToLower(in.cfg.Symbol))
	for {
		if err := in.streamOnce(ctx, url, tickCh); err != nil {
			in.log.Warn("stream disconnected", "err", err)
		}
		if in.OnConnState != nil {
			in.OnConnState(false)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
			if in.OnReconnect != nil {
				in.OnReconnect()
			}
			in.log.Info("reconnecting", "url", url)
		}
	}
}

// streamOnce holds one connection open and pumps messages until it fails or
// the context ends.
func (in *Intake) streamOnce(ctx context.Context, url string, tickCh chan<- model.Tick) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	in.log.Info("connected", "url", url)
	if in.OnConnState != nil {
		in.OnConnState(true)
	}

	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	// Ping loop doubles as the ctx watchdog: closing the conn unblocks
	// ReadMessage below.
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				deadline := time.Now().Add(5 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}
		tick, err := ParseBookTicker(raw)
		if err != nil {
			in.log.Warn("malformed message dropped", "err", err)
			if in.OnMalformed != nil {
				in.OnMalformed()
			}
			continue
		}
		if in.OnTick != nil {
			in.OnTick()
		}
		select {
		case tickCh <- tick:
		default:
			if in.OnDrop != nil {
				in.OnDrop()
			}
		}
	}
}

// bookTickerMsg is the raw bookTicker payload. The event time is absent on
// the spot stream, so it is optional here.
type bookTickerMsg struct {
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	BidPrice  string `json:"b"`
	BidQty    string `json:"B"`
	AskPrice  string `json:"a"`
	AskQty    string `json:"A"`
}

// ParseBookTicker converts a raw bookTicker frame into a Tick. The tick
// price is the bid/ask midpoint.
func ParseBookTicker(raw []byte) (model.Tick, error) {
	var msg bookTickerMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return model.Tick{}, fmt.Errorf("unmarshal: %w", err)
	}
	if msg.Symbol == "" {
		return model.Tick{}, fmt.Errorf("missing symbol")
	}
	bid, err := strconv.ParseFloat(msg.BidPrice, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("bid price %q: %w", msg.BidPrice, err)
	}
	ask, err := strconv.ParseFloat(msg.AskPrice, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("ask price %q: %w", msg.AskPrice, err)
	}
	bidQty, err := strconv.ParseFloat(msg.BidQty, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("bid qty %q: %w", msg.BidQty, err)
	}
	askQty, err := strconv.ParseFloat(msg.AskQty, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("ask qty %q: %w", msg.AskQty, err)
	}
	if bid <= 0 || ask <= 0 {
		return model.Tick{}, fmt.Errorf("non-positive quote bid=%v ask=%v", bid, ask)
	}

	ts := msg.EventTime
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	return model.Tick{
		Symbol:   msg.Symbol,
		Price:    (bid + ask) / 2,
		BidPrice: bid,
		BidQty:   bidQty,
		AskPrice: ask,
		AskQty:   askQty,
		TS:       ts,
	}, nil
}
