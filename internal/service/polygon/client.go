// Package polygon implements a MarketStream over the Polygon stocks WebSocket.
// The subscription set is fixed at connect time; a watchlist change means the
// caller closes this stream and dials a fresh one. There is no automatic
// reconnect: after a read failure the stream stays down until rebuilt.
package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"PaperDeck/internal/domain/models"
	"PaperDeck/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by the Polygon trades feed.
type Client struct {
	websocketURL string
	token        string
	logger       *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a Polygon MarketStream.
func New(websocketURL, token string, lgr *logger.Logger) *Client {
	return &Client{
		websocketURL: websocketURL,
		token:        token,
		logger:       lgr,
	}
}

// Connect dials the feed, authenticates and subscribes to trade events for the
// given symbols. Crypto pairs are not part of this feed; callers pass the
// equity subset only.
func (c *Client) Connect(ctx context.Context, symbols []string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return models.NewFault(models.FaultNetwork, "polygon connect", err)
	}

	auth := map[string]string{"action": "auth", "params": c.token}
	if err := conn.WriteJSON(auth); err != nil {
		_ = conn.Close()
		return models.NewFault(models.FaultNetwork, "polygon auth", err)
	}

	if len(symbols) > 0 {
		topics := make([]string, 0, len(symbols))
		for _, s := range symbols {
			topics = append(topics, "T."+s)
		}
		sub := map[string]string{"action": "subscribe", "params": strings.Join(topics, ",")}
		if err := conn.WriteJSON(sub); err != nil {
			_ = conn.Close()
			return models.NewFault(models.FaultNetwork, "polygon subscribe", err)
		}
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("polygon stream connected", logger.Int("symbols", len(symbols)))
	}
	return nil
}

// event is one entry of an inbound frame. Frames arrive as JSON arrays mixing
// trades with status messages; only ev "T" carries a trade.
type event struct {
	Ev  string  `json:"ev"`
	Sym string  `json:"sym"`
	P   float64 `json:"p"`
	T   int64   `json:"t"`
}

// Read streams trade ticks and errors until the connection fails or ctx is
// cancelled. Both channels close when the read loop exits.
func (c *Client) Read(ctx context.Context) (<-chan models.PriceTick, <-chan error) {
	ticks := make(chan models.PriceTick, 1024)
	errs := make(chan error, 1)

	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn == nil {
				errs <- models.NewFault(models.FaultNetwork, "polygon read", fmt.Errorf("not connected"))
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				c.connected = false
				c.mu.Unlock()
				errs <- models.NewFault(models.FaultNetwork, "polygon read", err)
				return
			}

			for _, tick := range ParseFrame(b) {
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

// ParseFrame extracts trade ticks from one inbound frame. Status and
// non-trade events are skipped; malformed frames yield nothing.
func ParseFrame(b []byte) []models.PriceTick {
	var events []event
	if err := json.Unmarshal(b, &events); err != nil {
		return nil
	}
	out := make([]models.PriceTick, 0, len(events))
	for _, e := range events {
		if e.Ev != "T" {
			continue
		}
		out = append(out, models.PriceTick{Symbol: e.Sym, Price: e.P, Timestamp: e.T})
	}
	return out
}

// Close tears the connection down. Safe to call on a never-connected client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
