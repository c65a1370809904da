// Package paperapi is the REST client for the paper-trading backend. All
// durable trading state lives on the server side; this client only shuttles
// requests and never retries on its own.
package paperapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"PaperDeck/internal/domain/models"
	xhttp "PaperDeck/pkg/http"
	"PaperDeck/pkg/logger"
)

// ClientOption configures Client.
type ClientOption func(*Client)

// Client talks to the paper-trading REST API for one project.
type Client struct {
	baseURL string
	project string
	http    *xhttp.Client
	logger  *logger.Logger
	timeout time.Duration
}

// NewClient creates a paper API client.
func NewClient(baseURL, project string, lgr *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		project: project,
		logger:  lgr,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = xhttp.NewClient(xhttp.WithTimeout(c.timeout))
	return c
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// Watchlist fetches the project watchlist.
func (c *Client) Watchlist(ctx context.Context) (models.Watchlist, error) {
	var out struct {
		Watchlist []string `json:"watchlist"`
	}
	body := map[string]string{
		"project": c.project,
		"action":  "list",
	}
	if err := c.post(ctx, "/trade/watchlist", body, &out); err != nil {
		return nil, err
	}
	return models.Watchlist(out.Watchlist), nil
}

// Positions fetches the current open positions.
func (c *Client) Positions(ctx context.Context) ([]models.Position, error) {
	var out struct {
		Positions []models.Position `json:"positions"`
	}
	if err := c.get(ctx, "/trade/positions", nil, &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

// Stats fetches the account aggregates.
func (c *Client) Stats(ctx context.Context) (models.Account, error) {
	var out models.Account
	if err := c.get(ctx, "/trade/stats", nil, &out); err != nil {
		return models.Account{}, err
	}
	return out, nil
}

// Buy submits a paper buy order.
func (c *Client) Buy(ctx context.Context, order models.Order) (models.OrderResult, error) {
	return c.submit(ctx, "/trade/buy", order)
}

// Sell submits a paper sell order.
func (c *Client) Sell(ctx context.Context, order models.Order) (models.OrderResult, error) {
	return c.submit(ctx, "/trade/sell", order)
}

func (c *Client) submit(ctx context.Context, path string, order models.Order) (models.OrderResult, error) {
	var out models.OrderResult
	body := map[string]interface{}{
		"project": c.project,
		"ticker":  order.Ticker,
		"qty":     order.Qty,
		"price":   order.Price,
	}
	if err := c.post(ctx, path, body, &out); err != nil {
		return models.OrderResult{}, err
	}
	return out, nil
}

// BatchStats fetches indicator snapshots for a batch of symbols in one call.
// Symbols are joined comma-separated; the response maps symbol to per-timeframe
// snapshots.
func (c *Client) BatchStats(ctx context.Context, symbols []string) (map[string]models.TickerStats, error) {
	if len(symbols) == 0 {
		return map[string]models.TickerStats{}, nil
	}
	out := make(map[string]models.TickerStats, len(symbols))
	query := map[string][]string{
		"symbols": {strings.Join(symbols, ",")},
	}
	if err := c.get(ctx, "/data/stats", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if query == nil {
		query = map[string][]string{}
	}
	query["project"] = []string{c.project}
	return c.do(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: query,
	}, path, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest interface{}) error {
	return c.do(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + path,
		Body:   body,
	}, path, dest)
}

func (c *Client) do(ctx context.Context, opts *xhttp.RequestOptions, op string, dest interface{}) error {
	resp, err := c.http.SendRequest(ctx, opts)
	if err != nil {
		return models.NewFault(models.FaultNetwork, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if c.logger != nil {
			c.logger.Warn("paper api rejected request",
				logger.String("op", op),
				logger.Int("status", resp.StatusCode))
		}
		return models.NewFault(models.FaultServer, op,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	if dest == nil {
		return nil
	}
	if err := decodeJSON(resp, dest); err != nil {
		return models.NewFault(models.FaultServer, op, err)
	}
	return nil
}

func decodeJSON(resp *http.Response, dest interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
