package api

import (
	models "PaperDeck/internal/domain/models"
	"PaperDeck/internal/service/ratelimit"
	"PaperDeck/internal/state"
	"PaperDeck/internal/usecase"
	xhttp "PaperDeck/pkg/http"
	xlogger "PaperDeck/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketEchoHandler serves the dashboard view and order endpoints.
type MarketEchoHandler struct {
	logger    *xlogger.Logger
	store     *state.Store
	monitor   *usecase.Monitor
	collector *usecase.PriceCollector
	alerts    *usecase.AlertDispatcher
	limiter   *ratelimit.Limiter
}

func NewMarketEchoHandler(
	logger *xlogger.Logger,
	store *state.Store,
	monitor *usecase.Monitor,
	collector *usecase.PriceCollector,
	alerts *usecase.AlertDispatcher,
	limiter *ratelimit.Limiter,
) *MarketEchoHandler {
	return &MarketEchoHandler{
		logger:    logger,
		store:     store,
		monitor:   monitor,
		collector: collector,
		alerts:    alerts,
		limiter:   limiter,
	}
}

func (h *MarketEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/market", h.Market)
	g.GET("/ticker/:symbol", h.Ticker)
	g.GET("/alerts", h.Alerts)
	g.GET("/health", h.Health)
	g.POST("/buy", h.Buy)
	g.POST("/sell", h.Sell)
}

// marketView is the full dashboard snapshot.
type marketView struct {
	Watchlist []tickerRow                   `json:"watchlist"`
	Positions []models.EnrichedPosition     `json:"positions"`
	Account   models.Account                `json:"account"`
	Settings  models.Settings               `json:"settings"`
	Sources   map[string]state.SourceStatus `json:"sources"`
}

type tickerRow struct {
	Ticker    string              `json:"ticker"`
	Crypto    bool                `json:"crypto"`
	Price     *float64            `json:"price"`
	Signals   *models.SignalState `json:"signals,omitempty"`
	NetScore  *float64            `json:"net_score,omitempty"`
	Inference models.InferenceSet `json:"inferences,omitempty"`
}

// Market returns the whole dashboard state in one response.
func (h *MarketEchoHandler) Market(c echo.Context) error {
	watchlist := h.store.Watchlist()
	rows := make([]tickerRow, 0, len(watchlist))
	for _, symbol := range watchlist {
		row := tickerRow{Ticker: symbol, Crypto: models.IsCrypto(symbol)}
		if p, ok := h.store.Price(symbol); ok {
			row.Price = &p
		}
		// crypto symbols carry no indicator-derived state
		if view, ok := h.store.TickerView(symbol); ok {
			row.Signals = &view.Signals
			row.Inference = view.Inferences
			net := view.NetScore
			row.NetScore = &net
		}
		rows = append(rows, row)
	}

	return xhttp.SuccessResponse(c, marketView{
		Watchlist: rows,
		Positions: h.store.Enriched(),
		Account:   h.store.Account(),
		Settings:  h.store.Settings(),
		Sources:   h.store.Sources(),
	})
}

// Ticker returns the derived state for one symbol.
func (h *MarketEchoHandler) Ticker(c echo.Context) error {
	req := &models.TickerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, ok := h.store.TickerView(req.Symbol)
	if !ok {
		return xhttp.NotFoundResponse(c, "no data for symbol")
	}
	return xhttp.SuccessResponse(c, view)
}

// Alerts returns the most recent edge-trigger alerts.
func (h *MarketEchoHandler) Alerts(c echo.Context) error {
	req := &models.AlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.alerts.Recent(req.Limit))
}

// Health reports stream and source freshness.
func (h *MarketEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"stream_connected": h.collector.IsConnected(),
		"sources":          h.store.Sources(),
	})
}

// Buy submits a paper buy order.
func (h *MarketEchoHandler) Buy(c echo.Context) error {
	return h.order(c, models.OrderBuy)
}

// Sell submits a paper sell order.
func (h *MarketEchoHandler) Sell(c echo.Context) error {
	return h.order(c, models.OrderSell)
}

func (h *MarketEchoHandler) order(c echo.Context, side models.OrderSide) error {
	if h.limiter != nil && !h.limiter.Allow("orders:"+c.RealIP(), 5, 1) {
		return xhttp.DataResponse(c, 429, "too many orders")
	}

	req := &models.OrderRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	order := models.Order{Ticker: req.Ticker, Qty: req.Qty, Price: req.Price}
	var (
		result models.OrderResult
		err    error
	)
	if side == models.OrderSell {
		result, err = h.monitor.Sell(c.Request().Context(), order)
	} else {
		result, err = h.monitor.Buy(c.Request().Context(), order)
	}
	if err != nil {
		if h.logger != nil {
			h.logger.Error("order failed", xlogger.String("side", string(side)), xlogger.Error(err))
		}
		if models.FaultKindOf(err) == models.FaultServer {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, result)
}
