package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PaperDeck/internal/domain/models"
	"PaperDeck/internal/scheduler"
	"PaperDeck/internal/state"
	"PaperDeck/internal/usecase"

	"github.com/labstack/echo/v4"
)

type stubBrokerage struct {
	err error
}

func (s *stubBrokerage) Watchlist(ctx context.Context) (models.Watchlist, error) {
	return nil, s.err
}
func (s *stubBrokerage) Positions(ctx context.Context) ([]models.Position, error) {
	return nil, s.err
}
func (s *stubBrokerage) Stats(ctx context.Context) (models.Account, error) {
	return models.Account{}, s.err
}
func (s *stubBrokerage) Buy(ctx context.Context, o models.Order) (models.OrderResult, error) {
	return models.OrderResult{Ticker: o.Ticker, Qty: o.Qty, Price: o.Price, Status: "filled"}, s.err
}
func (s *stubBrokerage) Sell(ctx context.Context, o models.Order) (models.OrderResult, error) {
	return models.OrderResult{Ticker: o.Ticker, Qty: o.Qty, Price: o.Price, Status: "filled"}, s.err
}

type tickingClock struct{}

func (tickingClock) Now() time.Time { return time.Now() }

func newTestHandler(store *state.Store) *MarketEchoHandler {
	sched := scheduler.New(tickingClock{}, scheduler.DefaultConfig())
	monitor := usecase.NewMonitor(sched, nil, nil, nil, &stubBrokerage{}, store, nil)
	alerts := usecase.NewAlertDispatcher(nil, 10, nil)
	return NewMarketEchoHandler(nil, store, monitor, usecase.NewPriceCollector(nil, store, nil, nil, nopMetrics{}, nil), alerts, nil)
}

type nopMetrics struct{}

func (nopMetrics) RecordRefresh(string)            {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}
func (nopMetrics) RecordSignal(string, bool)       {}

func doRequest(h *MarketEchoHandler, method, target, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMarketViewIncludesCryptoWithoutIndicators(t *testing.T) {
	store := state.NewStore()
	store.SetWatchlist(models.Watchlist{"NVDA", "BTC-USD"})
	v := 20.0
	store.MergeStats("NVDA", models.TickerStats{"1min": {Value: &v}}, 1)
	store.SetDerived("NVDA", models.SignalState{Ticker: "NVDA", HasSignal: true}, nil)

	rec := doRequest(newTestHandler(store), http.MethodGet, "/api/market", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Watchlist []struct {
				Ticker  string           `json:"ticker"`
				Crypto  bool             `json:"crypto"`
				Signals *json.RawMessage `json:"signals"`
			} `json:"watchlist"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Watchlist) != 2 {
		t.Fatalf("watchlist rows = %v", resp.Data.Watchlist)
	}
	for _, row := range resp.Data.Watchlist {
		switch row.Ticker {
		case "NVDA":
			if row.Crypto || row.Signals == nil {
				t.Fatalf("equity row = %+v", row)
			}
		case "BTC-USD":
			if !row.Crypto || row.Signals != nil {
				t.Fatalf("crypto row must carry no indicator state: %+v", row)
			}
		}
	}
}

func TestTickerNotFound(t *testing.T) {
	rec := doRequest(newTestHandler(state.NewStore()), http.MethodGet, "/api/ticker/ZZZZ", "")
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("status = %d", resp.Status)
	}
}

func TestBuyValidatesRequest(t *testing.T) {
	rec := doRequest(newTestHandler(state.NewStore()), http.MethodPost, "/api/buy", `{"ticker":"NVDA","qty":0}`)
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("zero qty must fail validation, status = %d", resp.Status)
	}
}

func TestBuyDefaultsToStreamedPrice(t *testing.T) {
	store := state.NewStore()
	epoch := store.NewPriceEpoch()
	store.ApplyTick(epoch, models.PriceTick{Symbol: "NVDA", Price: 117.5, Timestamp: 1})

	rec := doRequest(newTestHandler(store), http.MethodPost, "/api/buy", `{"ticker":"NVDA","qty":2}`)
	var resp struct {
		Status int                `json:"status"`
		Data   models.OrderResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusOK || resp.Data.Price != 117.5 {
		t.Fatalf("resp = %+v", resp)
	}
}
