package paperapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"PaperDeck/internal/domain/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "deck", nil), srv
}

func TestWatchlistRequestShape(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trade/watchlist" || r.Method != http.MethodPost {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["project"] != "deck" || body["action"] != "list" {
			t.Fatalf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string][]string{"watchlist": {"NVDA", "BTC-USD"}})
	})

	w, err := c.Watchlist(context.Background())
	if err != nil {
		t.Fatalf("Watchlist() error = %v", err)
	}
	if !w.Equal(models.Watchlist{"NVDA", "BTC-USD"}) {
		t.Fatalf("watchlist = %v", w)
	}
}

func TestBatchStatsJoinsSymbols(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbols"); got != "NVDA,AMD" {
			t.Fatalf("symbols = %q", got)
		}
		if got := r.URL.Query().Get("project"); got != "deck" {
			t.Fatalf("project = %q", got)
		}
		v := 20.0
		json.NewEncoder(w).Encode(map[string]models.TickerStats{
			"NVDA": {"1min": {Value: &v}},
		})
	})

	stats, err := c.BatchStats(context.Background(), []string{"NVDA", "AMD"})
	if err != nil {
		t.Fatalf("BatchStats() error = %v", err)
	}
	if *stats["NVDA"]["1min"].Value != 20 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestBatchStatsEmptyBatchSkipsRequest(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected for an empty batch")
	})
	stats, err := c.BatchStats(context.Background(), nil)
	if err != nil || len(stats) != 0 {
		t.Fatalf("stats = %v, err = %v", stats, err)
	}
}

func TestServerRejectionFault(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"insufficient funds"}`, http.StatusUnprocessableEntity)
	})

	_, err := c.Buy(context.Background(), models.Order{Ticker: "NVDA", Qty: 1, Price: 100})
	if models.FaultKindOf(err) != models.FaultServer {
		t.Fatalf("fault kind = %v, err = %v", models.FaultKindOf(err), err)
	}
}

func TestNetworkFault(t *testing.T) {
	c, srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.Positions(context.Background())
	if models.FaultKindOf(err) != models.FaultNetwork {
		t.Fatalf("fault kind = %v, err = %v", models.FaultKindOf(err), err)
	}
}
