package mlserve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPredictRequestAndResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models/lr-up:predict" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		var req predictReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.Instances) != 1 || len(req.Instances[0]) != 3 {
			t.Fatalf("instances = %v", req.Instances)
		}
		json.NewEncoder(w).Encode(predictResp{Predictions: [][]float64{{0.3, 0.7}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	p, err := c.Predict(context.Background(), "lr-up", []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if p != 0.7 {
		t.Fatalf("p = %v", p)
	}
}

func TestPredictMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(predictResp{Predictions: [][]float64{{0.9}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if _, err := c.Predict(context.Background(), "lr-up", []float64{1}); err == nil {
		t.Fatalf("single-column prediction must error")
	}
}

func TestPredictUnconfigured(t *testing.T) {
	c := NewClient("", time.Second)
	if _, err := c.Predict(context.Background(), "lr-up", nil); err == nil {
		t.Fatalf("empty base url must error")
	}
}
