package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPair(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BTC", "BTCUSDT"},
		{"btc", "BTCUSDT"},
		{" eth ", "ETHUSDT"},
		{"BTCUSDT", "BTCUSDT"},
	}
	for _, tt := range tests {
		if got := Pair(tt.in); got != tt.want {
			t.Errorf("Pair(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetPrice_ParsesResponse(t *testing.T) {
	var capturedQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		capturedQuery = r.URL.Query().Get("symbol")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"64230.15000000"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quote, err := client.GetPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}

	if capturedQuery != "BTCUSDT" {
		t.Errorf("expected symbol query BTCUSDT, got %s", capturedQuery)
	}
	if quote.Symbol != "BTC" {
		t.Errorf("expected symbol BTC, got %s", quote.Symbol)
	}
	if quote.Pair != "BTCUSDT" {
		t.Errorf("expected pair BTCUSDT, got %s", quote.Pair)
	}
	if quote.Price != "64230.15000000" {
		t.Errorf("expected price 64230.15000000, got %s", quote.Price)
	}
	if quote.ObservedAt.IsZero() {
		t.Error("expected observation time to be set")
	}
}

func TestGetTicker24h_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"symbol":"ETHUSDT","lastPrice":"3210.50","priceChange":"-77.10","priceChangePercent":"-2.345","highPrice":"3350.00","lowPrice":"3150.00","volume":"120345.77"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quote, err := client.GetTicker24h(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("GetTicker24h failed: %v", err)
	}

	if quote.Symbol != "ETH" {
		t.Errorf("expected symbol ETH, got %s", quote.Symbol)
	}
	if quote.Price != "3210.50" {
		t.Errorf("expected price 3210.50, got %s", quote.Price)
	}
	if quote.Change24h != "-77.10" {
		t.Errorf("expected 24h change -77.10, got %s", quote.Change24h)
	}
	if quote.ChangePercent != "-2.345" {
		t.Errorf("expected change -2.345, got %s", quote.ChangePercent)
	}
	if quote.HighPrice != "3350.00" || quote.LowPrice != "3150.00" {
		t.Errorf("unexpected high/low %s/%s", quote.HighPrice, quote.LowPrice)
	}
}

func TestGetTickers24h_BatchQuery(t *testing.T) {
	var capturedSymbols string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedSymbols = r.URL.Query().Get("symbols")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"symbol":"BTCUSDT","lastPrice":"64000","priceChangePercent":"1.2"},{"symbol":"ETHUSDT","lastPrice":"3200","priceChangePercent":"-0.8"}]`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quotes, err := client.GetTickers24h(context.Background(), []string{"BTC", "ETH"})
	if err != nil {
		t.Fatalf("GetTickers24h failed: %v", err)
	}

	if capturedSymbols != `["BTCUSDT","ETHUSDT"]` {
		t.Errorf("unexpected symbols query %s", capturedSymbols)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	if quotes[0].Symbol != "BTC" || quotes[1].Symbol != "ETH" {
		t.Errorf("unexpected symbols %s/%s", quotes[0].Symbol, quotes[1].Symbol)
	}
}

func TestGetTickers24h_EmptyInput(t *testing.T) {
	client := NewClient()
	quotes, err := client.GetTickers24h(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if quotes != nil {
		t.Errorf("expected nil quotes, got %v", quotes)
	}
}

func TestGetPrice_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.GetPrice(context.Background(), "NOPE")
	if err == nil {
		t.Fatal("expected error for invalid symbol")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", apiErr.StatusCode)
	}
}

func TestGetPrice_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithTimeout(100*time.Millisecond))
	_, err := client.GetPrice(context.Background(), "BTC")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
