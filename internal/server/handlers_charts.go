package server

import (
	"net/http"
	"strings"
	"time"
)

type pricePoint struct {
	Time   time.Time `json:"time"`
	Price  string    `json:"price"`
	Volume string    `json:"volume"`
}

type valuePoint struct {
	Time       time.Time `json:"time"`
	TotalValue string    `json:"total_value"`
}

// handlePriceHistoryChart handles GET /api/charts/price-history?symbol=&days=.
// format=png renders a line chart, anything else returns the series.
func (s *Server) handlePriceHistoryChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -queryInt(r, "days", 7))

	if r.URL.Query().Get("format") == "png" {
		png, err := s.app.MarketService.PriceChartPNG(r.Context(), symbol, since)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		writePNG(w, png)
		return
	}

	quotes, err := s.app.MarketService.History(r.Context(), symbol, since)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	points := make([]pricePoint, len(quotes))
	for i, q := range quotes {
		points[i] = pricePoint{Time: q.ObservedAt, Price: q.Price, Volume: q.Volume}
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"symbol": strings.ToUpper(symbol),
		"points": points,
	})
}

// handleValueHistoryChart handles GET /api/charts/account-value-history?accountName=&days=.
func (s *Server) handleValueHistoryChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("accountName"))
	if name == "" {
		WriteError(w, http.StatusBadRequest, "accountName is required")
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -queryInt(r, "days", 30))

	if r.URL.Query().Get("format") == "png" {
		png, err := s.app.ValuationService.ValueChartPNG(r.Context(), name, since)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		writePNG(w, png)
		return
	}

	history, err := s.app.ValuationService.History(r.Context(), name, since)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	points := make([]valuePoint, len(history))
	for i, p := range history {
		points[i] = valuePoint{Time: p.RecordedAt, TotalValue: p.TotalValue}
	}

	WriteData(w, http.StatusOK, map[string]interface{}{
		"account_name": name,
		"points":       points,
	})
}

// handleDistributionChart handles GET /api/charts/portfolio-distribution?accountName=.
func (s *Server) handleDistributionChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("accountName"))
	if name == "" {
		WriteError(w, http.StatusBadRequest, "accountName is required")
		return
	}

	slices, err := s.app.LedgerService.Distribution(r.Context(), name)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, slices)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
