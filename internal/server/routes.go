package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/rferrell/papertrade/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Trading
	mux.HandleFunc("/api/trading/price/", s.handlePrice)
	mux.HandleFunc("/api/trading/market-data", s.handleMarketData)
	mux.HandleFunc("/api/trading/account/create", s.handleAccountCreate)
	mux.HandleFunc("/api/trading/account/reset", s.handleAccountReset)
	mux.HandleFunc("/api/trading/account/", s.handleAccount)
	mux.HandleFunc("/api/trading/trade/buy", s.handleTradeBuy)
	mux.HandleFunc("/api/trading/trade/sell", s.handleTradeSell)
	mux.HandleFunc("/api/trading/trade/history/", s.routeTradeHistory)

	// AI advice
	mux.HandleFunc("/api/trading/ai/strategy", s.handleAiStrategy)
	mux.HandleFunc("/api/trading/ai/detailed-advice", s.handleAiDetailedAdvice)
	mux.HandleFunc("/api/trading/ai/signal/", s.handleAiSignal)
	mux.HandleFunc("/api/trading/ai/specific-advice/", s.handleAiSpecificAdvice)
	mux.HandleFunc("/api/trading/ai/recommendations/", s.handleAiRecommendations)
	mux.HandleFunc("/api/trading/ai/quick-signals", s.handleAiQuickSignals)
	mux.HandleFunc("/api/trading/ai/balance", s.handleAiBalance)

	// Charts
	mux.HandleFunc("/api/charts/price-history", s.handlePriceHistoryChart)
	mux.HandleFunc("/api/charts/account-value-history", s.handleValueHistoryChart)
	mux.HandleFunc("/api/charts/portfolio-distribution", s.handleDistributionChart)
}

// routeTradeHistory dispatches /api/trading/trade/history/{name} with "all"
// reserved for the full ledger.
func (s *Server) routeTradeHistory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/trading/trade/history/")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "account name is required in path")
		return
	}
	if name == "all" {
		s.handleTradeHistoryAll(w, r)
		return
	}
	s.handleTradeHistory(w, r, name)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
