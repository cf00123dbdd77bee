package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rferrell/papertrade/internal/models"
)

// handlePrice handles GET /api/trading/price/{symbol}.
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/trading/price/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required in path")
		return
	}

	quote, err := s.app.MarketService.ResolvePrice(r.Context(), symbol)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, quote)
}

// handleMarketData handles GET /api/trading/market-data.
func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	quotes, err := s.app.MarketService.LatestAll(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, quotes)
}

// handleAccountCreate handles POST /api/trading/account/create.
func (s *Server) handleAccountCreate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	name := strings.TrimSpace(r.FormValue("accountName"))
	if name == "" {
		WriteError(w, http.StatusBadRequest, "accountName is required")
		return
	}

	balance, ok := parseBalanceParam(w, r.FormValue("initialBalance"))
	if !ok {
		return
	}

	account, err := s.app.LedgerService.CreateAccount(r.Context(), name, balance)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, account)
}

// handleAccountReset handles POST /api/trading/account/reset.
func (s *Server) handleAccountReset(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	name := strings.TrimSpace(r.FormValue("accountName"))
	if name == "" {
		WriteError(w, http.StatusBadRequest, "accountName is required")
		return
	}

	balance, ok := parseBalanceParam(w, r.FormValue("initialBalance"))
	if !ok {
		return
	}

	account, err := s.app.LedgerService.ResetAccount(r.Context(), name, balance)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, account)
}

// handleAccount handles GET and DELETE /api/trading/account/{name}.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	name := PathParam(r, "/api/trading/account/", "")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "account name is required in path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := s.app.LedgerService.GetAccount(r.Context(), name, true)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteData(w, http.StatusOK, view)
	case http.MethodDelete:
		deleted, err := s.app.LedgerService.DeleteAccount(r.Context(), name)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		if !deleted {
			WriteError(w, http.StatusNotFound, models.ErrAccountNotFound.Error())
			return
		}
		WriteData(w, http.StatusOK, map[string]string{"message": "account deleted"})
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodDelete)
	}
}

// handleTradeBuy handles POST /api/trading/trade/buy.
func (s *Server) handleTradeBuy(w http.ResponseWriter, r *http.Request) {
	s.executeTrade(w, r, models.SideBuy)
}

// handleTradeSell handles POST /api/trading/trade/sell.
func (s *Server) handleTradeSell(w http.ResponseWriter, r *http.Request) {
	s.executeTrade(w, r, models.SideSell)
}

func (s *Server) executeTrade(w http.ResponseWriter, r *http.Request, side string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req := &models.TradeRequest{
		AccountName: strings.TrimSpace(r.FormValue("accountName")),
		Symbol:      strings.TrimSpace(r.FormValue("symbol")),
		Side:        side,
		Quantity:    strings.TrimSpace(r.FormValue("quantity")),
		Strategy:    strings.TrimSpace(r.FormValue("strategy")),
	}

	if req.AccountName == "" {
		WriteError(w, http.StatusBadRequest, "accountName is required")
		return
	}
	if req.Symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.Quantity == "" {
		WriteError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	trade, err := s.app.LedgerService.ExecuteTrade(r.Context(), req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, trade)
}

// handleTradeHistory handles GET /api/trading/trade/history/{name}.
func (s *Server) handleTradeHistory(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	trades, err := s.app.HistoryService.Trades(r.Context(), name, r.URL.Query().Get("symbol"), queryInt(r, "limit", 0))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, trades)
}

// handleTradeHistoryAll handles GET /api/trading/trade/history/all.
func (s *Server) handleTradeHistoryAll(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	trades, err := s.app.HistoryService.AllTrades(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, trades)
}

// parseBalanceParam parses an optional balance parameter. Empty means "use
// the default"; a malformed or negative value is rejected.
func parseBalanceParam(w http.ResponseWriter, raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, true
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "initialBalance is not a valid number")
		return decimal.Zero, false
	}
	if balance.IsNegative() {
		WriteError(w, http.StatusBadRequest, "initialBalance must not be negative")
		return decimal.Zero, false
	}
	return balance, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
