package server

import (
	"net/http"
)

// handleAiStrategy handles GET /api/trading/ai/strategy.
func (s *Server) handleAiStrategy(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	advice, err := s.app.AdvisorService.Strategy(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, advice)
}

// handleAiDetailedAdvice handles GET /api/trading/ai/detailed-advice.
func (s *Server) handleAiDetailedAdvice(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	advice, err := s.app.AdvisorService.DetailedAdvice(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, advice)
}

// handleAiSignal handles GET /api/trading/ai/signal/{symbol}.
func (s *Server) handleAiSignal(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := PathParam(r, "/api/trading/ai/signal/", "")
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required in path")
		return
	}

	signal, err := s.app.AdvisorService.Signal(r.Context(), symbol)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, signal)
}

// handleAiSpecificAdvice handles GET /api/trading/ai/specific-advice/{accountName}.
func (s *Server) handleAiSpecificAdvice(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	name := PathParam(r, "/api/trading/ai/specific-advice/", "")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "account name is required in path")
		return
	}

	advice, err := s.app.AdvisorService.Advise(r.Context(), name)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, advice)
}

// handleAiRecommendations handles GET /api/trading/ai/recommendations/{accountName}.
func (s *Server) handleAiRecommendations(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	name := PathParam(r, "/api/trading/ai/recommendations/", "")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "account name is required in path")
		return
	}

	recs, err := s.app.AdvisorService.Recommendations(r.Context(), name)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, recs)
}

// handleAiQuickSignals handles GET /api/trading/ai/quick-signals?accountName=.
func (s *Server) handleAiQuickSignals(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	signals, err := s.app.AdvisorService.QuickSignals(r.Context(), r.URL.Query().Get("accountName"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, signals)
}

// handleAiBalance handles GET /api/trading/ai/balance.
func (s *Server) handleAiBalance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if s.app.DeepSeekClient == nil || !s.app.DeepSeekClient.Configured() {
		WriteError(w, http.StatusBadGateway, "DeepSeek provider is not configured")
		return
	}

	balance, err := s.app.DeepSeekClient.GetBalance(r.Context())
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	WriteData(w, http.StatusOK, balance)
}
