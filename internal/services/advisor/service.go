// Package advisor generates trading advice: narrative commentary through
// a completion provider when one is reachable, and a threshold heuristic
// over 24h momentum otherwise.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/interfaces"
	"github.com/rferrell/papertrade/internal/models"
)

// HeuristicProvider names the built-in fallback in advice responses.
const HeuristicProvider = "heuristic"

var (
	maxBuyNotional = decimal.NewFromInt(1000)
	buyBalanceCut  = decimal.RequireFromString("0.2")
	sellHoldingCut = decimal.RequireFromString("0.3")
)

// Service implements interfaces.AdvisorService.
type Service struct {
	logger    *common.Logger
	storage   interfaces.StorageManager
	providers []interfaces.CompletionClient
}

// NewService creates an advisor. Providers are tried in order; a nil or
// empty slice leaves only the heuristic path.
func NewService(logger *common.Logger, storage interfaces.StorageManager, providers []interfaces.CompletionClient) *Service {
	return &Service{
		logger:    logger,
		storage:   storage,
		providers: providers,
	}
}

const systemPrompt = "You are a cryptocurrency trading advisor for a paper-trading account. " +
	"For every symbol give an explicit BUY, SELL, or HOLD call with a short reason, " +
	"a risk level, and for BUY calls a target and stop price. Reply as 'SYMBOL (SIGNAL): reason' lines."

// Advise generates narrative advice for an account. Completion providers
// are tried in order; when none answers, the heuristic fills in.
func (s *Service) Advise(ctx context.Context, accountName string) (*models.Advice, error) {
	account, err := s.storage.Ledger().GetAccount(ctx, accountName)
	if err != nil {
		return nil, err
	}

	holdings, err := s.storage.Ledger().ListHoldings(ctx, accountName)
	if err != nil {
		return nil, err
	}

	quotes, err := s.storage.Market().LatestQuotes(ctx)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, models.ErrQuoteUnavailable
	}

	prompt := buildAdvicePrompt(account, holdings, quotes)

	for _, provider := range s.providers {
		content, err := provider.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			s.logger.Warn().Str("provider", provider.Name()).Err(err).Msg("Completion provider failed, trying next")
			continue
		}
		return &models.Advice{
			AccountName: accountName,
			Provider:    provider.Name(),
			Content:     content,
			GeneratedAt: time.Now().UTC(),
		}, nil
	}

	s.logger.Info().Str("account", accountName).Msg("No completion provider reachable, using heuristic advice")

	recs := s.heuristicRecommendations(account, holdings, quotes)
	var sb strings.Builder
	for _, rec := range recs {
		sb.WriteString(formatRecommendation(&rec))
		sb.WriteString("\n")
	}
	return &models.Advice{
		AccountName: accountName,
		Provider:    HeuristicProvider,
		Content:     strings.TrimRight(sb.String(), "\n"),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Strategy generates a market-wide strategy overview across all tracked
// symbols.
func (s *Service) Strategy(ctx context.Context) (*models.Advice, error) {
	return s.marketAdvice(ctx, false)
}

// DetailedAdvice generates per-symbol market analysis with risk levels and
// target prices.
func (s *Service) DetailedAdvice(ctx context.Context) (*models.Advice, error) {
	return s.marketAdvice(ctx, true)
}

func (s *Service) marketAdvice(ctx context.Context, detailed bool) (*models.Advice, error) {
	quotes, err := s.storage.Market().LatestQuotes(ctx)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, models.ErrQuoteUnavailable
	}

	prompt := buildMarketPrompt(quotes, detailed)

	for _, provider := range s.providers {
		content, err := provider.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			s.logger.Warn().Str("provider", provider.Name()).Err(err).Msg("Completion provider failed, trying next")
			continue
		}
		return &models.Advice{
			Provider:    provider.Name(),
			Content:     content,
			GeneratedAt: time.Now().UTC(),
		}, nil
	}

	s.logger.Info().Msg("No completion provider reachable, using heuristic market advice")

	var sb strings.Builder
	for _, q := range quotes {
		change := q.ChangePercentFloat()
		sb.WriteString(fmt.Sprintf("%s (%s): %s\n", q.Symbol, heuristicSignal(change, false), heuristicReason(change)))
	}
	return &models.Advice{
		Provider:    HeuristicProvider,
		Content:     strings.TrimRight(sb.String(), "\n"),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

const signalSystemPrompt = "You are a cryptocurrency trading assistant. " +
	"Reply with exactly one word: BUY, SELL, or HOLD. No other text."

// Signal returns a single BUY/SELL/HOLD call for one symbol. Providers are
// asked first; an unparseable or failed reply falls back to the momentum
// table.
func (s *Service) Signal(ctx context.Context, symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	quote, err := s.storage.Market().LatestQuote(ctx, symbol)
	if err != nil {
		return "", err
	}
	if quote == nil {
		return "", models.ErrQuoteUnavailable
	}

	prompt := fmt.Sprintf("%s: price $%s, 24h change %s, 24h volume %s\nGive the trading signal.",
		quote.Symbol, quote.Price, changeSummary(quote), quote.Volume)

	for _, provider := range s.providers {
		content, err := provider.Complete(ctx, signalSystemPrompt, prompt)
		if err != nil {
			s.logger.Warn().Str("provider", provider.Name()).Err(err).Msg("Completion provider failed, trying next")
			continue
		}
		if action, ok := parseAction(content); ok {
			return action, nil
		}
		s.logger.Warn().Str("provider", provider.Name()).Str("reply", content).Msg("Unparseable signal reply")
	}

	return quickSignal(quote.ChangePercentFloat(), false), nil
}

// parseAction extracts the first BUY/SELL/HOLD token from a completion reply.
func parseAction(content string) (string, bool) {
	upper := strings.ToUpper(content)
	first := len(upper) + 1
	action := ""
	for _, candidate := range []string{models.ActionBuy, models.ActionSell, models.ActionHold} {
		if idx := strings.Index(upper, candidate); idx >= 0 && idx < first {
			first = idx
			action = candidate
		}
	}
	return action, action != ""
}

// Recommendations runs the decision table over the account's positions and
// the latest stored tickers.
func (s *Service) Recommendations(ctx context.Context, accountName string) ([]models.Recommendation, error) {
	account, err := s.storage.Ledger().GetAccount(ctx, accountName)
	if err != nil {
		return nil, err
	}

	holdings, err := s.storage.Ledger().ListHoldings(ctx, accountName)
	if err != nil {
		return nil, err
	}

	quotes, err := s.storage.Market().LatestQuotes(ctx)
	if err != nil {
		return nil, err
	}

	return s.heuristicRecommendations(account, holdings, quotes), nil
}

// QuickSignals classifies each symbol with the tighter momentum
// thresholds, biased by holdings when an account is named.
func (s *Service) QuickSignals(ctx context.Context, accountName string) ([]models.SymbolSignal, error) {
	held := map[string]bool{}
	if accountName != "" {
		holdings, err := s.storage.Ledger().ListHoldings(ctx, accountName)
		if err != nil {
			return nil, err
		}
		for _, h := range holdings {
			held[h.Symbol] = h.QuantityDecimal().IsPositive()
		}
	}

	quotes, err := s.storage.Market().LatestQuotes(ctx)
	if err != nil {
		return nil, err
	}

	signals := make([]models.SymbolSignal, 0, len(quotes))
	for _, q := range quotes {
		signals = append(signals, models.SymbolSignal{
			Symbol:        q.Symbol,
			Signal:        quickSignal(q.ChangePercentFloat(), held[q.Symbol]),
			ChangePercent: q.ChangePercent,
		})
	}
	return signals, nil
}

func (s *Service) heuristicRecommendations(account *models.Account, holdings []*models.Holding, quotes []*models.Quote) []models.Recommendation {
	heldQty := map[string]decimal.Decimal{}
	for _, h := range holdings {
		heldQty[h.Symbol] = h.QuantityDecimal()
	}

	balance := account.BalanceDecimal()
	recs := make([]models.Recommendation, 0, len(quotes))
	for _, q := range quotes {
		change := q.ChangePercentFloat()
		quantity := heldQty[q.Symbol]
		action := heuristicSignal(change, quantity.IsPositive())

		rec := models.Recommendation{
			Symbol: q.Symbol,
			Action: action,
			Reason: heuristicReason(change),
		}

		price := q.PriceDecimal()
		switch action {
		case models.ActionBuy:
			if price.IsPositive() {
				// Commit at most 20% of cash, capped at $1000.
				amount := decimal.Min(balance.Mul(buyBalanceCut), maxBuyNotional)
				rec.Amount = amount.StringFixed(2)
				rec.Quantity = amount.DivRound(price, 8).String()
			}
		case models.ActionSell:
			// Trim 30% of the position.
			rec.Quantity = quantity.Mul(sellHoldingCut).String()
		}

		recs = append(recs, rec)
	}
	return recs
}

// heuristicSignal is the decision table over the 24h change percentage.
func heuristicSignal(changePercent float64, held bool) string {
	switch {
	case changePercent > 5:
		if held {
			return models.ActionSell
		}
		return models.ActionHold
	case changePercent > 2:
		return models.ActionBuy
	case changePercent < -5:
		if held {
			return models.ActionHold
		}
		return models.ActionBuy
	case changePercent < -2:
		return models.ActionHold
	default:
		if held {
			return models.ActionHold
		}
		return models.ActionBuy
	}
}

// quickSignal is the tighter-threshold variant used for realtime readouts.
func quickSignal(changePercent float64, held bool) string {
	switch {
	case changePercent > 3:
		if held {
			return models.ActionSell
		}
		return models.ActionHold
	case changePercent > 1:
		return models.ActionBuy
	case changePercent < -3:
		if held {
			return models.ActionHold
		}
		return models.ActionBuy
	case changePercent < -1:
		return models.ActionHold
	default:
		if held {
			return models.ActionHold
		}
		return models.ActionBuy
	}
}

func heuristicReason(changePercent float64) string {
	switch {
	case changePercent > 5:
		return "sharp 24h rise, pullback risk"
	case changePercent > 2:
		return "moderate uptrend"
	case changePercent < -5:
		return "sharp 24h drop, possible oversold rebound"
	case changePercent < -2:
		return "mild decline, wait for direction"
	default:
		return "price stable, suitable for gradual entry"
	}
}

func formatRecommendation(rec *models.Recommendation) string {
	switch rec.Action {
	case models.ActionBuy:
		if rec.Amount != "" {
			return fmt.Sprintf("%s (BUY): %s; buy about $%s (%s %s)", rec.Symbol, rec.Reason, rec.Amount, rec.Quantity, rec.Symbol)
		}
		return fmt.Sprintf("%s (BUY): %s", rec.Symbol, rec.Reason)
	case models.ActionSell:
		return fmt.Sprintf("%s (SELL): %s; sell %s %s", rec.Symbol, rec.Reason, rec.Quantity, rec.Symbol)
	default:
		return fmt.Sprintf("%s (HOLD): %s", rec.Symbol, rec.Reason)
	}
}

// changeSummary formats the 24h movement. Quotes stored before the
// absolute change was recorded only carry the percentage.
func changeSummary(q *models.Quote) string {
	if q.Change24h == "" {
		return q.ChangePercent + "%"
	}
	return fmt.Sprintf("$%s (%s%%)", q.Change24h, q.ChangePercent)
}

func buildAdvicePrompt(account *models.Account, holdings []*models.Holding, quotes []*models.Quote) string {
	var sb strings.Builder

	sb.WriteString("Market snapshot:\n")
	for _, q := range quotes {
		sb.WriteString(fmt.Sprintf("- %s: price $%s, 24h change %s, 24h volume %s\n", q.Symbol, q.Price, changeSummary(q), q.Volume))
	}

	sb.WriteString(fmt.Sprintf("\nAccount %s: cash balance $%s\n", account.Name, account.Balance))
	if len(holdings) == 0 {
		sb.WriteString("No open positions.\n")
	} else {
		sb.WriteString("Open positions:\n")
		for _, h := range holdings {
			sb.WriteString(fmt.Sprintf("- %s: %s units, cost basis $%s\n", h.Symbol, h.Quantity, h.CostBasis))
		}
	}

	sb.WriteString("\nGive a BUY/SELL/HOLD call for every symbol above.")
	return sb.String()
}

func buildMarketPrompt(quotes []*models.Quote, detailed bool) string {
	var sb strings.Builder

	sb.WriteString("Market snapshot:\n")
	for _, q := range quotes {
		sb.WriteString(fmt.Sprintf("- %s: price $%s, 24h change %s, 24h volume %s\n", q.Symbol, q.Price, changeSummary(q), q.Volume))
	}

	if detailed {
		sb.WriteString("\nFor every symbol give a BUY/SELL/HOLD call with a detailed reason, " +
			"a risk level (high/medium/low), and for BUY calls a target and stop price.")
	} else {
		sb.WriteString("\nGive an overall trading strategy with a BUY/SELL/HOLD call for every symbol above.")
	}
	return sb.String()
}

// Ensure Service implements AdvisorService
var _ interfaces.AdvisorService = (*Service)(nil)
