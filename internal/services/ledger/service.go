// Package ledger implements the trading ledger: account lifecycle, trade
// execution, and portfolio readouts.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/interfaces"
	"github.com/rferrell/papertrade/internal/models"
)

// DefaultOpeningBalance is the cash balance applied when a caller creates
// or resets an account without naming one.
var DefaultOpeningBalance = decimal.NewFromInt(10000)

// Service implements interfaces.LedgerService.
type Service struct {
	logger  *common.Logger
	storage interfaces.StorageManager
	market  interfaces.MarketService

	// locks serializes trades and resets per account name.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a ledger service.
func NewService(logger *common.Logger, storage interfaces.StorageManager, market interfaces.MarketService) *Service {
	return &Service{
		logger:  logger,
		storage: storage,
		market:  market,
		locks:   make(map[string]*sync.Mutex),
	}
}

// accountLock returns the mutex for one account, creating it on first use.
func (s *Service) accountLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[name] = lock
	}
	return lock
}

func (s *Service) CreateAccount(ctx context.Context, name string, openingBalance decimal.Decimal) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("account name is required")
	}
	if openingBalance.IsZero() {
		openingBalance = DefaultOpeningBalance
	}
	if openingBalance.IsNegative() {
		return nil, fmt.Errorf("opening balance must not be negative")
	}

	now := time.Now().UTC()
	account := &models.Account{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	account.SetBalance(openingBalance)
	account.SetTotalValue(openingBalance)

	if err := s.storage.Ledger().CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info().Str("account", name).Str("balance", account.Balance).Msg("Account created")
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, name string, priced bool) (*models.AccountView, error) {
	account, err := s.storage.Ledger().GetAccount(ctx, name)
	if err != nil {
		return nil, err
	}

	holdings, err := s.storage.Ledger().ListHoldings(ctx, name)
	if err != nil {
		return nil, err
	}

	view := &models.AccountView{
		Account:  *account,
		Holdings: make([]models.Holding, len(holdings)),
	}
	for i, h := range holdings {
		view.Holdings[i] = *h
	}

	if priced {
		total := account.BalanceDecimal()
		for _, h := range holdings {
			quote, err := s.market.ResolvePrice(ctx, h.Symbol)
			if err != nil {
				s.logger.Warn().Str("account", name).Str("symbol", h.Symbol).Err(err).Msg("No price for held symbol, skipping")
				continue
			}
			total = total.Add(h.QuantityDecimal().Mul(quote.PriceDecimal()))
		}
		view.PricedValue = total.String()
	}

	return view, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	return s.storage.Ledger().ListAccounts(ctx)
}

func (s *Service) ExecuteTrade(ctx context.Context, req *models.TradeRequest) (*models.TradeRecord, error) {
	name := strings.TrimSpace(req.AccountName)
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	side := strings.ToUpper(strings.TrimSpace(req.Side))
	if name == "" || symbol == "" {
		return nil, fmt.Errorf("account name and symbol are required")
	}
	if side != models.SideBuy && side != models.SideSell {
		return nil, fmt.Errorf("unsupported trade side: %s", req.Side)
	}

	quantity, err := decimal.NewFromString(strings.TrimSpace(req.Quantity))
	if err != nil || !quantity.IsPositive() {
		return nil, models.ErrInvalidQuantity
	}

	lock := s.accountLock(name)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.storage.Ledger().GetAccount(ctx, name)
	if err != nil {
		return nil, err
	}

	quote, err := s.market.ResolvePrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	price := quote.PriceDecimal()
	if !price.IsPositive() {
		return nil, models.ErrQuoteUnavailable
	}

	notional := price.Mul(quantity)
	now := time.Now().UTC()

	mut := &models.TradeMutation{
		Trade: models.TradeRecord{
			ID:          uuid.New().String(),
			AccountName: name,
			Symbol:      symbol,
			Side:        side,
			Price:       price.String(),
			Quantity:    quantity.String(),
			Amount:      notional.String(),
			Strategy:    req.Strategy,
			TradeTime:   now,
		},
	}

	holding, err := s.storage.Ledger().GetHolding(ctx, name, symbol)
	if err != nil {
		return nil, err
	}

	switch side {
	case models.SideBuy:
		if account.BalanceDecimal().LessThan(notional) {
			return nil, models.ErrInsufficientFunds
		}
		account.SetBalance(account.BalanceDecimal().Sub(notional))

		updated := &models.Holding{
			AccountName: name,
			Symbol:      symbol,
			UpdatedAt:   now,
		}
		if holding == nil {
			updated.Quantity = quantity.String()
			updated.CostBasis = notional.String()
		} else {
			updated.Quantity = holding.QuantityDecimal().Add(quantity).String()
			updated.CostBasis = holding.CostBasisDecimal().Add(notional).String()
		}
		mut.Holding = updated

	case models.SideSell:
		if holding == nil || holding.QuantityDecimal().LessThan(quantity) {
			return nil, models.ErrInsufficientHolding
		}
		account.SetBalance(account.BalanceDecimal().Add(notional))

		remaining := holding.QuantityDecimal().Sub(quantity)
		if remaining.IsPositive() {
			// Cost basis is reduced by the full sale notional, matching the
			// historical ledger behavior even when it diverges from a
			// proportional-share reduction.
			mut.Holding = &models.Holding{
				AccountName: name,
				Symbol:      symbol,
				Quantity:    remaining.String(),
				CostBasis:   holding.CostBasisDecimal().Sub(notional).String(),
				UpdatedAt:   now,
			}
		} else {
			mut.DeleteHolding = true
			mut.HoldingSymbol = symbol
		}
	}

	account.UpdatedAt = now
	mut.Account = *account

	if err := s.storage.Ledger().ApplyTrade(ctx, mut); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account", name).
		Str("symbol", symbol).
		Str("side", side).
		Str("quantity", quantity.String()).
		Str("notional", notional.String()).
		Msg("Trade executed")

	return &mut.Trade, nil
}

func (s *Service) ResetAccount(ctx context.Context, name string, balance decimal.Decimal) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("account name is required")
	}
	if balance.IsZero() {
		balance = DefaultOpeningBalance
	}
	if balance.IsNegative() {
		return nil, fmt.Errorf("opening balance must not be negative")
	}

	lock := s.accountLock(name)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	account := &models.Account{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.storage.Ledger().GetAccount(ctx, name); err == nil {
		account.CreatedAt = existing.CreatedAt
	}
	account.SetBalance(balance)
	account.SetTotalValue(balance)

	if err := s.storage.Ledger().ResetAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info().Str("account", name).Str("balance", account.Balance).Msg("Account reset")
	return account, nil
}

func (s *Service) DeleteAccount(ctx context.Context, name string) (bool, error) {
	lock := s.accountLock(name)
	lock.Lock()
	defer lock.Unlock()

	deleted, err := s.storage.Ledger().DeleteAccount(ctx, name)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info().Str("account", name).Msg("Account deleted")
	}
	return deleted, nil
}

// Distribution prices each holding at its latest stored quote and returns
// per-symbol shares of the holdings' combined value. Symbols without any
// stored price are left out.
func (s *Service) Distribution(ctx context.Context, name string) ([]models.DistributionSlice, error) {
	if _, err := s.storage.Ledger().GetAccount(ctx, name); err != nil {
		return nil, err
	}

	holdings, err := s.storage.Ledger().ListHoldings(ctx, name)
	if err != nil {
		return nil, err
	}

	type pricedHolding struct {
		symbol string
		value  decimal.Decimal
	}

	total := decimal.Zero
	var priced []pricedHolding
	for _, h := range holdings {
		quote, err := s.storage.Market().LatestQuote(ctx, h.Symbol)
		if err != nil {
			return nil, err
		}
		if quote == nil {
			s.logger.Warn().Str("account", name).Str("symbol", h.Symbol).Msg("No stored price for held symbol, skipping")
			continue
		}
		value := h.QuantityDecimal().Mul(quote.PriceDecimal())
		total = total.Add(value)
		priced = append(priced, pricedHolding{symbol: h.Symbol, value: value})
	}

	slices := make([]models.DistributionSlice, 0, len(priced))
	hundred := decimal.NewFromInt(100)
	for _, p := range priced {
		percent := decimal.Zero
		if total.IsPositive() {
			percent = p.value.Mul(hundred).DivRound(total, 2)
		}
		slices = append(slices, models.DistributionSlice{
			Symbol:  p.symbol,
			Value:   p.value.String(),
			Percent: percent.StringFixed(2),
		})
	}
	return slices, nil
}

// Ensure Service implements LedgerService
var _ interfaces.LedgerService = (*Service)(nil)
