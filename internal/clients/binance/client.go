// Package binance provides a client for the Binance spot market API.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rferrell/papertrade/internal/common"
	"github.com/rferrell/papertrade/internal/interfaces"
	"github.com/rferrell/papertrade/internal/models"
)

const (
	DefaultBaseURL   = "https://api.binance.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 10 // requests per second

	quotePair = "USDT"
)

// Client implements the BinanceClient interface.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Binance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Binance API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Pair maps a base symbol like BTC to its USDT trading pair.
func Pair(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasSuffix(s, quotePair) {
		return s
	}
	return s + quotePair
}

// BaseSymbol strips the USDT suffix from a trading pair.
func BaseSymbol(pair string) string {
	return strings.TrimSuffix(strings.ToUpper(pair), quotePair)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Binance API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// priceResponse is the /api/v3/ticker/price payload
type priceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// GetPrice retrieves the current price for one symbol
func (c *Client) GetPrice(ctx context.Context, symbol string) (*models.Quote, error) {
	pair := Pair(symbol)

	params := url.Values{}
	params.Set("symbol", pair)

	var resp priceResponse
	if err := c.get(ctx, "/api/v3/ticker/price", params, &resp); err != nil {
		return nil, err
	}

	return &models.Quote{
		Symbol:     BaseSymbol(resp.Symbol),
		Pair:       resp.Symbol,
		Price:      resp.Price,
		Source:     models.QuoteSourceLive,
		ObservedAt: time.Now().UTC(),
	}, nil
}

// tickerResponse is the /api/v3/ticker/24hr payload
type tickerResponse struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
}

func (t *tickerResponse) toQuote(observed time.Time) *models.Quote {
	return &models.Quote{
		Symbol:        BaseSymbol(t.Symbol),
		Pair:          t.Symbol,
		Price:         t.LastPrice,
		Change24h:     t.PriceChange,
		ChangePercent: t.PriceChangePercent,
		HighPrice:     t.HighPrice,
		LowPrice:      t.LowPrice,
		Volume:        t.Volume,
		Source:        models.QuoteSourceLive,
		ObservedAt:    observed,
	}
}

// GetTicker24h retrieves the rolling 24h ticker for one symbol
func (c *Client) GetTicker24h(ctx context.Context, symbol string) (*models.Quote, error) {
	pair := Pair(symbol)

	params := url.Values{}
	params.Set("symbol", pair)

	var resp tickerResponse
	if err := c.get(ctx, "/api/v3/ticker/24hr", params, &resp); err != nil {
		return nil, err
	}

	return resp.toQuote(time.Now().UTC()), nil
}

// GetTickers24h retrieves 24h tickers for a set of symbols in one request
func (c *Client) GetTickers24h(ctx context.Context, symbols []string) ([]*models.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	pairs := make([]string, len(symbols))
	for i, s := range symbols {
		pairs[i] = fmt.Sprintf("%q", Pair(s))
	}

	params := url.Values{}
	params.Set("symbols", "["+strings.Join(pairs, ",")+"]")

	var resp []tickerResponse
	if err := c.get(ctx, "/api/v3/ticker/24hr", params, &resp); err != nil {
		return nil, err
	}

	observed := time.Now().UTC()
	quotes := make([]*models.Quote, len(resp))
	for i := range resp {
		quotes[i] = resp[i].toQuote(observed)
	}

	return quotes, nil
}

// Ensure Client implements BinanceClient
var _ interfaces.BinanceClient = (*Client)(nil)
