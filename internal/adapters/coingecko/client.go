package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"portfolioEngine/internal/domain"
	"portfolioEngine/internal/ports"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Client implements the ports.PriceSource interface against the CoinGecko
// simple/price endpoint. One batched GET prices all requested symbols:
//
//	GET {base}/simple/price?ids=bitcoin,ethereum&vs_currencies=usd
//	=> {"bitcoin":{"usd":50123.4},"ethereum":{"usd":2501.2}}
type Client struct {
	baseURL    string
	httpClient *http.Client
	symbols    *SymbolTable
	logger     ports.Logger
}

// Config holds configuration specific to the CoinGecko adapter.
type Config struct {
	BaseURL string        // API base URL; production default if empty
	Timeout time.Duration // HTTP client timeout (poller also applies its own per-tick deadline)
	Symbols *SymbolTable  // Symbol resolution table; defaults if nil
	Logger  ports.Logger
}

// New creates a new CoinGecko price-source adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for CoinGecko client")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	symbols := cfg.Symbols
	if symbols == nil {
		symbols = NewSymbolTable()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		symbols:    symbols,
		logger:     cfg.Logger,
	}, nil
}

// GetPrices retrieves current USD prices for the given trading-pair symbols.
// Symbols that cannot be resolved to a feed id, or that the feed does not
// know, are simply absent from the result.
func (c *Client) GetPrices(ctx context.Context, symbols []string) (domain.PriceMap, error) {
	op := "GetPrices"

	// Resolve symbols up front; remember which symbols asked for each id so
	// the response can be keyed back by symbol.
	symbolsByID := make(map[string][]string)
	for _, sym := range symbols {
		id := c.symbols.Resolve(sym)
		if id == "" {
			c.logger.Debug(ctx, op+": symbol has no feed id mapping, skipping", map[string]interface{}{"symbol": sym})
			continue
		}
		symbolsByID[id] = append(symbolsByID[id], sym)
	}
	if len(symbolsByID) == 0 {
		return domain.PriceMap{}, nil
	}

	ids := make([]string, 0, len(symbolsByID))
	for id := range symbolsByID {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic request URL

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrInvalidRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleTransportError(ctx, err, op)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		mapped := ports.ErrFeedUnreachable
		if resp.StatusCode == http.StatusTooManyRequests {
			mapped = ports.ErrRateLimited
		}
		err := fmt.Errorf("%s failed: %w: unexpected status %d", op, mapped, resp.StatusCode)
		c.logger.Error(ctx, err, op+" failed", map[string]interface{}{"status": resp.StatusCode})
		return nil, err
	}

	// Wire shape: { feedId: { "usd": price } }
	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrFeedBadResponse, err)
	}

	now := time.Now()
	prices := make(domain.PriceMap)
	for id, quote := range body {
		usd, ok := quote["usd"]
		if !ok || usd <= 0 {
			continue
		}
		for _, sym := range symbolsByID[id] {
			prices[sym] = domain.PriceQuote{Price: usd, AsOf: now}
		}
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{
		"requested": len(symbols),
		"priced":    len(prices),
	})
	return prices, nil
}

// handleTransportError translates HTTP client errors into standardized ports errors.
func (c *Client) handleTransportError(ctx context.Context, err error, op string) error {
	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", op, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", op, ports.ErrContextCanceled, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", op, ports.ErrConnectionFailed, err)
	}
	c.logger.Error(ctx, err, op+" failed", map[string]interface{}{"operation": op})
	return finalErr
}
