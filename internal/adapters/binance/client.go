package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"portfolioEngine/internal/domain"
	"portfolioEngine/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

const (
	// Base URLs
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"
)

// Client implements the ports.PriceSource interface using the go-binance
// library. Symbols are native Binance pair symbols (e.g. "BTCUSDT"), so no
// feed-id resolution table is needed; one batched ticker call prices the
// whole set.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance price-source adapter.
type Config struct {
	APIKey     string // Optional: ticker prices are a public endpoint
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance price-source adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using the global binance.UseTestnet
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	return &Client{
		spotClient: client,
		logger:     cfg.Logger,
	}, nil
}

// GetPrices retrieves the last ticker price for each of the given symbols in
// one batched call. Quotes that fail to parse are skipped rather than failing
// the whole batch.
func (c *Client) GetPrices(ctx context.Context, symbols []string) (domain.PriceMap, error) {
	op := "GetPrices"
	if len(symbols) == 0 {
		return domain.PriceMap{}, nil
	}

	tickers, err := c.spotClient.NewListPricesService().Symbols(symbols).Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	now := time.Now()
	prices := make(domain.PriceMap, len(tickers))
	for _, ticker := range tickers {
		price, err := strconv.ParseFloat(ticker.Price, 64)
		if err != nil || price <= 0 {
			c.logger.Warn(ctx, op+": skipping unparseable ticker price", map[string]interface{}{
				"symbol": ticker.Symbol,
				"price":  ticker.Price,
			})
			continue
		}
		prices[ticker.Symbol] = domain.PriceQuote{Price: price, AsOf: now}
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{
		"requested": len(symbols),
		"priced":    len(prices),
	})
	return prices, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1100, -1101, -1102, -1104, -1121: // Parameter/symbol errors
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrFeedUnreachable
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrFeedUnreachable, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}
