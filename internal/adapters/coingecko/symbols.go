package coingecko

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// knownQuoteSuffixes are quote currencies stripped by the fallback transform,
// longest first so "USDT" wins over "USD".
var knownQuoteSuffixes = []string{"USDT", "USDC", "BUSD", "USD"}

// defaultFeedIDs maps common trading-pair symbols to CoinGecko coin ids.
var defaultFeedIDs = map[string]string{
	"BTCUSDT":   "bitcoin",
	"ETHUSDT":   "ethereum",
	"BNBUSDT":   "binancecoin",
	"SOLUSDT":   "solana",
	"XRPUSDT":   "ripple",
	"ADAUSDT":   "cardano",
	"DOGEUSDT":  "dogecoin",
	"DOTUSDT":   "polkadot",
	"AVAXUSDT":  "avalanche-2",
	"LINKUSDT":  "chainlink",
	"MATICUSDT": "matic-network",
	"LTCUSDT":   "litecoin",
	"ATOMUSDT":  "cosmos",
	"UNIUSDT":   "uniswap",
	"NEARUSDT":  "near",
}

// SymbolTable resolves trading-pair symbols to price-feed identifiers.
type SymbolTable struct {
	feedIDs map[string]string
}

// NewSymbolTable returns a table seeded with the built-in defaults.
func NewSymbolTable() *SymbolTable {
	ids := make(map[string]string, len(defaultFeedIDs))
	for sym, id := range defaultFeedIDs {
		ids[sym] = id
	}
	return &SymbolTable{feedIDs: ids}
}

// LoadSymbolTable returns the default table with overrides merged in from a
// YAML file of the form `SYMBOL: feed-id`.
func LoadSymbolTable(path string) (*SymbolTable, error) {
	table := NewSymbolTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol map file '%s': %w", path, err)
	}

	overrides := make(map[string]string)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse symbol map file '%s': %w", path, err)
	}

	for sym, id := range overrides {
		table.feedIDs[strings.ToUpper(sym)] = id
	}
	return table, nil
}

// Resolve maps a trading-pair symbol to its feed id. Unmapped symbols fall
// back to a deterministic transform: strip a known quote-currency suffix and
// lowercase the base asset. Symbols that neither appear in the table nor end
// in a known suffix resolve to "", meaning the symbol stays unpriced — never
// an error.
func (t *SymbolTable) Resolve(symbol string) string {
	sym := strings.ToUpper(symbol)
	if id, ok := t.feedIDs[sym]; ok {
		return id
	}
	for _, suffix := range knownQuoteSuffixes {
		if base, ok := strings.CutSuffix(sym, suffix); ok && base != "" {
			return strings.ToLower(base)
		}
	}
	return ""
}
