package pricefeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portfolioEngine/internal/domain"
	"portfolioEngine/internal/ports"
)

const (
	defaultInterval = 3 * time.Second // Full open-position list cadence
	defaultTimeout  = 5 * time.Second
)

// Config holds configuration for a Poller.
type Config struct {
	Source   ports.PriceSource
	Logger   ports.Logger
	Interval time.Duration // Poll cadence; 3s default, 1s for a single focused position
	Timeout  time.Duration // Hard per-fetch timeout so one hung request cannot stall the cycle
}

// Poller periodically refreshes prices for a set of symbols and exposes the
// latest consistent PriceMap generation.
//
// On a failed fetch the last successfully fetched map keeps being served and
// the connected flag flips false; existing prices are never cleared just
// because one poll failed, which would make PnL flicker to zero. On a partial
// response only the symbols present in the response are overwritten. Each
// generation is built as a fresh map and swapped in whole, so a reader mid-
// aggregation always sees prices from a single tick.
type Poller struct {
	source  ports.PriceSource
	logger  ports.Logger
	timeout time.Duration

	mu        sync.RWMutex
	symbols   []string
	interval  time.Duration
	prices    domain.PriceMap
	connected bool
	started   bool

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a new price poller.
func New(cfg Config) (*Poller, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("price source is required for poller")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for poller")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Poller{
		source:   cfg.Source,
		logger:   cfg.Logger,
		interval: interval,
		timeout:  timeout,
		prices:   make(domain.PriceMap),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins polling for the given symbols. onUpdate (optional) is invoked
// with the new PriceMap generation after every successful fetch. Polling ends
// when Stop is called or ctx is cancelled; the first fetch is issued
// immediately rather than one interval in.
func (p *Poller) Start(ctx context.Context, symbols []string, onUpdate func(domain.PriceMap)) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return fmt.Errorf("poller already started")
	}
	p.started = true
	p.symbols = append([]string(nil), symbols...)
	p.mu.Unlock()

	go p.run(ctx, onUpdate)
	return nil
}

// Stop halts polling and releases the timer. Safe to call more than once and
// safe to call concurrently with a running tick; it blocks until the polling
// goroutine has exited.
func (p *Poller) Stop() {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return
	}
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.doneCh
}

// SetSymbols replaces the polled symbol set; takes effect on the next tick.
func (p *Poller) SetSymbols(symbols []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.symbols = append([]string(nil), symbols...)
}

// SetInterval changes the poll cadence; takes effect after the next tick.
// Non-positive values are ignored.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interval = d
}

// Interval reports the current poll cadence.
func (p *Poller) Interval() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.interval
}

// Snapshot returns a copy of the latest price map generation.
func (p *Poller) Snapshot() domain.PriceMap {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prices.Clone()
}

// Connected reports whether the most recent poll succeeded.
func (p *Poller) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

func (p *Poller) run(ctx context.Context, onUpdate func(domain.PriceMap)) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	// First fetch immediately so consumers aren't blind for a whole interval.
	p.tick(ctx, onUpdate)

	for {
		select {
		case <-p.stopCh:
			p.logger.Info(ctx, "Price poller stopped")
			return
		case <-ctx.Done():
			p.logger.Info(ctx, "Price poller context cancelled")
			return
		case <-ticker.C:
			p.tick(ctx, onUpdate)
			ticker.Reset(p.Interval())
		}
	}
}

func (p *Poller) tick(ctx context.Context, onUpdate func(domain.PriceMap)) {
	p.mu.RLock()
	symbols := append([]string(nil), p.symbols...)
	p.mu.RUnlock()

	if len(symbols) == 0 {
		return // Nothing held; nothing to refresh.
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	fetched, err := p.source.GetPrices(fetchCtx, symbols)
	if err != nil {
		p.mu.Lock()
		p.connected = false
		p.mu.Unlock()
		p.logger.Warn(ctx, "Price fetch failed, serving last known prices", map[string]interface{}{
			"error":   err.Error(),
			"symbols": len(symbols),
		})
		return
	}

	p.mu.Lock()
	next := p.prices.Clone()
	for sym, q := range fetched {
		next[sym] = q
	}
	p.prices = next
	p.connected = true
	p.mu.Unlock()

	p.logger.Debug(ctx, "Price map refreshed", map[string]interface{}{
		"requested": len(symbols),
		"received":  len(fetched),
	})

	if onUpdate != nil {
		onUpdate(next)
	}
}
