package pricefeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioEngine/internal/domain"
	"portfolioEngine/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// scriptedSource serves one response per call; the last response repeats.
type scriptedSource struct {
	mu        sync.Mutex
	responses []func(symbols []string) (domain.PriceMap, error)
	calls     int
}

func (s *scriptedSource) GetPrices(ctx context.Context, symbols []string) (domain.PriceMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return s.responses[idx](symbols)
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func pricesOf(pairs map[string]float64) domain.PriceMap {
	m := make(domain.PriceMap, len(pairs))
	for sym, price := range pairs {
		m[sym] = domain.PriceQuote{Price: price, AsOf: time.Now()}
	}
	return m
}

func newTestPoller(t *testing.T, source ports.PriceSource) *Poller {
	t.Helper()
	p, err := New(Config{
		Source:   source,
		Logger:   &mockLogger{},
		Interval: 5 * time.Millisecond,
		Timeout:  50 * time.Millisecond,
	})
	require.NoError(t, err)
	return p
}

func waitForUpdates(t *testing.T, ch <-chan domain.PriceMap, n int) domain.PriceMap {
	t.Helper()
	var last domain.PriceMap
	for i := 0; i < n; i++ {
		select {
		case last = <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for update %d of %d", i+1, n)
		}
	}
	return last
}

func TestPollerRequiresDependencies(t *testing.T) {
	_, err := New(Config{Logger: &mockLogger{}})
	assert.Error(t, err)
	_, err = New(Config{Source: &scriptedSource{}})
	assert.Error(t, err)
}

func TestPollerServesFetchedPrices(t *testing.T) {
	source := &scriptedSource{responses: []func([]string) (domain.PriceMap, error){
		func([]string) (domain.PriceMap, error) {
			return pricesOf(map[string]float64{"BTCUSDT": 50000, "ETHUSDT": 2500}), nil
		},
	}}
	poller := newTestPoller(t, source)

	updates := make(chan domain.PriceMap, 16)
	require.NoError(t, poller.Start(context.Background(), []string{"BTCUSDT", "ETHUSDT"}, func(m domain.PriceMap) {
		updates <- m
	}))
	defer poller.Stop()

	got := waitForUpdates(t, updates, 1)
	require.Len(t, got, 2)
	assert.Equal(t, 50000.0, got["BTCUSDT"].Price)
	assert.True(t, poller.Connected())

	snap := poller.Snapshot()
	assert.Equal(t, 2500.0, snap["ETHUSDT"].Price)
}

func TestPollerKeepsLastPricesOnFailure(t *testing.T) {
	source := &scriptedSource{responses: []func([]string) (domain.PriceMap, error){
		func([]string) (domain.PriceMap, error) {
			return pricesOf(map[string]float64{"BTCUSDT": 50000}), nil
		},
		func([]string) (domain.PriceMap, error) {
			return nil, ports.ErrFeedUnreachable
		},
	}}
	poller := newTestPoller(t, source)

	updates := make(chan domain.PriceMap, 16)
	require.NoError(t, poller.Start(context.Background(), []string{"BTCUSDT"}, func(m domain.PriceMap) {
		updates <- m
	}))
	defer poller.Stop()

	waitForUpdates(t, updates, 1)

	// Let at least one failing tick happen.
	require.Eventually(t, func() bool { return source.callCount() >= 2 }, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return !poller.Connected() }, 2*time.Second, time.Millisecond)

	// Stale but present: the old price is still served, not cleared.
	snap := poller.Snapshot()
	require.Contains(t, snap, "BTCUSDT")
	assert.Equal(t, 50000.0, snap["BTCUSDT"].Price)
}

func TestPollerMergesPartialResponses(t *testing.T) {
	source := &scriptedSource{responses: []func([]string) (domain.PriceMap, error){
		func([]string) (domain.PriceMap, error) {
			return pricesOf(map[string]float64{"BTCUSDT": 50000, "ETHUSDT": 2500}), nil
		},
		func([]string) (domain.PriceMap, error) {
			// ETHUSDT lookup failed this tick.
			return pricesOf(map[string]float64{"BTCUSDT": 51000}), nil
		},
	}}
	poller := newTestPoller(t, source)

	updates := make(chan domain.PriceMap, 16)
	require.NoError(t, poller.Start(context.Background(), []string{"BTCUSDT", "ETHUSDT"}, func(m domain.PriceMap) {
		updates <- m
	}))
	defer poller.Stop()

	got := waitForUpdates(t, updates, 2)

	// Only symbols present in the new response were overwritten.
	assert.Equal(t, 51000.0, got["BTCUSDT"].Price)
	require.Contains(t, got, "ETHUSDT")
	assert.Equal(t, 2500.0, got["ETHUSDT"].Price)
	assert.True(t, poller.Connected())
}

func TestPollerStopReleasesTimer(t *testing.T) {
	source := &scriptedSource{responses: []func([]string) (domain.PriceMap, error){
		func([]string) (domain.PriceMap, error) {
			return pricesOf(map[string]float64{"BTCUSDT": 50000}), nil
		},
	}}
	poller := newTestPoller(t, source)

	require.NoError(t, poller.Start(context.Background(), []string{"BTCUSDT"}, nil))
	require.Eventually(t, func() bool { return source.callCount() >= 1 }, 2*time.Second, time.Millisecond)

	poller.Stop()
	calls := source.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, source.callCount(), "poller kept fetching after Stop")

	// Stop is idempotent.
	poller.Stop()
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	source := &scriptedSource{responses: []func([]string) (domain.PriceMap, error){
		func([]string) (domain.PriceMap, error) {
			return pricesOf(map[string]float64{"BTCUSDT": 50000}), nil
		},
	}}
	poller := newTestPoller(t, source)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, poller.Start(ctx, []string{"BTCUSDT"}, nil))
	require.Eventually(t, func() bool { return source.callCount() >= 1 }, 2*time.Second, time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	calls := source.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, source.callCount(), "poller kept fetching after context cancel")
}

func TestPollerStartTwiceFails(t *testing.T) {
	source := &scriptedSource{responses: []func([]string) (domain.PriceMap, error){
		func([]string) (domain.PriceMap, error) { return domain.PriceMap{}, nil },
	}}
	poller := newTestPoller(t, source)

	require.NoError(t, poller.Start(context.Background(), []string{"BTCUSDT"}, nil))
	defer poller.Stop()
	assert.Error(t, poller.Start(context.Background(), []string{"BTCUSDT"}, nil))
}

func TestPollerSnapshotIsIsolated(t *testing.T) {
	source := &scriptedSource{responses: []func([]string) (domain.PriceMap, error){
		func([]string) (domain.PriceMap, error) {
			return pricesOf(map[string]float64{"BTCUSDT": 50000}), nil
		},
	}}
	poller := newTestPoller(t, source)

	updates := make(chan domain.PriceMap, 16)
	require.NoError(t, poller.Start(context.Background(), []string{"BTCUSDT"}, func(m domain.PriceMap) {
		updates <- m
	}))
	defer poller.Stop()
	waitForUpdates(t, updates, 1)

	snap := poller.Snapshot()
	snap["BTCUSDT"] = domain.PriceQuote{Price: 1}

	fresh := poller.Snapshot()
	assert.Equal(t, 50000.0, fresh["BTCUSDT"].Price)
}

func TestPollerSetInterval(t *testing.T) {
	source := &scriptedSource{responses: []func([]string) (domain.PriceMap, error){
		func([]string) (domain.PriceMap, error) { return domain.PriceMap{}, nil },
	}}
	poller := newTestPoller(t, source)

	assert.Equal(t, 5*time.Millisecond, poller.Interval())

	poller.SetInterval(time.Second)
	assert.Equal(t, time.Second, poller.Interval())

	// Non-positive cadence is ignored.
	poller.SetInterval(0)
	poller.SetInterval(-time.Second)
	assert.Equal(t, time.Second, poller.Interval())
}

func TestPollerSkipsEmptySymbolSet(t *testing.T) {
	source := &scriptedSource{responses: []func([]string) (domain.PriceMap, error){
		func([]string) (domain.PriceMap, error) { return domain.PriceMap{}, nil },
	}}
	poller := newTestPoller(t, source)

	require.NoError(t, poller.Start(context.Background(), nil, nil))
	time.Sleep(30 * time.Millisecond)
	poller.Stop()

	assert.Zero(t, source.callCount(), "poller fetched with no symbols to poll")
}
