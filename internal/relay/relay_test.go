package relay

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cutesocks/socksbot/internal/config"
	"github.com/cutesocks/socksbot/internal/conversation"
	"github.com/cutesocks/socksbot/internal/observability"
)

// Shared test doubles for the relay package.

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.LogConfig{Level: "error", Output: io.Discard})
}

func testMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.NewRegistry())
}

func testBudget() config.BudgetConfig {
	return config.BudgetConfig{ReplyMaxTokens: 128, HistoryMaxTokens: 100000}
}

// countingCompleter replies with canned text and records each snapshot it was
// handed, in call order.
type countingCompleter struct {
	mu        sync.Mutex
	reply     string
	err       error
	snapshots [][]conversation.Turn

	// block, when non-nil, is received from before each call returns.
	block chan struct{}
}

func (c *countingCompleter) Complete(_ context.Context, turns []conversation.Turn, _ int) (string, error) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = append(c.snapshots, turns)
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func (c *countingCompleter) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshots)
}

// runeCounter counts one token per rune so budget tests stay deterministic.
type runeCounter struct{}

func (runeCounter) Count(text string) (int, error) { return len([]rune(text)), nil }

var errBoom = errors.New("provider exploded")
