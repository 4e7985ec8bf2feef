// Package fetch retrieves dealer website content through a prioritized chain
// of strategies: a plain HTTP client first, then a JS-capable scraping API,
// then headless browser automation. Escalation happens only when a failure
// looks like anti-bot protection rather than a genuinely dead site.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"dealerwatch/internal/logging"
)

// ErrAllStrategiesFailed is returned when every available strategy has been
// tried. The last strategy's error is wrapped alongside it.
var ErrAllStrategiesFailed = errors.New("all fetch strategies failed")

// Result is the outcome of a successful fetch, tagged with the strategy that
// produced it.
type Result struct {
	HTML         string
	StatusCode   int
	ResponseTime time.Duration
	Method       string
	Headers      http.Header
}

// Strategy is one way of fetching a URL. Available reports whether the
// strategy is usable with the current configuration (API key present,
// browser enabled).
type Strategy interface {
	Name() string
	Available() bool
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Chain tries its strategies in order. The first strategy's failure only
// escalates when it matches an anti-bot signature; an ordinary network
// failure is reported directly, since a blocked fetch and a dead site need
// different handling downstream.
type Chain struct {
	strategies []Strategy
	log        *zap.SugaredLogger
}

// NewChain builds a chain over the given strategies, in priority order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{
		strategies: strategies,
		log:        logging.Named("fetch"),
	}
}

// Fetch runs the chain for url. A result whose body or status still carries
// anti-bot markers is treated as a failure of that strategy, not a success.
func (c *Chain) Fetch(ctx context.Context, url string) (*Result, error) {
	var lastErr error

	for i, strat := range c.strategies {
		if !strat.Available() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := strat.Fetch(ctx, url)
		if err == nil && LooksBlocked(result) {
			err = fmt.Errorf("%s returned a blocked response (status %d)", strat.Name(), result.StatusCode)
		}
		if err == nil {
			result.Method = strat.Name()
			if i > 0 {
				c.log.Infow("fetch succeeded after escalation", "url", url, "method", strat.Name())
			}
			return result, nil
		}

		lastErr = err

		// Only anti-bot failures justify a heavier strategy. A plain
		// connection failure means the site is down; escalating would just
		// report the same outage more expensively.
		if !IsAntiBotError(err) {
			c.log.Infow("fetch failed without anti-bot signature, not escalating",
				"url", url, "method", strat.Name(), "error", err)
			break
		}
		c.log.Warnw("anti-bot response detected, escalating",
			"url", url, "method", strat.Name(), "error", err)
	}

	if lastErr == nil {
		lastErr = errors.New("no fetch strategy available")
	}
	return nil, fmt.Errorf("%w: %v", ErrAllStrategiesFailed, lastErr)
}
