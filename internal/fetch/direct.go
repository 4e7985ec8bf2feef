package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const chromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a page we retain. Dealer sites can serve
// enormous pages; everything past the cap adds nothing to the checks.
const maxBodyBytes = 10 << 20

// Direct fetches with a plain HTTP client, presenting realistic browser
// headers. Requests to the same host are rate limited so a dealer with many
// profiles on one platform does not get hammered.
type Direct struct {
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewDirect builds the first-line strategy with the given request timeout.
func NewDirect(timeout time.Duration) *Direct {
	return &Direct{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: timeout,
				}).DialContext,
				MaxIdleConnsPerHost: 2,
			},
		},
		limiters: make(map[string]*rate.Limiter),
	}
}

func (d *Direct) Name() string { return "direct" }

func (d *Direct) Available() bool { return true }

// limiter returns the per-host limiter, creating it on first use. One request
// per second with a small burst is enough for a monitoring pass.
func (d *Direct) limiter(host string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(1), 2)
		d.limiters[host] = l
	}
	return l
}

func (d *Direct) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if err := d.limiter(u.Hostname()).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("direct fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Result{
		HTML:         string(body),
		StatusCode:   resp.StatusCode,
		ResponseTime: elapsed,
		Headers:      resp.Header,
	}, nil
}
