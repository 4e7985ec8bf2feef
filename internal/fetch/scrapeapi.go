package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dealerwatch/internal/logging"
)

// ScrapeAPI escalates through a remote JS-rendering scraping service. The
// service fetches the page from its own proxy pool, which defeats most
// IP-based bot protection. A failed standard attempt is retried once on the
// premium proxy tier with a longer render wait.
type ScrapeAPI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewScrapeAPI returns the strategy; it reports itself unavailable when no
// API key is configured.
func NewScrapeAPI(apiKey, baseURL string) *ScrapeAPI {
	return &ScrapeAPI{
		apiKey:  apiKey,
		baseURL: baseURL,
		// Render waits plus proxy routing make this slow by design.
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

func (s *ScrapeAPI) Name() string { return "scraping_api" }

func (s *ScrapeAPI) Available() bool { return s.apiKey != "" }

func (s *ScrapeAPI) Fetch(ctx context.Context, target string) (*Result, error) {
	result, err := s.scrape(ctx, target, false, 5*time.Second)
	if err == nil && !LooksBlocked(result) {
		return result, nil
	}

	logging.Named("fetch").Infow("standard scrape failed, retrying on premium tier",
		"url", target, "error", err)
	return s.scrape(ctx, target, true, 10*time.Second)
}

func (s *ScrapeAPI) scrape(ctx context.Context, target string, premium bool, wait time.Duration) (*Result, error) {
	params := url.Values{}
	params.Set("api_key", s.apiKey)
	params.Set("url", target)
	params.Set("dynamic", "true")
	params.Set("premium", strconv.FormatBool(premium))
	params.Set("wait", strconv.FormatInt(wait.Milliseconds(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create scrape request: %w", err)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraping api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("read scrape body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraping api status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return &Result{
		HTML:         string(body),
		ResponseTime: elapsed,
		// The API returns the rendered page with its own 200; the target
		// site answered or the API would have errored.
		StatusCode: http.StatusOK,
		Headers:    resp.Header,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
