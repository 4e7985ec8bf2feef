package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser drives a local headless Chrome as the last-resort JS-rendering
// path when the scraping API is unconfigured or also blocked. Disabled by
// default since it needs a Chrome binary on the host.
type Browser struct {
	enabled bool
	timeout time.Duration
}

// NewBrowser returns the headless strategy.
func NewBrowser(enabled bool, timeout time.Duration) *Browser {
	return &Browser{enabled: enabled, timeout: timeout}
}

func (b *Browser) Name() string { return "headless_browser" }

func (b *Browser) Available() bool { return b.enabled }

func (b *Browser) Fetch(ctx context.Context, target string) (*Result, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(chromeUserAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, b.timeout)
	defer cancelRun()

	var html string
	start := time.Now()
	err := chromedp.Run(runCtx,
		chromedp.Navigate(target),
		// Give client-side rendering a moment after load.
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("headless browser: %w", err)
	}

	return &Result{
		HTML:         html,
		StatusCode:   200,
		ResponseTime: elapsed,
	}, nil
}
