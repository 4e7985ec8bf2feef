// Package checks holds the site health analyzers. Each check is a pure
// function over fetched page content plus the probes it needs; composing
// them into a full pass is the monitor engine's job.
package checks

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-ping/ping"

	"dealerwatch/internal/fetch"
	"dealerwatch/internal/logging"
)

// Fetcher is what connectivity needs from the fetch layer.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// Connectivity is the reachability verdict for one pass.
type Connectivity struct {
	Reachable      bool
	ResponseTimeMS int
	StatusCode     int
	ErrorDetails   string
}

// CheckConnectivity fetches the page and classifies the outcome. The fetched
// page is returned for the downstream content and performance checks so the
// site is only hit once per pass. On fetch failure an ICMP probe
// distinguishes "host alive but HTTP blocked" from a host that is fully dark.
func CheckConnectivity(ctx context.Context, fetcher Fetcher, rawURL string) (*fetch.Result, Connectivity) {
	page, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		detail := err.Error()
		if host := hostOf(rawURL); host != "" && HostProber(host) {
			detail = fmt.Sprintf("%s (host responds to ping; HTTP layer is down or blocking)", detail)
		}
		return nil, Connectivity{Reachable: false, ErrorDetails: detail}
	}

	conn := Connectivity{
		Reachable:      page.StatusCode < 500,
		ResponseTimeMS: int(page.ResponseTime.Milliseconds()),
		StatusCode:     page.StatusCode,
	}
	if !conn.Reachable {
		conn.ErrorDetails = fmt.Sprintf("server returned status %d", page.StatusCode)
	}
	return page, conn
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// HostProber answers whether a host is alive at the ICMP layer. Package
// variable so tests can stub the probe out.
var HostProber = pingHost

// pingHost sends a short unprivileged ICMP probe. Best effort only: many
// hosts drop ICMP, so a negative answer proves nothing and is not reported.
func pingHost(host string) bool {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return false
	}
	pinger.SetPrivileged(false)
	pinger.Count = 1
	pinger.Timeout = 3 * time.Second
	if err := pinger.Run(); err != nil {
		if !strings.Contains(err.Error(), "permission") {
			logging.Named("checks").Debugw("icmp probe failed", "host", host, "error", err)
		}
		return false
	}
	return pinger.Statistics().PacketsRecv > 0
}
