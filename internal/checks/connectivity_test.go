package checks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealerwatch/internal/fetch"
	"dealerwatch/internal/logging"
)

type fakeFetcher struct {
	result *fetch.Result
	err    error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetch.Result, error) {
	return f.result, f.err
}

func TestCheckConnectivityReachable(t *testing.T) {
	logging.SetNop()
	f := &fakeFetcher{result: &fetch.Result{
		HTML:         "<html></html>",
		StatusCode:   200,
		ResponseTime: 350 * time.Millisecond,
		Method:       "direct",
	}}

	page, conn := CheckConnectivity(context.Background(), f, "https://example.com")
	require.NotNil(t, page)
	assert.True(t, conn.Reachable)
	assert.Equal(t, 350, conn.ResponseTimeMS)
	assert.Equal(t, 200, conn.StatusCode)
	assert.Empty(t, conn.ErrorDetails)
}

func TestCheckConnectivityServerError(t *testing.T) {
	logging.SetNop()
	f := &fakeFetcher{result: &fetch.Result{StatusCode: 503, Method: "direct"}}

	_, conn := CheckConnectivity(context.Background(), f, "https://example.com")
	assert.False(t, conn.Reachable)
	assert.Contains(t, conn.ErrorDetails, "503")
}

func stubHostProber(t *testing.T, alive bool) {
	t.Helper()
	orig := HostProber
	HostProber = func(host string) bool { return alive }
	t.Cleanup(func() { HostProber = orig })
}

func TestCheckConnectivityFetchFailure(t *testing.T) {
	logging.SetNop()
	stubHostProber(t, false)
	f := &fakeFetcher{err: errors.New("dial tcp: connection refused")}

	page, conn := CheckConnectivity(context.Background(), f, "https://host.invalid")
	assert.Nil(t, page)
	assert.False(t, conn.Reachable)
	assert.Contains(t, conn.ErrorDetails, "connection refused")
}

func TestCheckConnectivityPingableHostGetsHint(t *testing.T) {
	logging.SetNop()
	stubHostProber(t, true)
	f := &fakeFetcher{err: errors.New("dial tcp: connection refused")}

	_, conn := CheckConnectivity(context.Background(), f, "https://host.invalid")
	assert.False(t, conn.Reachable)
	assert.Contains(t, conn.ErrorDetails, "host responds to ping")
}

func TestCheckTLSAssumesValidBehindProtection(t *testing.T) {
	// A page that needed an escalated fetch means edge protection owns the
	// TLS endpoint; the check must not fail the site for that.
	page := &fetch.Result{Method: "scraping_api", StatusCode: 200}
	status := CheckTLS("https://example.com", page, time.Now())
	assert.True(t, status.Valid)
	assert.True(t, status.CDNProtected)
	assert.Equal(t, assumedCDNExpiryDays, status.ExpiryDays)
}

func TestCheckTLSAssumesValidOnConnectionReset(t *testing.T) {
	// Edge networks killing raw handshakes from non-browser clients must not
	// produce a false "SSL invalid".
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			// RST instead of FIN, the reset-by-peer case.
			if tc, ok := c.(*net.TCPConn); ok {
				tc.SetLinger(0)
			}
			c.Close()
		}
	}()

	target := fmt.Sprintf("https://%s", ln.Addr().String())
	page := &fetch.Result{Method: "direct", StatusCode: 200}
	status := CheckTLS(target, page, time.Now())
	assert.True(t, status.Valid)
	assert.True(t, status.CDNProtected)
	assert.Equal(t, assumedCDNExpiryDays, status.ExpiryDays)
	assert.Empty(t, status.Issues)
}

func TestCheckTLSSkipsPlainHTTP(t *testing.T) {
	status := CheckTLS("http://example.com", nil, time.Now())
	assert.True(t, status.Valid)
	assert.False(t, status.CDNProtected)
	assert.Empty(t, status.Issues)
}
