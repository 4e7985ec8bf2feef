package checks

import (
	"crypto/tls"
	"net"
	"net/url"
	"strings"
	"time"

	"dealerwatch/internal/fetch"
	"dealerwatch/internal/models"
)

// Certificate verdicts for CDN-fronted sites use this conservative default
// instead of a real expiry, since the origin certificate is not observable.
const assumedCDNExpiryDays = 90

// TLSStatus is the certificate verdict for one pass.
type TLSStatus struct {
	Valid        bool
	ExpiryDays   int
	CDNProtected bool
	Issues       []models.Issue
}

// CheckTLS inspects the site certificate for https URLs. Sites behind a
// CDN or anti-bot layer terminate TLS at the edge and often refuse raw
// handshakes from non-browser clients; those are assumed valid rather than
// flagged, because a false "SSL invalid" RED on a healthy fronted site is
// worse than a missed expiry on one. HTTP-only sites pass trivially.
func CheckTLS(rawURL string, page *fetch.Result, now time.Time) TLSStatus {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" {
		return TLSStatus{Valid: true, ExpiryDays: assumedCDNExpiryDays}
	}

	// A page that needed an escalated fetch is behind active protection;
	// the raw handshake below would measure the blocker, not the site.
	if page != nil && page.Method != "" && page.Method != "direct" {
		return TLSStatus{Valid: true, ExpiryDays: assumedCDNExpiryDays, CDNProtected: true}
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "443"
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	// InsecureSkipVerify so an expired certificate can still be read and
	// dated instead of failing the handshake outright.
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(host, port), &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         host,
	})
	if err != nil {
		if isCDNInterference(err) {
			return TLSStatus{Valid: true, ExpiryDays: assumedCDNExpiryDays, CDNProtected: true}
		}
		return TLSStatus{
			Valid: false,
			Issues: []models.Issue{{
				Type:     "ssl_invalid",
				Severity: models.StatusRed,
				Message:  "SSL handshake failed",
				Details:  err.Error(),
			}},
		}
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return TLSStatus{Valid: false, Issues: []models.Issue{{
			Type:     "ssl_invalid",
			Severity: models.StatusRed,
			Message:  "server presented no certificate",
		}}}
	}

	leaf := certs[0]
	days := int(leaf.NotAfter.Sub(now).Hours() / 24)
	status := TLSStatus{Valid: days > 0, ExpiryDays: days}
	if !status.Valid {
		status.Issues = append(status.Issues, models.Issue{
			Type:     "ssl_invalid",
			Severity: models.StatusRed,
			Message:  "SSL certificate has expired",
			Details:  "expired " + leaf.NotAfter.Format("2006-01-02"),
		})
	} else if days < 30 {
		status.Issues = append(status.Issues, models.Issue{
			Type:     "ssl_expiring_soon",
			Severity: models.StatusYellow,
			Message:  "SSL certificate expires soon",
			Details:  leaf.NotAfter.Format("2006-01-02"),
		})
	}
	return status
}

// isCDNInterference matches handshake failures typical of edge networks
// rejecting non-browser TLS clients.
func isCDNInterference(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, sig := range []string{"reset", "refused", "timeout", "deadline exceeded", "eof"} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
