package fetch

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Hostnames that must never be fetched regardless of DNS: localhost aliases
// and cloud metadata endpoints.
var blockedHostnames = map[string]bool{
	"localhost":                 true,
	"localhost.localdomain":     true,
	"0.0.0.0":                   true,
	"169.254.169.254":           true,
	"169.254.170.2":             true,
	"metadata.google.internal":  true,
	"fd00:ec2::254":             true,
}

var privateCIDRs = func() []*net.IPNet {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"127.0.0.0/8",
		"fc00::/7",
		"fe80::/10",
		"::1/128",
	}
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, _ := net.ParseCIDR(c)
		nets = append(nets, n)
	}
	return nets
}()

// ValidateTargetURL rejects URLs a monitoring target must never be: non-HTTP
// schemes, loopback and private addresses, and cloud metadata endpoints.
// Profile URLs are operator-supplied, so every fetch target gets screened
// before the chain will touch it.
func ValidateTargetURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only http and https URLs can be monitored")
	}
	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	if blockedHostnames[strings.ToLower(hostname)] {
		return fmt.Errorf("access to %s is not allowed", hostname)
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("failed to resolve hostname: %w", err)
	}
	if len(ips) == 0 {
		return fmt.Errorf("hostname does not resolve to any IP address")
	}
	for _, ip := range ips {
		if err := validateIP(ip); err != nil {
			return fmt.Errorf("IP address %s is not allowed: %w", ip, err)
		}
	}
	return nil
}

func validateIP(ip net.IP) error {
	switch {
	case ip.IsLoopback():
		return fmt.Errorf("loopback address")
	case ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast():
		return fmt.Errorf("link-local address")
	case ip.IsMulticast():
		return fmt.Errorf("multicast address")
	case ip.IsUnspecified():
		return fmt.Errorf("unspecified address")
	}
	for _, n := range privateCIDRs {
		if n.Contains(ip) {
			return fmt.Errorf("private address range %s", n)
		}
	}
	return nil
}
