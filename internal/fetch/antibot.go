package fetch

import (
	"net/http"
	"strings"
)

// Phrases that show up in block pages, challenge screens, and WAF error
// bodies. Matched case-insensitively against error text and response bodies.
var antiBotSignatures = []string{
	"blocked",
	"captcha",
	"cloudflare",
	"challenge",
	"access denied",
	"forbidden",
	"rate limit",
	"bot detected",
	"security check",
	"please verify",
	"unusual traffic",
	"automated",
}

// IsAntiBotError reports whether an error's text matches a known anti-bot
// signature, including embedded HTTP status codes.
func IsAntiBotError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range antiBotSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return strings.Contains(msg, "status 403") || strings.Contains(msg, "status 429")
}

// LooksBlocked reports whether a nominally successful response is actually a
// protection page: a 403/429 status, a Cloudflare ray header, or a challenge
// body.
func LooksBlocked(r *Result) bool {
	if r == nil {
		return false
	}
	if r.StatusCode == http.StatusForbidden || r.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if r.Headers != nil && r.Headers.Get("Cf-Ray") != "" && r.StatusCode != http.StatusOK {
		return true
	}
	body := strings.ToLower(r.HTML)
	if strings.Contains(body, "challenge-form") || strings.Contains(body, "cf-challenge") {
		return true
	}
	// Tiny bodies that are mostly a block message.
	if len(body) < 2048 {
		for _, sig := range []string{"captcha", "access denied", "bot detected", "security check"} {
			if strings.Contains(body, sig) {
				return true
			}
		}
	}
	return false
}
