// Package notification delivers alert messages to dealers over the
// configured channels. Providers register themselves in a shared registry;
// the dispatcher picks channels per alert level and dealer preference.
package notification

import (
	"context"
	"fmt"
	"sync"

	"dealerwatch/internal/models"
)

// Message is one formatted notification, ready for any channel.
type Message struct {
	Subject string
	Body    string
	Level   string
}

// Provider is a single delivery channel. Available reports whether the
// provider has the configuration it needs to actually send.
type Provider interface {
	Name() string
	Available() bool
	Send(ctx context.Context, to string, msg *Message) error
}

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// RegisterProvider adds a configured provider to the registry, replacing any
// previous provider with the same name.
func RegisterProvider(p Provider) {
	mu.Lock()
	defer mu.Unlock()
	providers[p.Name()] = p
}

// GetProvider returns a registered provider by name.
func GetProvider(name string) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := providers[name]
	return p, ok
}

// FormatAlertMessage renders the alert for delivery. The same body is used
// for every channel; SMS providers truncate it themselves.
func FormatAlertMessage(profile *models.Profile, alert *models.Alert) *Message {
	emoji := "⚠️"
	if alert.Level == models.StatusRed {
		emoji = "🚨"
	}
	return &Message{
		Subject: fmt.Sprintf("%s [%s] Website alert for %s", emoji, alert.Level, profile.DealerName),
		Body: fmt.Sprintf("%s\n\nDealer: %s\nWebsite: %s\nDetected: %s\n",
			alert.Message,
			profile.DealerName,
			profile.WebsiteURL,
			alert.CreatedAt.Format("2006-01-02 15:04:05 MST")),
		Level: alert.Level,
	}
}
