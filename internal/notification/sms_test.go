package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealerwatch/internal/config"
)

func TestTruncateSMSKeepsRuneBoundaries(t *testing.T) {
	// An emoji-led subject pushes multi-byte runes across the cut point.
	body := "🚨 RED ALERT: Acme Motors\n" + strings.Repeat("é", smsBodyLimit)
	out := truncateSMS(body)

	assert.LessOrEqual(t, len(out), smsBodyLimit)
	assert.True(t, utf8.ValidString(out), "truncation must not split a rune")
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestTruncateSMSLeavesShortBodiesAlone(t *testing.T) {
	body := "⚠️ YELLOW: slow response"
	assert.Equal(t, body, truncateSMS(body))
}

func TestSMSSendPostsValidUTF8(t *testing.T) {
	var posted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		posted = r.PostFormValue("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := NewSMSProvider(config.SMSConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550000000",
		BaseURL:    srv.URL,
	})

	msg := &Message{
		Subject: "🚨 RED ALERT: Acme Motors",
		Body:    strings.Repeat("website unreachable ", 40),
		Level:   "RED",
	}
	require.NoError(t, p.Send(context.Background(), "+15551234567", msg))
	assert.True(t, utf8.ValidString(posted))
	assert.LessOrEqual(t, len(posted), smsBodyLimit)
}
