package middlewares

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"lostfound-bot/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, id, entry.Data[RequestIDKey])
	assert.Equal(t, "/ping", entry.Data["path"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "upstream-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "upstream-1", w.Header().Get(RequestIDHeader))
}

func TestAdminAuth(t *testing.T) {
	logger, _ := test.NewNullLogger()
	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	r := gin.New()
	r.GET("/secret", AdminAuth("s3cret", func() time.Time { return clock }, logger), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(AdminKey))
	})

	valid, err := utils.GenerateAdminToken("s3cret", "ops", clock)
	require.NoError(t, err)
	forged, err := utils.GenerateAdminToken("other", "ops", clock)
	require.NoError(t, err)
	stale, err := utils.GenerateAdminToken("s3cret", "ops", clock.Add(-utils.TokenTTL-time.Minute))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"bearer", "Bearer " + valid, http.StatusOK},
		{"bare token", valid, http.StatusOK},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"expired on the server clock", "Bearer " + stale, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secret", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "ops", w.Body.String())
			}
		})
	}
}

type stubCounter struct {
	count int64
	err   error
	keys  []string
}

func (s *stubCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.keys = append(s.keys, key)
	return s.count, s.err
}

func serveWebhook(t *testing.T, counter HitCounter, limit int, from string) (*httptest.ResponseRecorder, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	r := gin.New()
	limited := func(c *gin.Context) { c.String(http.StatusOK, "slow down") }
	r.POST("/whatsapp", WebhookRateLimiter(counter, limit, time.Minute, limited, logger), func(c *gin.Context) {
		c.String(http.StatusOK, "handled")
	})

	form := url.Values{"From": {from}, "Body": {"menu"}}
	req := httptest.NewRequest(http.MethodPost, "/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, hook
}

func TestWebhookRateLimiter(t *testing.T) {
	t.Run("under the limit", func(t *testing.T) {
		counter := &stubCounter{count: 3}
		w, _ := serveWebhook(t, counter, 3, "whatsapp:+1")
		assert.Equal(t, "handled", w.Body.String())
		assert.Equal(t, []string{"ratelimit:whatsapp:whatsapp:+1"}, counter.keys)
	})

	t.Run("over the limit", func(t *testing.T) {
		w, hook := serveWebhook(t, &stubCounter{count: 4}, 3, "whatsapp:+1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "slow down", w.Body.String())
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	})

	t.Run("counter failure lets the message through", func(t *testing.T) {
		w, hook := serveWebhook(t, &stubCounter{err: errors.New("redis down")}, 3, "whatsapp:+1")
		assert.Equal(t, "handled", w.Body.String())
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	})

	t.Run("disabled", func(t *testing.T) {
		counter := &stubCounter{count: 100}
		w, _ := serveWebhook(t, counter, 0, "whatsapp:+1")
		assert.Equal(t, "handled", w.Body.String())
		assert.Empty(t, counter.keys)
	})
}

// signTwilio computes X-Twilio-Signature: base64 HMAC-SHA1 over the URL
// followed by every sorted form key and value.
func signTwilio(token, webhookURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(webhookURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestTwilioSignature(t *testing.T) {
	const token = "twilio-token"
	form := url.Values{"From": {"whatsapp:+1"}, "Body": {"menu"}, "NumMedia": {"0"}}

	tests := []struct {
		name      string
		baseURL   string
		forwarded string
		signature string
		body      url.Values
		code      int
	}{
		{"signed for the request host", "", "", signTwilio(token, "http://example.com/whatsapp", form), form, http.StatusOK},
		{"signed for the configured public url", "https://bot.example.org/", "", signTwilio(token, "https://bot.example.org/whatsapp", form), form, http.StatusOK},
		{"signed behind a proxy", "", "https", signTwilio(token, "https://example.com/whatsapp", form), form, http.StatusOK},
		{"missing signature", "", "", "", form, http.StatusForbidden},
		{"wrong token", "", "", signTwilio("other", "http://example.com/whatsapp", form), form, http.StatusForbidden},
		{"tampered body", "", "", signTwilio(token, "http://example.com/whatsapp", form), url.Values{"From": {"whatsapp:+1"}, "Body": {"2"}, "NumMedia": {"0"}}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			r := gin.New()
			r.POST("/whatsapp", TwilioSignature(token, tt.baseURL, logger), func(c *gin.Context) {
				c.String(http.StatusOK, c.PostForm("Body"))
			})

			req := httptest.NewRequest(http.MethodPost, "/whatsapp", strings.NewReader(tt.body.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.signature != "" {
				req.Header.Set(TwilioSignatureHeader, tt.signature)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "menu", w.Body.String())
			}
		})
	}
}
