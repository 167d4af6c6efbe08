package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/config"
	"github.com/formula-lab/crm-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func hit(h http.Handler, path, remote string, withUser string) int {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = remote
	if withUser != "" {
		req = req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{UserID: withUser}))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, zap.NewNop())
	h := rl.LimitPublic(okHandler())

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "/api/v1/public/contact", "10.0.0.1:1234", ""))
	}
}

func TestRateLimiter_PublicLimitPerIP(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, RequestsPerMinuteAuth: 100}, zap.NewNop())
	h := rl.LimitPublic(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "/api/v1/public/contact", "10.0.0.1:1234", ""))
	assert.Equal(t, http.StatusOK, hit(h, "/api/v1/public/contact", "10.0.0.1:1234", ""))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "/api/v1/public/contact", "10.0.0.1:1234", ""))

	// another client is unaffected
	assert.Equal(t, http.StatusOK, hit(h, "/api/v1/public/contact", "10.0.0.2:1234", ""))
}

func TestRateLimiter_AuthenticatedKeyedByUser(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, RequestsPerMinuteAuth: 1}, zap.NewNop())
	h := rl.Limit(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "/api/v1/contacts", "10.0.0.1:1234", "alice"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "/api/v1/contacts", "10.0.0.9:1234", "alice"))
	assert.Equal(t, http.StatusOK, hit(h, "/api/v1/contacts", "10.0.0.1:1234", "bob"))
}

func TestRateLimiter_Whitelists(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 1,
		WhitelistIPs:      []string{"127.0.0.1"},
		WhitelistPaths:    []string{"/health/*"},
	}, zap.NewNop())
	h := rl.LimitPublic(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "/api/v1/public/contact", "127.0.0.1:1234", ""))
		assert.Equal(t, http.StatusOK, hit(h, "/health/db", "10.0.0.5:1234", ""))
	}
}
