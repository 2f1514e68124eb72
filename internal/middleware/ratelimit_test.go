package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/seat-reservation/internal/config"
)

func TestTokenBucket_DisabledPassesThrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/showings/7/reservations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	require.NoError(t, mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c))

	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestTokenBucket_NilClientPassesThrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/showings/7/reservations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/showings/7/reservations", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/showings/:id/reservations")
	c.Set("user_id", float64(42))

	cfg := config.RateLimitConfig{Prefix: "rl"}

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:42", rateKey(cfg, c))

	cfg.KeyStrategy = "route"
	assert.Equal(t, "rl:route:POST /v1/showings/:id/reservations", rateKey(cfg, c))

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:"+c.RealIP(), rateKey(cfg, c))

	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "rl:user:42:route:POST /v1/showings/:id/reservations", rateKey(cfg, c))

	// unknown strategy falls back to the full ip_user_route key
	cfg.KeyStrategy = "bogus"
	assert.Equal(t, "rl:ip:"+c.RealIP()+":user:42:route:POST /v1/showings/:id/reservations", rateKey(cfg, c))
}

func TestUserIDKeying(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	c := e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "guest", userID(c), "unauthenticated requests share the guest bucket")

	c = e.NewContext(req, httptest.NewRecorder())
	c.Set("user_id", float64(42))
	assert.Equal(t, "42", userID(c))

	c = e.NewContext(req, httptest.NewRecorder())
	c.Set("user_id", uint64(7))
	assert.Equal(t, "7", userID(c))

	c = e.NewContext(req, httptest.NewRecorder())
	c.Set("user_id", "")
	assert.Equal(t, "guest", userID(c))
}

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(5), asInt64(int64(5)))
	assert.Equal(t, int64(5), asInt64(5))
	assert.Equal(t, int64(5), asInt64(5.9), "floats truncate")
	assert.Equal(t, int64(5), asInt64("5"))
	assert.Equal(t, int64(0), asInt64("junk"))
	assert.Equal(t, int64(0), asInt64(nil))
}
