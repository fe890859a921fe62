package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-lot-reservation/internal/config"
)

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	body := []byte(`{"items":[]}`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsTruncated(t *testing.T) {
	_, _, _, ok := decodePayload([]byte{0, 0, 0})
	assert.False(t, ok)

	// Header length pointing past the buffer.
	bs, err := encodePayload(200, http.Header{}, nil)
	require.NoError(t, err)
	_, _, _, ok = decodePayload(bs[:6])
	assert.False(t, ok)
}

func TestCacheKeyStrategies(t *testing.T) {
	e := echo.New()
	newCtx := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/lots")
		return c
	}
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	same1 := cacheKeyFrom(cfg, newCtx("/v1/lots?page=1"))
	same2 := cacheKeyFrom(cfg, newCtx("/v1/lots?page=1"))
	other := cacheKeyFrom(cfg, newCtx("/v1/lots?page=2"))

	assert.Equal(t, same1, same2)
	assert.NotEqual(t, same1, other)

	// With the plain route strategy the query must not matter.
	cfg.KeyStrategy = "route"
	assert.Equal(t,
		cacheKeyFrom(cfg, newCtx("/v1/lots?page=1")),
		cacheKeyFrom(cfg, newCtx("/v1/lots?page=2")))
}

func TestBuildRateKeyPerUser(t *testing.T) {
	e := echo.New()
	newCtx := func(uid interface{}) echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/v1/lots/1/reserve", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/lots/:id/reserve")
		if uid != nil {
			c.Set("user_id", uid)
		}
		return c
	}
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}

	assert.Equal(t, "rl:user:7", buildRateKey(cfg, newCtx(float64(7))))
	assert.Equal(t, "rl:user:7", buildRateKey(cfg, newCtx(uint64(7))))
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, newCtx(nil)))
	assert.NotEqual(t,
		buildRateKey(cfg, newCtx(float64(7))),
		buildRateKey(cfg, newCtx(float64(8))))
}
