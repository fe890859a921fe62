package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ctxWith(t *testing.T, userID interface{}) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if userID != nil {
		c.Set("user_id", userID)
	}
	return c
}

func TestGetUserIDAcceptsJWTFloat(t *testing.T) {
	// Numeric JWT claims decode as float64.
	id, err := getUserID(ctxWith(t, float64(42)))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestGetUserIDAcceptsIntegerKinds(t *testing.T) {
	for _, v := range []interface{}{uint64(7), int(7), int64(7), "7"} {
		id, err := getUserID(ctxWith(t, v))
		require.NoError(t, err)
		assert.Equal(t, uint64(7), id)
	}
}

func TestGetUserIDRejectsMissing(t *testing.T) {
	_, err := getUserID(ctxWith(t, nil))
	assert.Error(t, err)

	_, err = getUserID(ctxWith(t, "not-a-number"))
	assert.Error(t, err)
}

func TestPathID(t *testing.T) {
	e := echo.New()
	newCtx := func(val string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(val)
		return c
	}

	id, err := pathID(newCtx("12"), "id")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		_, err := pathID(newCtx(bad), "id")
		assert.Error(t, err, bad)
	}
}
