package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postJSON runs a handler against a synthetic JSON request and returns the
// recorder. Validation paths reject before any repository call, so a
// zero-value handler is enough for these tests.
func postJSON(t *testing.T, h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))
	return rec
}

func TestCreateLotRejectsMissingName(t *testing.T) {
	h := &AdminHandler{}
	rec := postJSON(t, h.CreateLot, http.MethodPost, "/v1/admin/lots",
		`{"price_per_hour": 10, "max_spots": 5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "prime_location_name")
}

func TestCreateLotRejectsNonPositiveRate(t *testing.T) {
	h := &AdminHandler{}
	for _, body := range []string{
		`{"prime_location_name": "Central", "max_spots": 5}`,
		`{"prime_location_name": "Central", "price_per_hour": 0, "max_spots": 5}`,
		`{"prime_location_name": "Central", "price_per_hour": -2.5, "max_spots": 5}`,
	} {
		rec := postJSON(t, h.CreateLot, http.MethodPost, "/v1/admin/lots", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), "price_per_hour")
	}
}

func TestCreateLotRejectsNonPositiveCapacity(t *testing.T) {
	h := &AdminHandler{}
	for _, body := range []string{
		`{"prime_location_name": "Central", "price_per_hour": 10}`,
		`{"prime_location_name": "Central", "price_per_hour": 10, "max_spots": 0}`,
		`{"prime_location_name": "Central", "price_per_hour": 10, "max_spots": -3}`,
	} {
		rec := postJSON(t, h.CreateLot, http.MethodPost, "/v1/admin/lots", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), "max_spots")
	}
}

func TestUpdateLotRejectsBadID(t *testing.T) {
	h := &AdminHandler{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.UpdateLot(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteLotRejectsBadID(t *testing.T) {
	h := &AdminHandler{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("0")
	require.NoError(t, h.DeleteLot(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
