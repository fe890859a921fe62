package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterRejectsMissingCredentials(t *testing.T) {
	h := &AuthHandler{}
	for _, body := range []string{
		`{}`,
		`{"username": "alice"}`,
		`{"password": "pw"}`,
		`{"username": "   ", "password": "pw"}`,
	} {
		rec := postJSON(t, h.Register, http.MethodPost, "/v1/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestLoginRejectsMissingCredentials(t *testing.T) {
	h := &AuthHandler{}
	rec := postJSON(t, h.Login, http.MethodPost, "/v1/auth/login", `{"username": "alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshRejectsEmptyToken(t *testing.T) {
	h := &AuthHandler{}
	rec := postJSON(t, h.Refresh, http.MethodPost, "/v1/auth/refresh", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
