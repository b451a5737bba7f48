package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func preflight(handler http.Handler, method string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks/t1", nil)
	req.Header.Set("Origin", "https://clans.example.com")
	req.Header.Set("Access-Control-Request-Method", method)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCORS_PreflightMethods(t *testing.T) {
	handler := CORS([]string{"https://clans.example.com"})(okHandler())

	patch := preflight(handler, http.MethodPatch)
	assert.Equal(t, "https://clans.example.com", patch.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, patch.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	put := preflight(handler, http.MethodPut)
	assert.Empty(t, put.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExposesRetryAfter(t *testing.T) {
	handler := CORS(nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/clans", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
}
