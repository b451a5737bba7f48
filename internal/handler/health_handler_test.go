package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		db         pinger
		wantStatus int
		wantBody   string
	}{
		{"memory mode", nil, http.StatusOK, `"database":"memory"`},
		{"database up", stubPinger{}, http.StatusOK, `"database":"up"`},
		{"database down", stubPinger{err: errors.New("down")}, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tt.db, "1.2.3").Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}
