package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"clan-manager/pkg/apierror"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      pinger
	version string
	now     func() time.Time
}

// NewHealthHandler builds the health endpoint. db may be nil when the server
// runs on in-memory stores.
func NewHealthHandler(db pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version, now: time.Now}
}

type healthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Database  string    `json:"database"`
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:    "ok",
		Timestamp: h.now().UTC(),
		Version:   h.version,
		Database:  "memory",
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			slog.Error("health check database ping failed", "error", err)
			writeError(w, apierror.New("SERVICE_UNAVAILABLE", "database unavailable", "", http.StatusServiceUnavailable))
			return
		}
		status.Database = "up"
	}

	writeSuccess(w, http.StatusOK, status, nil)
}
