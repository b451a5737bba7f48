package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clan-manager/internal/middleware"
	"clan-manager/internal/model"
	"clan-manager/pkg/apierror"
)

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return false
	}
	return true
}

// decodeBodyWithKeys decodes dst and also reports which top-level keys the
// body contained, including keys set to null.
func decodeBodyWithKeys(w http.ResponseWriter, r *http.Request, dst any) ([]string, bool) {
	defer r.Body.Close()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return nil, false
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return nil, false
	}
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(dst); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return nil, false
	}

	fields := make([]string, 0, len(keys))
	for k := range keys {
		fields = append(fields, k)
	}
	return fields, true
}

// callerFromRequest returns the identity the auth guard placed on the request.
func callerFromRequest(w http.ResponseWriter, r *http.Request) (*model.AuthClaims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return nil, false
	}
	return claims, true
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.Validation(key+" must be an integer", key)
	}
	return v, nil
}

func queryTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, apierror.Validation(key+" must be an RFC 3339 timestamp or a YYYY-MM-DD date", key)
}
