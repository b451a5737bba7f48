//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clan-manager/internal/app"
	"clan-manager/internal/config"
	"clan-manager/internal/database"
	"clan-manager/internal/mail"
	"clan-manager/internal/security"
	"clan-manager/internal/service"
)

const (
	adminEmail    = "admin@clans.test"
	adminPassword = "Adm1n-Passw0rd"
)

// newDatabase connects to TEST_DATABASE_URL, applies the schema and empties
// every table.
func newDatabase(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, database.Options{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE activity_log, announcements, tasks, users, clans CASCADE`)
	require.NoError(t, err)
	return db
}

func baseConfig() *config.Config {
	return &config.Config{
		APIPrefix:        "/api",
		RequestTimeout:   10 * time.Second,
		JWTSecret:        "integration-secret",
		JWTAccessTTL:     time.Hour,
		JWTRefreshTTL:    24 * time.Hour,
		BcryptCost:       security.MinBcryptCost,
		TwoFactorAppName: "Clan Manager",
		FrontendURL:      "https://clans.example.com",
		CORSOrigins:      []string{"*"},
		AuthRateLimitRPM: 1000,
	}
}

// newMemoryServer serves the full router over in-memory stores, for tests
// that exercise the HTTP edge rather than persistence.
func newMemoryServer(t *testing.T, mutate func(cfg *config.Config)) *httptest.Server {
	t.Helper()

	cfg := baseConfig()
	if mutate != nil {
		mutate(cfg)
	}
	components, err := app.Wire(cfg, app.MemoryStores(), mail.NewLogMailer(), nil, nil)
	require.NoError(t, err)

	server := httptest.NewServer(components.Handler)
	t.Cleanup(server.Close)
	return server
}

type testServer struct {
	*httptest.Server
	stores app.Stores
	mailer *mail.MockMailer
}

func newServer(t *testing.T) *testServer {
	t.Helper()

	db := newDatabase(t)
	cfg := baseConfig()
	stores := app.PostgresStores(db.Pool)
	mailer := &mail.MockMailer{}

	components, err := app.Wire(cfg, stores, mailer, nil, db)
	require.NoError(t, err)
	require.NoError(t, service.Bootstrap(context.Background(), service.BootstrapOptions{
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	}, stores.Users, stores.Clans, components.Hasher))

	server := httptest.NewServer(components.Handler)
	t.Cleanup(server.Close)
	return &testServer{Server: server, stores: stores, mailer: mailer}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) call(t *testing.T, method string, path string, token string, body any) (int, envelope) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &payload)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T, email string, password string) string {
	t.Helper()

	status, env := s.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)

	var parsed struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &parsed))
	require.NotEmpty(t, parsed.Token)
	return parsed.Token
}
