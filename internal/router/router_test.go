package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clan-manager/internal/app"
	"clan-manager/internal/config"
	"clan-manager/internal/mail"
	"clan-manager/internal/metrics"
	"clan-manager/internal/model"
	"clan-manager/internal/security"
)

const password = "Passw0rd!"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type server struct {
	t       *testing.T
	handler http.Handler
	stores  app.Stores
	hasher  *security.PasswordHasher
}

func newServer(t *testing.T) *server {
	t.Helper()

	cfg := &config.Config{
		APIPrefix:        "/api",
		RequestTimeout:   5 * time.Second,
		JWTSecret:        "router-secret",
		JWTAccessTTL:     time.Hour,
		JWTRefreshTTL:    24 * time.Hour,
		BcryptCost:       security.MinBcryptCost,
		TwoFactorAppName: "Clan Manager",
		FrontendURL:      "https://clans.example.com",
		CORSOrigins:      []string{"*"},
		AuthRateLimitRPM: 1000,
	}
	stores := app.MemoryStores()
	components, err := app.Wire(cfg, stores, mail.NewLogMailer(), metrics.New(), nil)
	require.NoError(t, err)

	s := &server{t: t, handler: components.Handler, stores: stores, hasher: components.Hasher}
	s.seed()
	return s
}

func (s *server) addUser(id string, email string, role model.Role, clanID string) model.User {
	hash, err := s.hasher.Hash(password)
	require.NoError(s.t, err)

	now := time.Now().UTC()
	u := model.User{
		ID: id, Email: email, PasswordHash: hash, Username: id,
		Role: role, ClanID: clanID, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(s.t, s.stores.Users.Create(context.Background(), u))
	return u
}

func (s *server) seed() {
	ctx := context.Background()
	s.addUser("admin", "admin@x.com", model.RoleSuperAdmin, "")
	s.addUser("alpha-leader", "alpha@x.com", model.RoleClanLeader, "Alpha_01")
	s.addUser("alpha-member", "member@x.com", model.RoleClanMember, "Alpha_01")
	s.addUser("beta-leader", "beta@x.com", model.RoleClanLeader, "Beta_02")

	now := time.Now().UTC()
	for id, leader := range map[string]string{"Alpha_01": "alpha-leader", "Beta_02": "beta-leader"} {
		require.NoError(s.t, s.stores.Clans.Create(ctx, model.Clan{
			ID: id, Name: id, LeaderID: leader, MemberLimit: model.DefaultMemberLimit,
			IsActive: true, CreatedAt: now, UpdatedAt: now,
		}))
	}
}

func (s *server) do(method string, path string, token string, body any) (int, envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *server) login(email string) model.LoginResponse {
	s.t.Helper()

	status, env := s.do(http.MethodPost, "/api/auth/login", "", model.LoginRequest{Email: email, Password: password})
	require.Equal(s.t, http.StatusOK, status)
	var resp model.LoginResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &resp))
	return resp
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	status, env := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"status":"ok"`)
}

func TestLeaderScopedToOwnClan(t *testing.T) {
	s := newServer(t)
	token := s.login("alpha@x.com").Token

	status, env := s.do(http.MethodGet, "/api/users/clan/Alpha_01", token, nil)
	require.Equal(t, http.StatusOK, status)
	var members []model.UserProfile
	require.NoError(t, json.Unmarshal(env.Data, &members))
	assert.Len(t, members, 2)

	status, env = s.do(http.MethodGet, "/api/users/clan/Beta_02", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(env))
}

func TestGateRejectsMissingAndWrongPurposeTokens(t *testing.T) {
	s := newServer(t)

	status, env := s.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(env))

	pair := s.login("member@x.com")
	status, _ = s.do(http.MethodGet, "/api/auth/me", pair.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(http.MethodGet, "/api/auth/me", pair.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestMemberCannotCreateTasks(t *testing.T) {
	s := newServer(t)
	token := s.login("member@x.com").Token

	status, env := s.do(http.MethodPost, "/api/tasks", token, map[string]any{
		"title":  "farm",
		"clanId": "Alpha_01",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(env))
}

func TestLeaderCreatesTaskInOwnClan(t *testing.T) {
	s := newServer(t)
	token := s.login("alpha@x.com").Token

	status, env := s.do(http.MethodPost, "/api/tasks", token, map[string]any{
		"title":        "defend castle",
		"assignedToId": "alpha-member",
	})
	require.Equal(t, http.StatusCreated, status, string(env.Data))
	var task model.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, "Alpha_01", task.ClanID)

	memberToken := s.login("member@x.com").Token
	status, env = s.do(http.MethodPatch, "/api/tasks/"+task.ID, memberToken, map[string]any{"title": "renamed"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(env))

	status, env = s.do(http.MethodPatch, "/api/tasks/"+task.ID, memberToken, map[string]any{"progress": 100})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, model.TaskCompleted, task.Status)
}

func TestTwoFactorLoginFlow(t *testing.T) {
	s := newServer(t)
	secret, _, err := security.NewTOTP("Clan Manager").GenerateSecret("member@x.com")
	require.NoError(t, err)
	require.NoError(t, s.stores.Users.UpdateTwoFactor(context.Background(), "alpha-member", true, secret))

	challenge := s.login("member@x.com")
	require.True(t, challenge.RequireTwoFactor)
	require.NotEmpty(t, challenge.TempToken)
	assert.Empty(t, challenge.Token)

	status, env := s.do(http.MethodGet, "/api/tasks", challenge.TempToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(env))

	status, env = s.do(http.MethodPost, "/api/auth/verify-2fa", challenge.TempToken, map[string]string{"code": "12a456"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CODE", errorCode(env))

	code, err := security.CodeAt(secret, time.Now())
	require.NoError(t, err)
	status, env = s.do(http.MethodPost, "/api/auth/verify-2fa", challenge.TempToken, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, status)

	var verified model.VerifyTwoFactorResponse
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.True(t, verified.Verified)

	status, _ = s.do(http.MethodGet, "/api/tasks", verified.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestPublicClanRoutes(t *testing.T) {
	s := newServer(t)

	status, env := s.do(http.MethodGet, "/api/clans", "", nil)
	require.Equal(t, http.StatusOK, status)
	var clans []model.Clan
	require.NoError(t, json.Unmarshal(env.Data, &clans))
	assert.Len(t, clans, 2)

	status, _ = s.do(http.MethodGet, "/api/clans/admin", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	s.login("alpha@x.com")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `clan_manager_auth_events_total{event="login",outcome="success"} 1`)
}
