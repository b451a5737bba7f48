package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"clan-manager/internal/model"
	"clan-manager/internal/security"
	"clan-manager/pkg/apierror"
)

const maxPeekBody = 1 << 20

type tokenValidator interface {
	ValidateAccessToken(tokenString string) (*model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

// RoutePolicy is the access rule attached to one route registration. A
// route with no Roles is open to any authenticated caller.
type RoutePolicy struct {
	Public                bool
	Roles                 []model.Role
	AllowTwoFactorPending bool
}

func Public() RoutePolicy {
	return RoutePolicy{Public: true}
}

func Authenticated() RoutePolicy {
	return RoutePolicy{}
}

func Roles(roles ...model.Role) RoutePolicy {
	return RoutePolicy{Roles: roles}
}

type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Guard enforces policy before the route handler runs: bearer token, then
// the two-factor state of the token, then the role and clan decision.
func (m *AuthMiddleware) Guard(policy RoutePolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy.Public {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, apierror.Unauthorized("missing or invalid authorization header"))
				return
			}

			claims, err := m.validator.ValidateAccessToken(token)
			if errors.Is(err, security.ErrTokenExpired) {
				writeAuthError(w, apierror.Unauthorized("token expired"))
				return
			}
			if err != nil {
				writeAuthError(w, apierror.Unauthorized("invalid token"))
				return
			}
			if claims.TwoFactorPending && !policy.AllowTwoFactorPending {
				writeAuthError(w, apierror.Unauthorized("two-factor verification required"))
				return
			}

			if !security.Authorize(claims, policy.Roles, targetClanID(r)) {
				writeAuthError(w, apierror.Forbidden("insufficient permissions"))
				return
			}

			noteUser(r.Context(), claims.UserID)
			ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok && claims != nil
}

// WithClaims returns a copy of ctx carrying claims. Handler tests use it to
// skip the token round trip.
func WithClaims(ctx context.Context, claims *model.AuthClaims) context.Context {
	return context.WithValue(ctx, authClaimsContextKey, claims)
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

// targetClanID reads the clan a request acts on from the clanId path
// parameter or, failing that, a top-level "clanId" string in a JSON body.
// The body is restored for the handler.
func targetClanID(r *http.Request) string {
	if id := chi.URLParam(r, "clanId"); id != "" {
		return id
	}
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}

	var peek struct {
		ClanID any `json:"clanId"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return ""
	}
	id, _ := peek.ClanID.(string)
	return strings.TrimSpace(id)
}

func writeAuthError(w http.ResponseWriter, apiErr *apierror.APIError) {
	writeJSONError(w, apiErr.HTTPStatus, apiErr.Code, apiErr.Message)
}
