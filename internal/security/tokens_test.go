package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clan-manager/internal/model"
)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()

	issuer, err := NewTokenIssuer("test-secret", time.Hour, 7*24*time.Hour)
	require.NoError(t, err)
	return issuer
}

func leaderUser() model.User {
	return model.User{ID: "u-leader", Email: "leader@x.com", Role: model.RoleClanLeader, ClanID: "Alpha_01"}
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer("  ", time.Hour, time.Hour)
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestIssuePairCarriesIdentity(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)
	pair, err := issuer.IssuePair(leaderUser())
	require.NoError(t, err)

	access, err := issuer.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-leader", access.Subject)
	assert.Equal(t, model.RoleClanLeader, access.Role)
	assert.Equal(t, "Alpha_01", access.ClanID)
	assert.True(t, access.IsAccess())
	assert.NotEmpty(t, access.ID)

	refresh, err := issuer.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.IsRefreshToken)
	assert.Equal(t, "Alpha_01", refresh.ClanID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), refresh.ExpiresAt.Time, time.Minute)
}

func TestVerifyRejectsExpiredAndTamperedTokens(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)
	start := time.Now()
	issuer.now = func() time.Time { return start }

	token, err := issuer.IssueTwoFactorToken(leaderUser())
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(4 * time.Minute) }
	_, err = issuer.Verify(token)
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(6 * time.Minute) }
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	issuer.now = time.Now
	_, err = issuer.Verify(token + "a")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	other, err := NewTokenIssuer("another-secret", time.Hour, time.Hour)
	require.NoError(t, err)
	foreign, err := other.IssuePair(leaderUser())
	require.NoError(t, err)
	_, err = issuer.Verify(foreign.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, TokenClaims{
		Role:             model.RoleSuperAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestActionTokenLifetimes(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)

	reset, err := issuer.IssueActionToken(leaderUser(), ActionResetPassword, PasswordResetTTL)
	require.NoError(t, err)
	claims, err := issuer.Verify(reset)
	require.NoError(t, err)
	assert.Equal(t, ActionResetPassword, claims.Action)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)

	activation, err := issuer.IssueActionToken(leaderUser(), ActionActivate, ActivationTTL)
	require.NoError(t, err)
	claims, err = issuer.Verify(activation)
	require.NoError(t, err)
	assert.Equal(t, ActionActivate, claims.Action)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateAccessToken(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t)
	pair, err := issuer.IssuePair(leaderUser())
	require.NoError(t, err)

	claims, err := issuer.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, &model.AuthClaims{UserID: "u-leader", Email: "leader@x.com", Role: model.RoleClanLeader, ClanID: "Alpha_01"}, claims)

	t.Run("refresh token is not a bearer token", func(t *testing.T) {
		_, err := issuer.ValidateAccessToken(pair.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("action tokens are not bearer tokens", func(t *testing.T) {
		reset, err := issuer.IssueActionToken(leaderUser(), ActionResetPassword, PasswordResetTTL)
		require.NoError(t, err)
		_, err = issuer.ValidateAccessToken(reset)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("temporary token is flagged", func(t *testing.T) {
		temp, err := issuer.IssueTwoFactorToken(leaderUser())
		require.NoError(t, err)
		claims, err := issuer.ValidateAccessToken(temp)
		require.NoError(t, err)
		assert.True(t, claims.TwoFactorPending)
		assert.Empty(t, claims.Role)
	})
}
