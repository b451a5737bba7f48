package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"clan-manager/internal/model"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
	TwoFactorTokenTTL = 5 * time.Minute
	PasswordResetTTL  = time.Hour
	ActivationTTL     = 24 * time.Hour

	ActionResetPassword = "reset-password"
	ActionActivate      = "activate"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrMissingKey   = errors.New("token signing key is not configured")
)

// TokenClaims is the signed claim set shared by every token purpose. The
// purpose is carried by IsTwoFactorAuthenticationToken, IsRefreshToken or Action.
type TokenClaims struct {
	Email                          string     `json:"email"`
	Role                           model.Role `json:"role,omitempty"`
	ClanID                         string     `json:"clanId,omitempty"`
	IsTwoFactorAuthenticationToken bool       `json:"isTwoFactorAuthenticationToken,omitempty"`
	IsRefreshToken                 bool       `json:"isRefreshToken,omitempty"`
	Action                         string     `json:"action,omitempty"`
	jwt.RegisteredClaims
}

func (c *TokenClaims) IsAccess() bool {
	return !c.IsTwoFactorAuthenticationToken && !c.IsRefreshToken && c.Action == ""
}

type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL time.Duration, refreshTTL time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingKey
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}

	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

func (i *TokenIssuer) Issue(claims TokenClaims, lifetime time.Duration) (string, error) {
	now := i.now().UTC()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(lifetime))
	claims.ID = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, structure and expiry. Failures are reported only
// as ErrTokenExpired or ErrTokenInvalid.
func (i *TokenIssuer) Verify(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func identityClaims(u model.User) TokenClaims {
	return TokenClaims{
		Email:            u.Email,
		Role:             u.Role,
		ClanID:           u.ClanID,
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID},
	}
}

func (i *TokenIssuer) IssuePair(u model.User) (model.TokenPair, error) {
	access, err := i.Issue(identityClaims(u), i.accessTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshClaims := identityClaims(u)
	refreshClaims.IsRefreshToken = true
	refresh, err := i.Issue(refreshClaims, i.refreshTTL)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueTwoFactorToken mints the short-lived token handed out after the
// password step when two-factor authentication is still outstanding.
func (i *TokenIssuer) IssueTwoFactorToken(u model.User) (string, error) {
	return i.Issue(TokenClaims{
		Email:                          u.Email,
		IsTwoFactorAuthenticationToken: true,
		RegisteredClaims:               jwt.RegisteredClaims{Subject: u.ID},
	}, TwoFactorTokenTTL)
}

func (i *TokenIssuer) IssueActionToken(u model.User, action string, lifetime time.Duration) (string, error) {
	return i.Issue(TokenClaims{
		Email:            u.Email,
		Action:           action,
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.ID},
	}, lifetime)
}

// ValidateAccessToken is used by the request gate. Access tokens and
// temporary two-factor tokens pass; refresh and action tokens do not.
func (i *TokenIssuer) ValidateAccessToken(tokenString string) (*model.AuthClaims, error) {
	claims, err := i.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.IsRefreshToken || claims.Action != "" {
		return nil, ErrTokenInvalid
	}

	return &model.AuthClaims{
		UserID:           claims.Subject,
		Email:            claims.Email,
		Role:             claims.Role,
		ClanID:           claims.ClanID,
		TwoFactorPending: claims.IsTwoFactorAuthenticationToken,
	}, nil
}
