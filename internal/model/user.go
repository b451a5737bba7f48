package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleClanLeader Role = "clan_leader"
	RoleClanMember Role = "clan_member"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, true
	case RoleClanLeader:
		return RoleClanLeader, true
	case RoleClanMember:
		return RoleClanMember, true
	default:
		return "", false
	}
}

// User is the stored identity. ClanID, GameID and TwoFactorSecret use the
// empty string for "not set"; repositories map it to SQL NULL.
type User struct {
	ID               string
	Email            string
	PasswordHash     string
	Username         string
	Role             Role
	ClanID           string
	GameID           string
	IsActive         bool
	TwoFactorEnabled bool
	TwoFactorSecret  string
	LastLoginAt      *time.Time
	Power            int64
	WeeklyKills      int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (u User) HasClan() bool {
	return u.ClanID != ""
}

func (u User) Profile() UserProfile {
	return UserProfile{
		ID:               u.ID,
		Email:            u.Email,
		Username:         u.Username,
		Role:             u.Role,
		ClanID:           optional(u.ClanID),
		GameID:           optional(u.GameID),
		IsActive:         u.IsActive,
		TwoFactorEnabled: u.TwoFactorEnabled,
		LastLoginAt:      u.LastLoginAt,
		Power:            u.Power,
		WeeklyKills:      u.WeeklyKills,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// UserProfile is the public JSON shape of a user; it never carries the
// password hash or the two-factor secret.
type UserProfile struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	Role             Role       `json:"role"`
	ClanID           *string    `json:"clanId"`
	GameID           *string    `json:"gameId,omitempty"`
	IsActive         bool       `json:"isActive"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
	Power            int64      `json:"power"`
	WeeklyKills      int64      `json:"weeklyKills"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// AuthClaims is the caller identity placed on the request context by the
// authentication gate.
type AuthClaims struct {
	UserID           string `json:"id"`
	Email            string `json:"email"`
	Role             Role   `json:"role"`
	ClanID           string `json:"clanId,omitempty"`
	TwoFactorPending bool   `json:"isTwoFactorAuthenticationToken,omitempty"`
}

func (c *AuthClaims) IsSuperAdmin() bool {
	return c != nil && c.Role == RoleSuperAdmin
}

func (c *AuthClaims) IsLeaderOf(clanID string) bool {
	return c != nil && c.Role == RoleClanLeader && c.ClanID != "" && c.ClanID == clanID
}

type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
