package model

import "time"

const (
	DefaultMemberLimit = 30
	MinMemberLimit     = 5
	MaxMemberLimit     = 100
)

type Clan struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	LogoURL        string    `json:"logoUrl,omitempty"`
	LeaderID       string    `json:"leaderId"`
	TotalPower     int64     `json:"totalPower"`
	WeeklyKills    int64     `json:"weeklyKills"`
	MemberLimit    int       `json:"memberLimit"`
	IsActive       bool      `json:"isActive"`
	IsMainClan     bool      `json:"isMainClan"`
	ActivationCode string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ClanWithCode is returned to super admins only, when the activation code
// must be handed to the clan leader.
type ClanWithCode struct {
	Clan
	ActivationCode *string `json:"activationCode"`
}

func (c Clan) WithCode() ClanWithCode {
	out := ClanWithCode{Clan: c}
	if c.ActivationCode != "" {
		code := c.ActivationCode
		out.ActivationCode = &code
	}
	return out
}
