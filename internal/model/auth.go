package model

// SessionUser is the user summary returned by login and two-factor verification.
type SessionUser struct {
	ID               string  `json:"id"`
	Email            string  `json:"email"`
	Username         string  `json:"username,omitempty"`
	Role             Role    `json:"role"`
	ClanID           *string `json:"clanId,omitempty"`
	TwoFactorEnabled bool    `json:"twoFactorEnabled"`
}

func (u User) Session() SessionUser {
	return SessionUser{
		ID:               u.ID,
		Email:            u.Email,
		Username:         u.Username,
		Role:             u.Role,
		ClanID:           optional(u.ClanID),
		TwoFactorEnabled: u.TwoFactorEnabled,
	}
}

// PendingSession omits the clan and display name while the second factor is outstanding.
func (u User) PendingSession() SessionUser {
	return SessionUser{
		ID:               u.ID,
		Email:            u.Email,
		Role:             u.Role,
		TwoFactorEnabled: u.TwoFactorEnabled,
	}
}

type LoginResponse struct {
	RequireTwoFactor bool        `json:"requireTwoFactor,omitempty"`
	TempToken        string      `json:"tempToken,omitempty"`
	Token            string      `json:"token,omitempty"`
	RefreshToken     string      `json:"refreshToken,omitempty"`
	User             SessionUser `json:"user"`
}

type VerifyTwoFactorResponse struct {
	Verified     bool        `json:"verified"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         SessionUser `json:"user"`
}

type EnableTwoFactorResponse struct {
	Secret    string `json:"secret"`
	QRCodeURL string `json:"qrCodeUrl"`
}

type ConfirmTwoFactorResponse struct {
	Enabled bool `json:"enabled"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
