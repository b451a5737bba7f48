package model

import "time"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyTwoFactorRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

type TwoFactorCodeRequest struct {
	Code string `json:"code"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RegisterLeaderRequest struct {
	ClanID             string `json:"clanId"`
	Email              string `json:"email"`
	InitialMemberCount int    `json:"initialMemberCount"`
}

type CreateUserRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	ClanID   *string `json:"clanId"`
	GameID   *string `json:"gameId"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Username *string `json:"username"`
	Role     *string `json:"role"`
	ClanID   *string `json:"clanId"`
	GameID   *string `json:"gameId"`
	IsActive *bool   `json:"isActive"`
}

type UpdatePowerRequest struct {
	Power int64 `json:"power"`
}

type UpdateKillsRequest struct {
	Kills int64 `json:"kills"`
}

type CreateClanRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoURL     string `json:"logoUrl"`
	LeaderID    string `json:"leaderId"`
	MemberLimit int    `json:"memberLimit"`
	IsMainClan  bool   `json:"isMainClan"`
}

type UpdateClanRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	LogoURL     *string `json:"logoUrl"`
	LeaderID    *string `json:"leaderId"`
	MemberLimit *int    `json:"memberLimit"`
}

type ActivateClanRequest struct {
	ActivationCode string `json:"activationCode"`
}

type CreateAnnouncementRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	IsPinned bool   `json:"isPinned"`
	ClanID   string `json:"clanId"`
}

type UpdateAnnouncementRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	IsPinned *bool   `json:"isPinned"`
	ClanID   *string `json:"clanId"`
}

type CreateTaskRequest struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	ClanID       string       `json:"clanId"`
	AssignedToID string       `json:"assignedToId"`
	Progress     int          `json:"progress"`
	DueDate      *time.Time   `json:"dueDate"`
}

type UpdateTaskRequest struct {
	Title        *string       `json:"title"`
	Description  *string       `json:"description"`
	Status       *TaskStatus   `json:"status"`
	Priority     *TaskPriority `json:"priority"`
	ClanID       *string       `json:"clanId"`
	AssignedToID *string       `json:"assignedToId"`
	Progress     *int          `json:"progress"`
	DueDate      *time.Time    `json:"dueDate"`

	// Fields lists the JSON keys present in the request body, including keys
	// sent with a null value.
	Fields []string `json:"-"`
}

type UpdateProgressRequest struct {
	Progress int `json:"progress"`
}
