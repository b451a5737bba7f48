package model

import "time"

type ActivityAction string

const (
	ActivityLogin                  ActivityAction = "AUTH_LOGIN"
	ActivityTwoFactorAuth          ActivityAction = "TWO_FACTOR_AUTH"
	ActivityTwoFactorEnabled       ActivityAction = "TWO_FACTOR_ENABLED"
	ActivityTwoFactorDisabled      ActivityAction = "TWO_FACTOR_DISABLED"
	ActivityPasswordChanged        ActivityAction = "PASSWORD_CHANGED"
	ActivityPasswordResetRequested ActivityAction = "PASSWORD_RESET_REQUESTED"
	ActivityPasswordResetCompleted ActivityAction = "PASSWORD_RESET_COMPLETED"
	ActivityLeaderCreated          ActivityAction = "LEADER_CREATED"
)

type ActivityEntry struct {
	ID         int64          `json:"id"`
	UserID     string         `json:"userId"`
	Action     ActivityAction `json:"action"`
	Detail     string         `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}
