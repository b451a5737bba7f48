package mail

import (
	"context"
	"log/slog"
)

// LogMailer stands in for SMTP in development. It logs the recipient and the
// link; temporary passwords are never logged.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (LogMailer) SendPasswordReset(_ context.Context, to string, resetLink string) error {
	slog.Info("mail: password reset", "to", to, "link", resetLink)
	return nil
}

func (LogMailer) SendLeaderActivation(_ context.Context, to string, msg ActivationMail) error {
	slog.Info("mail: leader activation", "to", to, "clan_id", msg.ClanID, "link", msg.ActivationLink)
	return nil
}
